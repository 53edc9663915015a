package report_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/report"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/scheduler"
)

var solutions = []domain.RunSolution{
	{Overallocation: 3, Conflicts: 2, Undersupport: 1, Unwilling: 2, Unpreferred: 1, Assignment: [][]int{{1, 0}, {0, 1}}},
	{Overallocation: 0, Conflicts: 0, Undersupport: 4, Unwilling: 0, Unpreferred: 0, Assignment: [][]int{{0, 0}, {0, 0}}},
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf, "ecnc", solutions))

	want := "groupname,overallocation,conflicts,undersupport,unwilling,unpreferred\n" +
		"ecnc,3,2,1,2,1\n" +
		"ecnc,0,0,4,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSolutions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteSolutions(&buf, "ecnc", solutions))

	want := "ecnc,3,2,1,2,1,1,0,0,1\n" +
		"ecnc,0,0,4,0,0,0,0,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	summaryPath, solutionsPath, err := report.WriteFiles(dir, "ecnc", solutions)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ecnc_summary.csv"), summaryPath)

	data, err := os.ReadFile(solutionsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ecnc,0,0,4,0,0,0,0,0,0")
}

func TestFromSchedule(t *testing.T) {
	t.Parallel()

	tables, err := assignment.NewTables(
		[]domain.Section{{Daytime: "a", MinTA: 1}, {Daytime: "b", MinTA: 1}},
		[]domain.TA{
			{MaxAssigned: 1, Preferences: domain.ParsePreferences("PU")},
			{MaxAssigned: 1, Preferences: domain.ParsePreferences("WP")},
		},
	)
	require.NoError(t, err)

	s, err := scheduler.New(&scheduler.Parameters{
		MaxIterations:     200,
		DominanceInterval: 10,
		StatusInterval:    100,
		MutationRate:      0.3,
		Seed:              1,
	}, tables)
	require.NoError(t, err)
	require.NoError(t, s.AddSolution(tables.ZeroMatrix()))
	require.NoError(t, s.Schedule(context.Background()))

	scheduled := s.Solutions()
	result := report.FromSchedule(scheduled)
	require.Len(t, result, len(scheduled))

	for i, r := range result {
		e := scheduled[i].Evaluation
		assert.Equal(t, e.Get(assignment.Overallocation), r.Overallocation)
		assert.Equal(t, e.Get(assignment.Unpreferred), r.Unpreferred)
		assert.Equal(t, scheduled[i].Matrix.ToRows(), r.Assignment)
	}
}
