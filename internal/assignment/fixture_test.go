package assignment_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

// 4 个 TA × 3 个 section 的小样例，section 0 和 1 时间相同
func fixtureTables(t *testing.T) *assignment.Tables {
	t.Helper()

	sections := []domain.Section{
		{Index: 0, Daytime: "R 1145-125", MinTA: 2},
		{Index: 1, Daytime: "R 1145-125", MinTA: 1},
		{Index: 2, Daytime: "W 950-1130", MinTA: 3},
	}
	tas := []domain.TA{
		{Index: 0, MaxAssigned: 1, Preferences: domain.ParsePreferences("PWU")},
		{Index: 1, MaxAssigned: 2, Preferences: domain.ParsePreferences("UUP")},
		{Index: 2, MaxAssigned: 0, Preferences: domain.ParsePreferences("WPP")},
		{Index: 3, MaxAssigned: 3, Preferences: domain.ParsePreferences("PXW")},
	}

	tables, err := assignment.NewTables(sections, tas)
	require.NoError(t, err)
	return tables
}

func fixtureMatrix(t *testing.T) *assignment.Matrix {
	t.Helper()

	m, err := assignment.MatrixFromRows([][]int{
		{1, 1, 1},
		{1, 0, 1},
		{0, 1, 0},
		{1, 1, 0},
	})
	require.NoError(t, err)
	return m
}

var preferenceCodes = []domain.Preference{
	domain.PreferencePreferred,
	domain.PreferenceWilling,
	domain.PreferenceUnwilling,
}

// randomTables 随机生成参考数据，minMaxAssigned 控制 max_assigned 的下限
func randomTables(t *testing.T, rng *rand.Rand, rows, cols, minMaxAssigned int) *assignment.Tables {
	t.Helper()

	daytimes := []string{"M 1", "M 2", "T 1", "T 2"}
	sections := make([]domain.Section, cols)
	for j := range sections {
		sections[j] = domain.Section{
			Index:   j,
			Daytime: daytimes[rng.Intn(len(daytimes))],
			MinTA:   rng.Intn(4),
		}
	}

	tas := make([]domain.TA, rows)
	for i := range tas {
		prefs := make([]domain.Preference, cols)
		for j := range prefs {
			prefs[j] = preferenceCodes[rng.Intn(len(preferenceCodes))]
		}
		tas[i] = domain.TA{
			Index:       i,
			MaxAssigned: minMaxAssigned + rng.Intn(4),
			Preferences: prefs,
		}
	}

	tables, err := assignment.NewTables(sections, tas)
	require.NoError(t, err)
	return tables
}

func randomMatrix(t *testing.T, rng *rand.Rand, rows, cols int) *assignment.Matrix {
	t.Helper()

	data := make([][]int, rows)
	for i := range data {
		data[i] = make([]int, cols)
		for j := range data[i] {
			data[i][j] = rng.Intn(2)
		}
	}

	m, err := assignment.MatrixFromRows(data)
	require.NoError(t, err)
	return m
}

func score(t *testing.T, tables *assignment.Tables, o assignment.Objective, m *assignment.Matrix) int {
	t.Helper()

	v, err := tables.Score(o, m)
	require.NoError(t, err)
	return v
}
