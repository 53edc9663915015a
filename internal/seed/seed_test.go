package seed_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/seed"
)

type fakeStore struct {
	sections []domain.Section
	tas      []domain.TA
	err      error
}

func (s *fakeStore) ReplaceTables(sections []domain.Section, tas []domain.TA) error {
	if s.err != nil {
		return s.err
	}
	s.sections = sections
	s.tas = tas
	return nil
}

func TestLoadTablesAndEvaluate(t *testing.T) {
	t.Parallel()

	sections, tas, tables, err := seed.LoadTables("testdata/sections.csv", "testdata/tas.csv")
	require.NoError(t, err)
	require.Len(t, sections, 3)
	require.Len(t, tas, 4)

	assert.Equal(t, "R 1145-125", sections[0].Daytime)
	assert.Equal(t, 3, sections[2].MinTA)
	assert.Equal(t, 4, sections[2].MaxTA)
	assert.Equal(t, "陈静", tas[0].Name)
	assert.Equal(t, "P?W", tas[3].PreferenceString())

	m, err := seed.LoadMatrixFile("testdata/matrix.csv")
	require.NoError(t, err)

	eval, err := tables.Evaluate(m)
	require.NoError(t, err)
	assert.Equal(t, assignment.Evaluation{3, 2, 1, 2, 1}, eval)
}

func TestReadSectionsMissingColumn(t *testing.T) {
	t.Parallel()

	_, err := seed.ReadSections(strings.NewReader("section,instructor,daytime\n1,a,R 1145\n"))
	require.ErrorContains(t, err, "min_ta")
}

func TestReadSectionsBadInteger(t *testing.T) {
	t.Parallel()

	_, err := seed.ReadSections(strings.NewReader("daytime,min_ta\nR 1145,two\n"))
	require.ErrorContains(t, err, "第 2 行")
}

func TestReadSectionsWithBOM(t *testing.T) {
	t.Parallel()

	sections, err := seed.ReadSections(strings.NewReader("\ufeffdaytime,min_ta\nR 1145,2\n"))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, 2, sections[0].MinTA)
}

func TestReadTAsMissingPreferenceColumn(t *testing.T) {
	t.Parallel()

	_, err := seed.ReadTAs(strings.NewReader("ta_id,name,max_assigned,0\n0,a,1,P\n"), 2)
	require.ErrorContains(t, err, `"1"`)
}

func TestReadMatrix(t *testing.T) {
	t.Parallel()

	m, err := seed.ReadMatrix(strings.NewReader("1, 0\n0, 1\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {0, 1}}, m.ToRows())

	_, err = seed.ReadMatrix(strings.NewReader("1,0\n0\n"))
	require.ErrorIs(t, err, assignment.ErrRaggedMatrix)

	_, err = seed.ReadMatrix(strings.NewReader("1,2\n"))
	require.ErrorIs(t, err, assignment.ErrInvalidCell)

	_, err = seed.ReadMatrix(strings.NewReader("1,x\n"))
	require.Error(t, err)
}

func TestSeedTablesFromFiles(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	require.NoError(t, seed.SeedTablesFromFiles(store, "testdata/sections.csv", "testdata/tas.csv"))
	require.Len(t, store.sections, 3)
	require.Len(t, store.tas, 4)

	seen := map[string]bool{}
	for _, ta := range store.tas {
		require.NotEmpty(t, ta.Username)
		require.False(t, seen[ta.Username])
		seen[ta.Username] = true
	}
}

func TestSeedTablesFromFilesMissingFile(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	require.Error(t, seed.SeedTablesFromFiles(store, "testdata/none.csv", "testdata/tas.csv"))
	assert.Nil(t, store.sections)
}

func TestSeedRandomTables(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	require.NoError(t, seed.SeedRandomTables(store, 17, 43))
	assert.Len(t, store.sections, 17)
	assert.Len(t, store.tas, 43)

	_, err := assignment.NewTables(store.sections, store.tas)
	require.NoError(t, err)

	failing := &fakeStore{err: errors.New("boom")}
	require.ErrorContains(t, seed.SeedRandomTables(failing, 3, 3), "boom")
}

func TestLoadTablesRejectsNegativeCapacity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sectionsPath := filepath.Join(dir, "sections.csv")
	tasPath := filepath.Join(dir, "tas.csv")
	require.NoError(t, os.WriteFile(sectionsPath, []byte("section,instructor,daytime,location,students,topic,min_ta,max_ta\n0,a,M 1,b,10,c,1,2\n1,a,T 1,b,10,c,1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(tasPath, []byte("ta_id,name,max_assigned,0,1\n0,a,-1,P,P\n"), 0o644))

	_, _, _, err := seed.LoadTables(sectionsPath, tasPath)
	require.ErrorContains(t, err, "不能为负数")

	store := &fakeStore{}
	require.Error(t, seed.SeedTablesFromFiles(store, sectionsPath, tasPath))
	assert.Nil(t, store.tas)
}
