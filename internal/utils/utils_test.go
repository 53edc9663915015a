package utils_test

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/utils"
)

func TestGenerateUsernameFromChineseName(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		username := utils.GenerateUsernameFromChineseName("张伟")
		require.NotEmpty(t, username)
		assert.Equal(t, byte('z'), username[0])
		for _, r := range username {
			assert.True(t, r < unicode.MaxASCII, "username %q is not ascii", username)
		}
	}
}

func TestGenerateRandomTables(t *testing.T) {
	t.Parallel()

	sections, tas := utils.GenerateRandomTables(17, 43)
	require.Len(t, sections, 17)
	require.Len(t, tas, 43)

	for j, s := range sections {
		assert.Equal(t, j, s.Index)
		assert.NotEmpty(t, s.Daytime)
		assert.GreaterOrEqual(t, s.MaxTA, s.MinTA)
	}
	for i, ta := range tas {
		assert.Equal(t, i, ta.Index)
		assert.Len(t, ta.Preferences, 17)
	}

	tables, err := assignment.NewTables(sections, tas)
	require.NoError(t, err)

	m := utils.GenerateRandomMatrix(tables, 0.3)
	require.NoError(t, tables.Check(m))
}

func TestGenerateRandomMatrixDensity(t *testing.T) {
	t.Parallel()

	sections, tas := utils.GenerateRandomTables(5, 4)
	tables, err := assignment.NewTables(sections, tas)
	require.NoError(t, err)

	assert.Equal(t, 0, utils.GenerateRandomMatrix(tables, 0).Ones())
	assert.Equal(t, 20, utils.GenerateRandomMatrix(tables, 1).Ones())
}

func TestValidateTables(t *testing.T) {
	t.Parallel()

	valid := func() ([]domain.Section, []domain.TA) {
		return []domain.Section{
				{Daytime: "R 1145-125", MinTA: 1, MaxTA: 2},
				{Daytime: "W 950-1130", MinTA: 2, MaxTA: 2},
			}, []domain.TA{
				{Username: "zw1", MaxAssigned: 1, Preferences: domain.ParsePreferences("PW")},
				{Username: "lq2", MaxAssigned: 2, Preferences: domain.ParsePreferences("UP")},
			}
	}

	tests := []struct {
		name    string
		mutate  func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA)
		wantErr bool
	}{
		{"valid", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) { return s, tas }, false},
		{"no sections", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) { return nil, tas }, true},
		{"no tas", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) { return s, nil }, true},
		{"max below min", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			s[1].MaxTA = 1
			return s, tas
		}, true},
		{"negative min ta", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			s[0].MinTA = -1
			return s, tas
		}, true},
		{"negative students", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			s[0].Students = -5
			return s, tas
		}, true},
		{"negative max assigned", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			tas[0].MaxAssigned = -1
			return s, tas
		}, true},
		{"preference width", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			tas[0].Preferences = domain.ParsePreferences("P")
			return s, tas
		}, true},
		{"unknown code", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			tas[1].Preferences = domain.ParsePreferences("PX")
			return s, tas
		}, true},
		{"duplicate username", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			tas[1].Username = tas[0].Username
			return s, tas
		}, true},
		{"empty usernames allowed", func(s []domain.Section, tas []domain.TA) ([]domain.Section, []domain.TA) {
			tas[0].Username = ""
			tas[1].Username = ""
			return s, tas
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sections, tas := tc.mutate(valid())
			err := utils.ValidateTables(sections, tas)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateCounts(t *testing.T) {
	t.Parallel()

	sections := []domain.Section{{Daytime: "M 1", MinTA: 0, MaxTA: 0}}
	tas := []domain.TA{{MaxAssigned: 0, Preferences: domain.ParsePreferences("?")}}
	require.NoError(t, utils.ValidateCounts(sections, tas))

	tas[0].MaxAssigned = -1
	require.Error(t, utils.ValidateCounts(sections, tas))

	tas[0].MaxAssigned = 0
	sections[0].MaxTA = -2
	require.Error(t, utils.ValidateCounts(sections, tas))
}
