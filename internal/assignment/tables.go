package assignment

import (
	"fmt"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

// Tables 是一次运行中只读的参考数据（section 表和 TA 表）
// 行/列的顺序即矩阵的下标顺序，创建之后不再修改，可以在多个 goroutine 间共享
type Tables struct {
	minTA       []int
	daytime     []string
	maxAssigned []int
	prefs       [][]domain.Preference
}

func NewTables(sections []domain.Section, tas []domain.TA) (*Tables, error) {
	t := &Tables{
		minTA:       make([]int, len(sections)),
		daytime:     make([]string, len(sections)),
		maxAssigned: make([]int, len(tas)),
		prefs:       make([][]domain.Preference, len(tas)),
	}

	for j, section := range sections {
		t.minTA[j] = section.MinTA
		t.daytime[j] = section.Daytime
	}

	for i, ta := range tas {
		if len(ta.Preferences) != len(sections) {
			return nil, fmt.Errorf("%w: ta %d has %d codes, expected %d", ErrPreferenceWidth, i, len(ta.Preferences), len(sections))
		}
		t.maxAssigned[i] = ta.MaxAssigned
		t.prefs[i] = append([]domain.Preference{}, ta.Preferences...)
	}

	return t, nil
}

func (t *Tables) NumTAs() int { return len(t.maxAssigned) }

func (t *Tables) NumSections() int { return len(t.minTA) }

func (t *Tables) MinTA(j int) int { return t.minTA[j] }

func (t *Tables) MaxAssigned(i int) int { return t.maxAssigned[i] }

func (t *Tables) Preference(i, j int) domain.Preference { return t.prefs[i][j] }

// Check 检查矩阵的形状是否和参考数据一致
func (t *Tables) Check(m *Matrix) error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrShapeMismatch)
	}
	if m.Rows() != t.NumTAs() || m.Cols() != t.NumSections() {
		return fmt.Errorf("%w: got %dx%d, expected %dx%d", ErrShapeMismatch, m.Rows(), m.Cols(), t.NumTAs(), t.NumSections())
	}
	return nil
}

// ZeroMatrix 返回全零的初始解
func (t *Tables) ZeroMatrix() *Matrix {
	m, _ := NewMatrix(t.NumTAs(), t.NumSections())
	return m
}
