package assignment

import (
	"fmt"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

// Objective 是一个目标函数（惩罚项），值越小越好
type Objective int

const (
	Overallocation Objective = iota
	Conflicts
	Undersupport
	Unwilling
	Unpreferred

	NumObjectives = 5
)

var objectiveNames = [NumObjectives]string{
	Overallocation: "overallocation",
	Conflicts:      "conflicts",
	Undersupport:   "undersupport",
	Unwilling:      "unwilling",
	Unpreferred:    "unpreferred",
}

func (o Objective) String() string {
	if o < 0 || int(o) >= NumObjectives {
		return fmt.Sprintf("objective(%d)", int(o))
	}
	return objectiveNames[o]
}

func ParseObjective(name string) (Objective, error) {
	for i, n := range objectiveNames {
		if n == name {
			return Objective(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownObjective, name)
}

func AllObjectives() []Objective {
	return []Objective{Overallocation, Conflicts, Undersupport, Unwilling, Unpreferred}
}

// Score 计算单个目标函数的值
func (t *Tables) Score(o Objective, m *Matrix) (int, error) {
	if err := t.Check(m); err != nil {
		return 0, err
	}

	switch o {
	case Overallocation:
		return t.overallocation(m), nil
	case Conflicts:
		return t.conflicts(m), nil
	case Undersupport:
		return t.undersupport(m), nil
	case Unwilling:
		return t.countPreference(m, domain.PreferenceUnwilling), nil
	case Unpreferred:
		return t.countPreference(m, domain.PreferenceWilling), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownObjective, int(o))
	}
}

// Evaluate 按注册顺序计算所有目标函数
func (t *Tables) Evaluate(m *Matrix) (Evaluation, error) {
	var e Evaluation
	if err := t.Check(m); err != nil {
		return e, err
	}

	e[Overallocation] = t.overallocation(m)
	e[Conflicts] = t.conflicts(m)
	e[Undersupport] = t.undersupport(m)
	e[Unwilling] = t.countPreference(m, domain.PreferenceUnwilling)
	e[Unpreferred] = t.countPreference(m, domain.PreferenceWilling)

	return e, nil
}

// 超出 max_assigned 的部分之和，低于上限不抵扣
func (t *Tables) overallocation(m *Matrix) int {
	total := 0
	for i := 0; i < m.Rows(); i++ {
		if excess := m.RowSum(i) - t.maxAssigned[i]; excess > 0 {
			total += excess
		}
	}
	return total
}

// 每个 TA 若被分配到的 section 中存在相同的 daytime，则记 1 分
func (t *Tables) conflicts(m *Matrix) int {
	total := 0
	seen := make(map[string]struct{}, m.Cols())
	for i := 0; i < m.Rows(); i++ {
		clear(seen)
		assigned := 0
		for j := 0; j < m.Cols(); j++ {
			if m.At(i, j) == 1 {
				assigned++
				seen[t.daytime[j]] = struct{}{}
			}
		}
		if len(seen) < assigned {
			total++
		}
	}
	return total
}

// 每个 section 缺少的 TA 数之和，人数过多不惩罚
func (t *Tables) undersupport(m *Matrix) int {
	total := 0
	for j := 0; j < m.Cols(); j++ {
		if lack := t.minTA[j] - m.ColSum(j); lack > 0 {
			total += lack
		}
	}
	return total
}

// P/W/U 以外的编码既不算 U 也不算 W
func (t *Tables) countPreference(m *Matrix, p domain.Preference) int {
	total := 0
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if m.At(i, j) == 1 && t.prefs[i][j] == p {
				total++
			}
		}
	}
	return total
}
