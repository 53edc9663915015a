package assignment

import (
	"fmt"
	"math/rand"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

// Agent 是一个变异/修复算子，从 Arity() 个父代生成一个新的矩阵
type Agent int

const (
	Mutation Agent = iota
	Crossover
	RowMutation
	ColumnMutation
	SupportRepair
	EliminateUnwanted
	EliminateOverallocation
	EnsureNonZero
	ReassignUnwilling

	numAgents = 9
)

var agentNames = [numAgents]string{
	Mutation:                "mutation",
	Crossover:               "crossover",
	RowMutation:             "row_mutation",
	ColumnMutation:          "column_mutation",
	SupportRepair:           "support_repair",
	EliminateUnwanted:       "eliminate_unwanted",
	EliminateOverallocation: "eliminate_overallocation",
	EnsureNonZero:           "ensure_nonzero",
	ReassignUnwilling:       "reassign_unwilling",
}

func (a Agent) String() string {
	if a < 0 || int(a) >= numAgents {
		return fmt.Sprintf("agent(%d)", int(a))
	}
	return agentNames[a]
}

func (a Agent) Arity() int {
	if a == Crossover {
		return 2
	}
	return 1
}

func ParseAgent(name string) (Agent, error) {
	for i, n := range agentNames {
		if n == name {
			return Agent(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
}

func AllAgents() []Agent {
	agents := make([]Agent, numAgents)
	for i := range agents {
		agents[i] = Agent(i)
	}
	return agents
}

// Variation 持有所有算子共享的参考数据和随机数生成器
// rng 不是并发安全的，一个 Variation 只能在一个 goroutine 中使用
type Variation struct {
	tables       *Tables
	rng          *rand.Rand
	mutationRate float64
}

func NewVariation(tables *Tables, rng *rand.Rand, mutationRate float64) (*Variation, error) {
	if mutationRate < 0 || mutationRate > 1 {
		return nil, fmt.Errorf("%w: %v", ErrMutationRate, mutationRate)
	}

	return &Variation{
		tables:       tables,
		rng:          rng,
		mutationRate: mutationRate,
	}, nil
}

// Apply 执行一个算子，父代不会被修改，返回的总是新的矩阵
func (v *Variation) Apply(agent Agent, parents ...*Matrix) (*Matrix, error) {
	if agent < 0 || int(agent) >= numAgents {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAgent, int(agent))
	}
	if len(parents) != agent.Arity() {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, agent, agent.Arity(), len(parents))
	}
	for _, p := range parents {
		if err := v.tables.Check(p); err != nil {
			return nil, err
		}
	}

	switch agent {
	case Mutation:
		return v.mutate(parents[0]), nil
	case Crossover:
		return v.crossover(parents[0], parents[1]), nil
	case RowMutation:
		return v.mutateRow(parents[0]), nil
	case ColumnMutation:
		return v.mutateColumn(parents[0]), nil
	case SupportRepair:
		return v.repairSupport(parents[0]), nil
	case EliminateUnwanted:
		return v.eliminateUnwanted(parents[0]), nil
	case EliminateOverallocation:
		return v.eliminateOverallocation(parents[0]), nil
	case EnsureNonZero:
		return v.ensureNonZero(parents[0]), nil
	case ReassignUnwilling:
		return v.reassignUnwilling(parents[0]), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAgent, int(agent))
	}
}

// 每个格子以 mutationRate 的概率翻转
func (v *Variation) mutate(parent *Matrix) *Matrix {
	child := parent.Clone()
	for i := 0; i < child.Rows(); i++ {
		for j := 0; j < child.Cols(); j++ {
			if v.rng.Float64() < v.mutationRate {
				child.flip(i, j)
			}
		}
	}
	return child
}

// 单点交叉，第 c 行及之前来自 a，之后来自 b
func (v *Variation) crossover(a, b *Matrix) *Matrix {
	child := a.Clone()
	if child.Rows() == 0 {
		return child
	}

	c := v.rng.Intn(child.Rows())
	for i := c + 1; i < child.Rows(); i++ {
		for j := 0; j < child.Cols(); j++ {
			child.set(i, j, b.At(i, j))
		}
	}
	return child
}

// 随机选一行，整行重新随机生成
func (v *Variation) mutateRow(parent *Matrix) *Matrix {
	child := parent.Clone()
	if child.Rows() == 0 {
		return child
	}

	i := v.rng.Intn(child.Rows())
	for j := 0; j < child.Cols(); j++ {
		child.set(i, j, v.rng.Intn(2))
	}
	return child
}

// 随机选一列，整列翻转
func (v *Variation) mutateColumn(parent *Matrix) *Matrix {
	child := parent.Clone()
	if child.Cols() == 0 {
		return child
	}

	j := v.rng.Intn(child.Cols())
	for i := 0; i < child.Rows(); i++ {
		child.flip(i, j)
	}
	return child
}

// 对每个 section 重建这一列：有放回地抽 min_ta 次 TA，其余格子清零
// 重复抽到的 TA 只会占一个格子，所以结果可能少于 min_ta
func (v *Variation) repairSupport(parent *Matrix) *Matrix {
	child := parent.Clone()
	if child.Rows() == 0 {
		return child
	}

	for j := 0; j < child.Cols(); j++ {
		for i := 0; i < child.Rows(); i++ {
			child.set(i, j, 0)
		}
		for n := 0; n < v.tables.MinTA(j); n++ {
			child.set(v.rng.Intn(child.Rows()), j, 1)
		}
	}
	return child
}

// 清除所有 U 和 W 的分配，只保留 P
func (v *Variation) eliminateUnwanted(parent *Matrix) *Matrix {
	child := parent.Clone()
	for i := 0; i < child.Rows(); i++ {
		for j := 0; j < child.Cols(); j++ {
			p := v.tables.Preference(i, j)
			if child.At(i, j) == 1 && (p == domain.PreferenceUnwilling || p == domain.PreferenceWilling) {
				child.set(i, j, 0)
			}
		}
	}
	return child
}

// 对超额的 TA 随机去掉恰好 excess 个已分配的 section
// max_assigned 为负数时 excess 会超过已分配的数量，此时整行清零
func (v *Variation) eliminateOverallocation(parent *Matrix) *Matrix {
	child := parent.Clone()
	for i := 0; i < child.Rows(); i++ {
		excess := child.RowSum(i) - v.tables.MaxAssigned(i)
		if excess <= 0 {
			continue
		}

		assigned := child.assignedCols(i)
		excess = min(excess, len(assigned))
		v.rng.Shuffle(len(assigned), func(a, b int) {
			assigned[a], assigned[b] = assigned[b], assigned[a]
		})
		for _, j := range assigned[:excess] {
			child.set(i, j, 0)
		}
	}
	return child
}

// 对 max_assigned > 0 且整行为 0 的 TA 随机分配 1 或 2 个 section
func (v *Variation) ensureNonZero(parent *Matrix) *Matrix {
	child := parent.Clone()
	if child.Cols() == 0 {
		return child
	}

	for i := 0; i < child.Rows(); i++ {
		if v.tables.MaxAssigned(i) <= 0 || child.RowSum(i) > 0 {
			continue
		}

		n := min(v.rng.Intn(2)+1, child.Cols())
		for _, j := range v.rng.Perm(child.Cols())[:n] {
			child.set(i, j, 1)
		}
	}
	return child
}

// 把每个 U 分配挪到该 TA 一个非 U 且当前未分配的 section 上，没有可挪的位置就保持不变
func (v *Variation) reassignUnwilling(parent *Matrix) *Matrix {
	child := parent.Clone()
	for i := 0; i < child.Rows(); i++ {
		// 被清掉的格子是 U，不会成为新的候选，所以候选集只会减少
		candidates := []int{}
		for k := 0; k < child.Cols(); k++ {
			if v.tables.Preference(i, k) != domain.PreferenceUnwilling && child.At(i, k) == 0 {
				candidates = append(candidates, k)
			}
		}

		for j := 0; j < child.Cols(); j++ {
			if child.At(i, j) != 1 || v.tables.Preference(i, j) != domain.PreferenceUnwilling {
				continue
			}
			if len(candidates) == 0 {
				break
			}

			pick := v.rng.Intn(len(candidates))
			child.set(i, j, 0)
			child.set(i, candidates[pick], 1)

			candidates[pick] = candidates[len(candidates)-1]
			candidates = candidates[:len(candidates)-1]
		}
	}
	return child
}
