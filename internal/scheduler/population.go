package scheduler

import (
	"math"
	"slices"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
)

// population 以评估向量为键保存解
// order 记录插入顺序，保证相同种子下选择父代的结果可复现
type population struct {
	solutions map[assignment.Evaluation]*assignment.Matrix
	order     []assignment.Evaluation
}

func newPopulation() *population {
	return &population{
		solutions: make(map[assignment.Evaluation]*assignment.Matrix),
		order:     make([]assignment.Evaluation, 0),
	}
}

func (p *population) size() int {
	return len(p.order)
}

// add 加入一个解，评估向量相同时后来的解覆盖先前的解
func (p *population) add(eval assignment.Evaluation, m *assignment.Matrix) {
	if _, exists := p.solutions[eval]; !exists {
		p.order = append(p.order, eval)
	}
	p.solutions[eval] = m
}

func (p *population) at(i int) *assignment.Matrix {
	return p.solutions[p.order[i]]
}

// removeDominated 剔除被种群中其它解支配的解
func (p *population) removeDominated() {
	kept := make([]assignment.Evaluation, 0, len(p.order))
	for _, e := range p.order {
		dominated := false
		for _, other := range p.order {
			if other.Dominates(e) {
				dominated = true
				break
			}
		}
		if dominated {
			delete(p.solutions, e)
			continue
		}
		kept = append(kept, e)
	}
	p.order = kept
}

// best 返回每个目标各自的最小值
func (p *population) best() assignment.Evaluation {
	var best assignment.Evaluation
	if len(p.order) == 0 {
		return best
	}

	for i := range best {
		best[i] = math.MaxInt
	}
	for _, e := range p.order {
		for i := range best {
			best[i] = min(best[i], e[i])
		}
	}
	return best
}

// sorted 按评估向量的字典序返回所有解
func (p *population) sorted() []Solution {
	solutions := make([]Solution, 0, len(p.order))
	for _, e := range p.order {
		solutions = append(solutions, Solution{Evaluation: e, Matrix: p.solutions[e].Clone()})
	}
	slices.SortFunc(solutions, func(a, b Solution) int {
		switch {
		case a.Evaluation.Less(b.Evaluation):
			return -1
		case b.Evaluation.Less(a.Evaluation):
			return 1
		default:
			return 0
		}
	})
	return solutions
}
