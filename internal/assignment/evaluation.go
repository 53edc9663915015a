package assignment

import (
	"fmt"
	"strings"
)

// Evaluation 是一个解的评估向量，下标即 Objective
// 定长数组可以直接比较和作为 map 的键
type Evaluation [NumObjectives]int

type ScorePair struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (e Evaluation) Get(o Objective) int {
	return e[o]
}

// Pairs 按注册顺序返回 (目标名, 分数) 对
func (e Evaluation) Pairs() []ScorePair {
	pairs := make([]ScorePair, NumObjectives)
	for i, v := range e {
		pairs[i] = ScorePair{Name: Objective(i).String(), Score: v}
	}
	return pairs
}

// Dominates 判断 e 是否支配 other：每个目标都不差，且至少一个目标严格更好
func (e Evaluation) Dominates(other Evaluation) bool {
	better := false
	for i := range e {
		if e[i] > other[i] {
			return false
		}
		if e[i] < other[i] {
			better = true
		}
	}
	return better
}

// Less 按字典序比较，用于输出时的稳定排序
func (e Evaluation) Less(other Evaluation) bool {
	for i := range e {
		if e[i] != other[i] {
			return e[i] < other[i]
		}
	}
	return false
}

func (e Evaluation) Slice() []int {
	return append([]int{}, e[:]...)
}

func (e Evaluation) String() string {
	parts := make([]string, NumObjectives)
	for i, v := range e {
		parts[i] = fmt.Sprintf("%s=%d", Objective(i), v)
	}
	return strings.Join(parts, " ")
}
