package scheduler

import (
	"time"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
)

// 进化参数
type Parameters struct {
	MaxIterations     int                `validate:"required,min=1"` // 最大迭代次数
	DominanceInterval int                `validate:"required,min=1"` // 每隔多少次迭代剔除被支配的解
	StatusInterval    int                `validate:"required,min=1"` // 每隔多少次迭代汇报一次状态
	TimeLimit         time.Duration      // 运行时间上限，0 表示不限制
	MutationRate      float64            `validate:"min=0,max=1"` // 逐格变异概率
	Seed              int64              // 随机数种子
	Agents            []assignment.Agent // 参与进化的 agent，为空表示全部
}

// Solution 是种群中保留下来的一个解
type Solution struct {
	Evaluation assignment.Evaluation
	Matrix     *assignment.Matrix
}

// Status 是运行过程中的状态快照
type Status struct {
	Iteration      int
	Elapsed        time.Duration
	PopulationSize int
	Best           assignment.Evaluation // 种群中每个目标各自的最小值
}

type StatusFunc func(Status)
