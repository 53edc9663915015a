package domain

import "time"

type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

type RunParameters struct {
	MaxIterations     int      `json:"maxIterations"`
	DominanceInterval int      `json:"dominanceInterval"`
	StatusInterval    int      `json:"statusInterval"`
	TimeLimitSeconds  int      `json:"timeLimitSeconds"` // 0 表示不限制
	MutationRate      float64  `json:"mutationRate"`
	Seed              int64    `json:"seed"`
	Agents            []string `json:"agents"` // 为空表示启用所有 agent
}

type AssignmentRun struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	GroupLabel  string        `json:"groupLabel"`
	Parameters  RunParameters `json:"parameters"`
	Status      RunStatus     `json:"status"`
	Message     string        `json:"message"`
	NotifyEmail string        `json:"notifyEmail"`
	CreatedAt   time.Time     `json:"createdAt"`
	FinishedAt  *time.Time    `json:"finishedAt"`
	Version     int32         `json:"-"`
}

type RunSolution struct {
	ID             int64   `json:"id"`
	RunID          int64   `json:"runID"`
	Overallocation int     `json:"overallocation"`
	Conflicts      int     `json:"conflicts"`
	Undersupport   int     `json:"undersupport"`
	Unwilling      int     `json:"unwilling"`
	Unpreferred    int     `json:"unpreferred"`
	Assignment     [][]int `json:"assignment"`
}

// RunProgress 是 worker 写入 redis 的运行进度
type RunProgress struct {
	RunID          int64     `json:"runID"`
	Iteration      int       `json:"iteration"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	PopulationSize int       `json:"populationSize"`
	Best           []int     `json:"best"` // 各目标当前种群中的最小值，顺序同目标函数注册顺序
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RunRequestMessage struct {
	RunID int64 `json:"runID"`
}
