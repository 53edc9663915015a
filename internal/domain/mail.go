package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeRunFinished = "run_finished"
	MailTypeRunFailed   = "run_failed"
)

type RunFinishedMailData struct {
	RunID          int64   `json:"runID"`
	RunName        string  `json:"runName"`
	SolutionCount  int     `json:"solutionCount"`
	Iterations     int     `json:"iterations"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Best           []int   `json:"best"`
}

type RunFailedMailData struct {
	RunID   int64  `json:"runID"`
	RunName string `json:"runName"`
	Reason  string `json:"reason"`
}
