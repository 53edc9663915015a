package domain

type Section struct {
	ID         int64  `json:"id"`
	Index      int    `json:"index"` // 在分配矩阵中的列号
	Instructor string `json:"instructor"`
	Daytime    string `json:"daytime" validate:"required"`
	Location   string `json:"location"`
	Students   int    `json:"students" validate:"min=0"`
	Topic      string `json:"topic"`
	MinTA      int    `json:"minTA" validate:"min=0"`
	MaxTA      int    `json:"maxTA" validate:"min=0"`
}
