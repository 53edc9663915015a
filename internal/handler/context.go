package handler

type ContextKey string

var (
	SubCtxKey ContextKey = "sub"
	RunCtx    ContextKey = "run"
)
