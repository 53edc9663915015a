package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/progress"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/scheduler"
)

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	// 请求中没有给出的参数沿用配置中的默认值
	parameters := h.config.Scheduler.RunParameters()

	var req struct {
		Name        string                `json:"name" validate:"required,max=100"`
		GroupLabel  string                `json:"groupLabel" validate:"omitempty,alphanum,max=50"`
		NotifyEmail string                `json:"notifyEmail" validate:"omitempty,email"`
		Parameters  *domain.RunParameters `json:"parameters"`
	}
	req.Parameters = &parameters

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Parameters == nil {
		req.Parameters = &parameters
	}
	if _, err := scheduler.ParametersFromRun(*req.Parameters); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.GroupLabel == "" {
		req.GroupLabel = h.config.Report.GroupLabel
	}

	// 没有参考数据的运行必然失败，提前拒绝
	if _, err := h.loadTables(); err != nil {
		switch {
		case errors.Is(err, errNoTables):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	run := &domain.AssignmentRun{
		Name:        req.Name,
		GroupLabel:  req.GroupLabel,
		Parameters:  *req.Parameters,
		Status:      domain.RunStatusPending,
		NotifyEmail: req.NotifyEmail,
	}
	if err := h.repository.CreateRun(run); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "assignment_runs_name_key":
				h.errorResponse(w, r, "运行名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 发送到消息队列中，由 worker 执行
	if err := h.publisher.PublishJSON(h.config.RabbitMQ.AssignmentQueue, domain.RunRequestMessage{RunID: run.ID}); err != nil {
		finishedAt := time.Now()
		run.Status = domain.RunStatusFailed
		run.Message = "无法提交到消息队列"
		run.FinishedAt = &finishedAt
		if updateErr := h.repository.UpdateRunStatus(run); updateErr != nil {
			slog.Error("无法更新运行状态", "runID", run.ID, "error", updateErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已提交运行", run)
}

func (h *Handler) GetAllRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetAllRuns()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有运行成功", runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.AssignmentRun)

	h.successResponse(w, r, "获取运行成功", run)
}

func (h *Handler) GetRunProgress(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.AssignmentRun)

	p, err := h.progress.Get(run.ID)
	if err != nil {
		switch {
		case errors.Is(err, progress.ErrNotFound):
			h.successResponse(w, r, "暂无进度", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取运行进度成功", p)
}

func (h *Handler) GetRunSolutions(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.AssignmentRun)

	solutions, err := h.repository.GetRunSolutions(run.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取运行结果成功", solutions)
}
