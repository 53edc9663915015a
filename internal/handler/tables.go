package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/utils"
)

var errNoTables = errors.New("请先上传 section 和 TA")

func (h *Handler) ReplaceTables(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sections []domain.Section `json:"sections" validate:"required,dive"`
		TAs      []domain.TA      `json:"tas" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateTables(req.Sections, req.TAs); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 请求中的顺序就是矩阵的行列顺序
	for j := range req.Sections {
		req.Sections[j].Index = j
	}
	for i := range req.TAs {
		req.TAs[i].Index = i
	}

	if err := h.repository.ReplaceTables(req.Sections, req.TAs); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新 section 和 TA 成功", map[string]any{
		"sections": req.Sections,
		"tas":      req.TAs,
	})
}

func (h *Handler) GetAllSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.repository.GetAllSections()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取 section 成功", sections)
}

func (h *Handler) GetAllTAs(w http.ResponseWriter, r *http.Request) {
	tas, err := h.repository.GetAllTAs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取 TA 成功", tas)
}

// 从数据库中读取参考数据，还没有上传过时返回 errNoTables
func (h *Handler) loadTables() (*assignment.Tables, error) {
	sections, err := h.repository.GetAllSections()
	if err != nil {
		return nil, err
	}
	tas, err := h.repository.GetAllTAs()
	if err != nil {
		return nil, err
	}

	if len(sections) == 0 || len(tas) == 0 {
		return nil, errNoTables
	}

	return assignment.NewTables(sections, tas)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assignment [][]int `json:"assignment" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tables, err := h.loadTables()
	if err != nil {
		switch {
		case errors.Is(err, errNoTables):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	m, err := assignment.MatrixFromRows(req.Assignment)
	if err != nil {
		h.errorResponse(w, r, "分配矩阵格式错误")
		return
	}

	eval, err := tables.Evaluate(m)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrShapeMismatch):
			h.errorResponse(w, r, "分配矩阵的行列数和 TA、section 的数量不匹配")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "评估成功", eval.Pairs())
}
