package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Repository 是 handler 用到的存储操作，由 *repository.Repository 实现
type Repository interface {
	ReplaceTables(sections []domain.Section, tas []domain.TA) error
	GetAllSections() ([]domain.Section, error)
	GetAllTAs() ([]domain.TA, error)
	CreateRun(run *domain.AssignmentRun) error
	GetRunByID(id int64) (*domain.AssignmentRun, error)
	GetAllRuns() ([]*domain.AssignmentRun, error)
	UpdateRunStatus(run *domain.AssignmentRun) error
	GetRunSolutions(runID int64) ([]domain.RunSolution, error)
}

type Publisher interface {
	PublishJSON(queue string, v any) error
}

type ProgressReader interface {
	Get(runID int64) (*domain.RunProgress, error)
}

type Handler struct {
	validate          *validator.Validate
	config            *config.Config
	repository        Repository
	translator        ut.Translator
	publisher         Publisher
	progress          ProgressReader
	adminPasswordHash []byte

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, publisher Publisher, progress ProgressReader) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 管理员密码只存在于配置中，启动时计算一次哈希，之后登录都和哈希比较
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:          validate,
		config:            cfg,
		repository:        repo,
		translator:        trans,
		publisher:         publisher,
		progress:          progress,
		adminPasswordHash: passwordHash,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Put("/tables", h.ReplaceTables)
		r.Get("/sections", h.GetAllSections)
		r.Get("/tas", h.GetAllTAs)
		r.Post("/evaluate", h.Evaluate)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.CreateRun)
			r.Get("/", h.GetAllRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.run)
				r.Get("/", h.GetRun)
				r.Get("/progress", h.GetRunProgress)
				r.Get("/solutions", h.GetRunSolutions)
			})
		})
	})
}
