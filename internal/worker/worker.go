package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/report"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/scheduler"
)

// ErrInvalidMessage 表示消息本身有问题，重新入队也无法处理
var ErrInvalidMessage = errors.New("worker: invalid message")

type Repository interface {
	GetRunByID(id int64) (*domain.AssignmentRun, error)
	UpdateRunStatus(run *domain.AssignmentRun) error
	GetAllSections() ([]domain.Section, error)
	GetAllTAs() ([]domain.TA, error)
	ReplaceRunSolutions(runID int64, solutions []domain.RunSolution) error
}

type ProgressWriter interface {
	Save(p *domain.RunProgress) error
}

type Publisher interface {
	PublishJSON(queue string, v any) error
}

type Worker struct {
	config     *config.Config
	repository Repository
	progress   ProgressWriter
	publisher  Publisher
}

func New(cfg *config.Config, repo Repository, progress ProgressWriter, publisher Publisher) *Worker {
	return &Worker{
		config:     cfg,
		repository: repo,
		progress:   progress,
		publisher:  publisher,
	}
}

// Consume 逐条处理运行请求，直到 ctx 被取消或通道关闭
// 一次只执行一个运行，进化过程会占满一个 CPU
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				slog.Warn("消息通道已关闭")
				return
			}

			slog.Info("收到运行请求", slog.String("message", string(d.Body)))
			err := w.Handle(ctx, d.Body)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, ErrInvalidMessage):
				slog.Error("无法处理的运行请求", slog.String("error", err.Error()))
				_ = d.Nack(false, false)
			default:
				slog.Error("运行请求处理失败，重新入队", slog.String("error", err.Error()))
				_ = d.Nack(false, true)
			}
		}
	}
}

type outcome struct {
	solutions []domain.RunSolution
	status    scheduler.Status
}

// Handle 执行一条运行请求
// 返回 nil 表示消息已经处理完毕（包括运行失败的情况），其它错误表示稍后应重试
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	msg := domain.RunRequestMessage{}
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	run, err := w.repository.GetRunByID(msg.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: run %d not found", ErrInvalidMessage, msg.RunID)
		}
		return err
	}

	// 消息可能被重复投递
	if run.Status != domain.RunStatusPending {
		slog.Warn("运行已被处理过，忽略", slog.Int64("runID", run.ID), slog.String("status", string(run.Status)))
		return nil
	}

	run.Status = domain.RunStatusRunning
	if err := w.repository.UpdateRunStatus(run); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 版本号不一致，说明另一个 worker 已经接手
			return nil
		}
		return err
	}

	slog.Info("开始运行", slog.Int64("runID", run.ID), slog.String("name", run.Name))
	result, runErr := w.execute(ctx, run)

	if runErr != nil && ctx.Err() != nil {
		// worker 正在退出，把运行放回等待状态，由重新入队的消息继续执行
		run.Status = domain.RunStatusPending
		if err := w.repository.UpdateRunStatus(run); err != nil {
			slog.Error("无法恢复运行状态", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		}
		return ctx.Err()
	}

	if runErr == nil {
		runErr = w.repository.ReplaceRunSolutions(run.ID, result.solutions)
	}

	finishedAt := time.Now()
	run.FinishedAt = &finishedAt

	if runErr != nil {
		slog.Error("运行失败", slog.Int64("runID", run.ID), slog.String("error", runErr.Error()))
		run.Status = domain.RunStatusFailed
		run.Message = runErr.Error()
		if err := w.repository.UpdateRunStatus(run); err != nil {
			return err
		}
		w.notify(run, domain.MailTypeRunFailed, domain.RunFailedMailData{
			RunID:   run.ID,
			RunName: run.Name,
			Reason:  run.Message,
		})
		return nil
	}

	w.writeReport(run, result.solutions)

	run.Status = domain.RunStatusFinished
	run.Message = fmt.Sprintf("共 %d 个非支配解", len(result.solutions))
	if err := w.repository.UpdateRunStatus(run); err != nil {
		return err
	}

	slog.Info("运行完成", slog.Int64("runID", run.ID), slog.Int("solutions", len(result.solutions)), slog.Int("iterations", result.status.Iteration))

	w.notify(run, domain.MailTypeRunFinished, domain.RunFinishedMailData{
		RunID:          run.ID,
		RunName:        run.Name,
		SolutionCount:  len(result.solutions),
		Iterations:     result.status.Iteration,
		ElapsedSeconds: result.status.Elapsed.Seconds(),
		Best:           result.status.Best.Slice(),
	})
	return nil
}

func (w *Worker) execute(ctx context.Context, run *domain.AssignmentRun) (*outcome, error) {
	sections, err := w.repository.GetAllSections()
	if err != nil {
		return nil, err
	}
	tas, err := w.repository.GetAllTAs()
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 || len(tas) == 0 {
		return nil, errors.New("没有 section 或 TA 数据")
	}

	tables, err := assignment.NewTables(sections, tas)
	if err != nil {
		return nil, err
	}

	parameters, err := scheduler.ParametersFromRun(run.Parameters)
	if err != nil {
		return nil, err
	}

	s, err := scheduler.New(parameters, tables)
	if err != nil {
		return nil, err
	}

	result := &outcome{}
	s.OnStatus(func(status scheduler.Status) {
		result.status = status
		p := &domain.RunProgress{
			RunID:          run.ID,
			Iteration:      status.Iteration,
			ElapsedSeconds: status.Elapsed.Seconds(),
			PopulationSize: status.PopulationSize,
			Best:           status.Best.Slice(),
			UpdatedAt:      time.Now(),
		}
		// 进度只用于展示，写入失败不影响运行
		if err := w.progress.Save(p); err != nil {
			slog.Warn("无法保存运行进度", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		}
	})

	// 从全零的分配开始进化
	if err := s.AddSolution(tables.ZeroMatrix()); err != nil {
		return nil, err
	}
	if err := s.Schedule(ctx); err != nil {
		return nil, err
	}

	result.solutions = report.FromSchedule(s.Solutions())
	return result, nil
}

// 结果文件写在 <OutputDir>/<runID>/ 下，失败只记录日志
func (w *Worker) writeReport(run *domain.AssignmentRun, solutions []domain.RunSolution) {
	if w.config.Report.OutputDir == "" {
		return
	}

	dir := filepath.Join(w.config.Report.OutputDir, strconv.FormatInt(run.ID, 10))
	summaryPath, solutionsPath, err := report.WriteFiles(dir, run.GroupLabel, solutions)
	if err != nil {
		slog.Warn("无法写入结果文件", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		return
	}
	slog.Info("结果文件已写入", slog.String("summary", summaryPath), slog.String("solutions", solutionsPath))
}

func (w *Worker) notify(run *domain.AssignmentRun, mailType string, data any) {
	if run.NotifyEmail == "" {
		return
	}

	mailMessage := domain.MailMessage{
		Type: mailType,
		To:   run.NotifyEmail,
		Data: data,
	}
	if err := w.publisher.PublishJSON(w.config.RabbitMQ.EmailQueue, mailMessage); err != nil {
		slog.Error("无法发送通知邮件到消息队列", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
	}
}
