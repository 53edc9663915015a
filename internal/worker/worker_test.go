package worker_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/worker"
)

type fakeRepository struct {
	runs      map[int64]*domain.AssignmentRun
	sections  []domain.Section
	tas       []domain.TA
	solutions map[int64][]domain.RunSolution
	statuses  []domain.RunStatus
}

func (f *fakeRepository) GetRunByID(id int64) (*domain.AssignmentRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *run
	return &copied, nil
}

func (f *fakeRepository) UpdateRunStatus(run *domain.AssignmentRun) error {
	copied := *run
	f.runs[run.ID] = &copied
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func (f *fakeRepository) GetAllSections() ([]domain.Section, error) { return f.sections, nil }

func (f *fakeRepository) GetAllTAs() ([]domain.TA, error) { return f.tas, nil }

func (f *fakeRepository) ReplaceRunSolutions(runID int64, solutions []domain.RunSolution) error {
	f.solutions[runID] = solutions
	return nil
}

type fakeProgress struct {
	saved []domain.RunProgress
}

func (f *fakeProgress) Save(p *domain.RunProgress) error {
	f.saved = append(f.saved, *p)
	return nil
}

type fakePublisher struct {
	queues   []string
	messages []domain.MailMessage
}

func (f *fakePublisher) PublishJSON(queue string, v any) error {
	f.queues = append(f.queues, queue)
	f.messages = append(f.messages, v.(domain.MailMessage))
	return nil
}

type fakeAcknowledger struct {
	acked    int
	requeued int
	dropped  int
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	if requeue {
		f.requeued++
	} else {
		f.dropped++
	}
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type fixture struct {
	worker    *worker.Worker
	repo      *fakeRepository
	progress  *fakeProgress
	publisher *fakePublisher
	outputDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo: &fakeRepository{
			runs: map[int64]*domain.AssignmentRun{},
			sections: []domain.Section{
				{Daytime: "R 1145-125", MinTA: 2},
				{Daytime: "R 1145-125", MinTA: 1},
				{Daytime: "W 950-1130", MinTA: 3},
			},
			tas: []domain.TA{
				{MaxAssigned: 1, Preferences: domain.ParsePreferences("PWU")},
				{MaxAssigned: 2, Preferences: domain.ParsePreferences("UUP")},
				{MaxAssigned: 0, Preferences: domain.ParsePreferences("WPP")},
				{MaxAssigned: 3, Preferences: domain.ParsePreferences("PPW")},
			},
			solutions: map[int64][]domain.RunSolution{},
		},
		progress:  &fakeProgress{},
		publisher: &fakePublisher{},
		outputDir: t.TempDir(),
	}

	cfg := &config.Config{}
	cfg.RabbitMQ.EmailQueue = "email_queue"
	cfg.Report.OutputDir = f.outputDir

	f.worker = worker.New(cfg, f.repo, f.progress, f.publisher)
	return f
}

func (f *fixture) addRun(id int64, status domain.RunStatus) {
	f.repo.runs[id] = &domain.AssignmentRun{
		ID:          id,
		Name:        "run",
		GroupLabel:  "ecnc",
		Status:      status,
		NotifyEmail: "admin@example.com",
		Parameters: domain.RunParameters{
			MaxIterations:     300,
			DominanceInterval: 10,
			StatusInterval:    100,
			MutationRate:      0.2,
			Seed:              7,
		},
	}
}

func body(runID int64) []byte {
	data, _ := json.Marshal(domain.RunRequestMessage{RunID: runID})
	return data
}

func TestHandleFinishesRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRun(1, domain.RunStatusPending)

	require.NoError(t, f.worker.Handle(context.Background(), body(1)))

	run := f.repo.runs[1]
	assert.Equal(t, domain.RunStatusFinished, run.Status)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, []domain.RunStatus{domain.RunStatusRunning, domain.RunStatusFinished}, f.repo.statuses)

	solutions := f.repo.solutions[1]
	require.NotEmpty(t, solutions)
	for _, s := range solutions {
		require.Len(t, s.Assignment, 4)
	}

	// 迭代 0、100、200 各一次，结束时再汇报一次
	require.Len(t, f.progress.saved, 4)
	last := f.progress.saved[3]
	assert.Equal(t, 300, last.Iteration)
	assert.Len(t, last.Best, 5)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, "email_queue", f.publisher.queues[0])
	assert.Equal(t, domain.MailTypeRunFinished, f.publisher.messages[0].Type)
	data := f.publisher.messages[0].Data.(domain.RunFinishedMailData)
	assert.Equal(t, len(solutions), data.SolutionCount)
	assert.Equal(t, 300, data.Iterations)

	_, err := os.Stat(filepath.Join(f.outputDir, "1", "ecnc_summary.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.outputDir, "1", "ecnc_solutions.csv"))
	require.NoError(t, err)
}

func TestHandleIsReproducible(t *testing.T) {
	t.Parallel()

	run := func() []domain.RunSolution {
		f := newFixture(t)
		f.addRun(1, domain.RunStatusPending)
		require.NoError(t, f.worker.Handle(context.Background(), body(1)))
		return f.repo.solutions[1]
	}

	assert.Equal(t, run(), run())
}

func TestHandleFailsWithoutTables(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.repo.tas = nil
	f.addRun(1, domain.RunStatusPending)

	require.NoError(t, f.worker.Handle(context.Background(), body(1)))

	run := f.repo.runs[1]
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Message)
	assert.Empty(t, f.repo.solutions)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, domain.MailTypeRunFailed, f.publisher.messages[0].Type)
}

func TestHandleFailsWithBadParameters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRun(1, domain.RunStatusPending)
	f.repo.runs[1].Parameters.Agents = []string{"magic"}
	f.repo.runs[1].NotifyEmail = ""

	require.NoError(t, f.worker.Handle(context.Background(), body(1)))
	assert.Equal(t, domain.RunStatusFailed, f.repo.runs[1].Status)
	assert.Empty(t, f.publisher.messages)
}

func TestHandleInvalidMessages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.worker.Handle(context.Background(), []byte("not json"))
	require.ErrorIs(t, err, worker.ErrInvalidMessage)

	err = f.worker.Handle(context.Background(), body(42))
	require.ErrorIs(t, err, worker.ErrInvalidMessage)
}

func TestHandleSkipsProcessedRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRun(1, domain.RunStatusFinished)

	require.NoError(t, f.worker.Handle(context.Background(), body(1)))
	assert.Empty(t, f.repo.statuses)
	assert.Empty(t, f.progress.saved)
}

func TestHandleCancelledRestoresPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRun(1, domain.RunStatusPending)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.worker.Handle(ctx, body(1))
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, worker.ErrInvalidMessage)
	assert.Equal(t, domain.RunStatusPending, f.repo.runs[1].Status)
	assert.Empty(t, f.publisher.messages)
}

func TestConsume(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addRun(1, domain.RunStatusPending)

	ack := &fakeAcknowledger{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: ack, Body: body(1)}
	deliveries <- amqp.Delivery{Acknowledger: ack, Body: []byte("{")}
	deliveries <- amqp.Delivery{Acknowledger: ack, Body: body(1)}
	close(deliveries)

	f.worker.Consume(context.Background(), deliveries)

	// 第二次投递的运行已经完成，直接确认
	assert.Equal(t, 2, ack.acked)
	assert.Equal(t, 1, ack.dropped)
	assert.Equal(t, 0, ack.requeued)
	assert.Equal(t, domain.RunStatusFinished, f.repo.runs[1].Status)
}

func TestConsumeStopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		f.worker.Consume(ctx, make(chan amqp.Delivery))
		close(done)
	}()
	<-done
}
