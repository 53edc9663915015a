package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

var ErrEmptyPopulation = errors.New("scheduler: population is empty")

var validate = validator.New(validator.WithRequiredStructEnabled())

func (p *Parameters) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.TimeLimit < 0 {
		return fmt.Errorf("时间上限不能为负数")
	}
	for _, agent := range p.Agents {
		if _, err := assignment.ParseAgent(agent.String()); err != nil {
			return err
		}
	}
	return nil
}

// ParametersFromRun 把存储在运行记录中的参数转换为进化参数
func ParametersFromRun(rp domain.RunParameters) (*Parameters, error) {
	parameters := &Parameters{
		MaxIterations:     rp.MaxIterations,
		DominanceInterval: rp.DominanceInterval,
		StatusInterval:    rp.StatusInterval,
		TimeLimit:         time.Duration(rp.TimeLimitSeconds) * time.Second,
		MutationRate:      rp.MutationRate,
		Seed:              rp.Seed,
		Agents:            make([]assignment.Agent, 0, len(rp.Agents)),
	}

	for _, name := range rp.Agents {
		agent, err := assignment.ParseAgent(name)
		if err != nil {
			return nil, err
		}
		parameters.Agents = append(parameters.Agents, agent)
	}

	return parameters, parameters.Validate()
}

type Scheduler struct {
	parameters *Parameters
	tables     *assignment.Tables
	rng        *rand.Rand
	variation  *assignment.Variation
	agents     []assignment.Agent
	pop        *population
	onStatus   StatusFunc
	iterations int
}

func New(parameters *Parameters, tables *assignment.Tables) (*Scheduler, error) {
	if err := parameters.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(parameters.Seed))
	variation, err := assignment.NewVariation(tables, rng, parameters.MutationRate)
	if err != nil {
		return nil, err
	}

	agents := parameters.Agents
	if len(agents) == 0 {
		agents = assignment.AllAgents()
	}

	return &Scheduler{
		parameters: parameters,
		tables:     tables,
		rng:        rng,
		variation:  variation,
		agents:     agents,
		pop:        newPopulation(),
	}, nil
}

// OnStatus 设置状态回调，每隔 StatusInterval 次迭代调用一次
func (s *Scheduler) OnStatus(fn StatusFunc) {
	s.onStatus = fn
}

// AddSolution 评估并加入一个解
func (s *Scheduler) AddSolution(m *assignment.Matrix) error {
	eval, err := s.tables.Evaluate(m)
	if err != nil {
		return err
	}
	s.pop.add(eval, m.Clone())
	return nil
}

// Schedule 运行进化直到达到最大迭代次数、时间上限或 ctx 被取消
func (s *Scheduler) Schedule(ctx context.Context) error {
	if s.pop.size() == 0 {
		return ErrEmptyPopulation
	}

	start := time.Now()
	var deadline time.Time
	if s.parameters.TimeLimit > 0 {
		deadline = start.Add(s.parameters.TimeLimit)
	}

	var runErr error
	for i := 0; i < s.parameters.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			slog.Info("已达到运行时间上限", "iteration", i, "timeLimit", s.parameters.TimeLimit)
			break
		}

		s.step()
		s.iterations = i + 1

		if i%s.parameters.DominanceInterval == 0 {
			s.pop.removeDominated()
		}

		if i%s.parameters.StatusInterval == 0 {
			s.pop.removeDominated()
			s.report(i, time.Since(start))
		}
	}

	s.pop.removeDominated()
	s.report(s.iterations, time.Since(start))

	return runErr
}

// step 随机选择一个 agent 和它所需数量的父代，生成并评估一个子代
func (s *Scheduler) step() {
	agent := s.agents[s.rng.Intn(len(s.agents))]

	parents := make([]*assignment.Matrix, agent.Arity())
	for k := range parents {
		parents[k] = s.pop.at(s.rng.Intn(s.pop.size()))
	}

	child, err := s.variation.Apply(agent, parents...)
	if err != nil {
		// 单次失败不应中断整个进化过程
		slog.Warn("agent 执行失败", "agent", agent.String(), "error", err)
		return
	}

	eval, err := s.tables.Evaluate(child)
	if err != nil {
		slog.Warn("子代评估失败", "agent", agent.String(), "error", err)
		return
	}

	s.pop.add(eval, child)
}

func (s *Scheduler) report(iteration int, elapsed time.Duration) {
	status := Status{
		Iteration:      iteration,
		Elapsed:        elapsed,
		PopulationSize: s.pop.size(),
		Best:           s.pop.best(),
	}

	slog.Info("进化状态", "iteration", status.Iteration, "elapsed", status.Elapsed, "population", status.PopulationSize, "best", status.Best.String())

	if s.onStatus != nil {
		s.onStatus(status)
	}
}

// Iterations 返回已经完成的迭代次数
func (s *Scheduler) Iterations() int {
	return s.iterations
}

// Solutions 返回当前种群中的所有解（已复制），按评估向量排序
func (s *Scheduler) Solutions() []Solution {
	return s.pop.sorted()
}

// Population 以评估向量为键返回当前种群（已复制）
func (s *Scheduler) Population() map[assignment.Evaluation]*assignment.Matrix {
	result := make(map[assignment.Evaluation]*assignment.Matrix, s.pop.size())
	for _, e := range s.pop.order {
		result[e] = s.pop.solutions[e].Clone()
	}
	return result
}
