package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

func (r *Repository) CreateRun(run *domain.AssignmentRun) error {
	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assignment_runs (name, group_label, parameters, status, message, notify_email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{run.Name, run.GroupLabel, parameters, run.Status, run.Message, run.NotifyEmail}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt, &run.Version)
}

const selectRun = `
	SELECT id, name, group_label, parameters, status, message, notify_email, created_at, finished_at, version
	FROM assignment_runs
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.AssignmentRun, error) {
	var run domain.AssignmentRun
	var parameters []byte
	var finishedAt sql.NullTime

	dst := []any{
		&run.ID,
		&run.Name,
		&run.GroupLabel,
		&parameters,
		&run.Status,
		&run.Message,
		&run.NotifyEmail,
		&run.CreatedAt,
		&finishedAt,
		&run.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}

func (r *Repository) GetRunByID(id int64) (*domain.AssignmentRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanRun(r.dbpool.QueryRowContext(ctx, selectRun+` WHERE id = $1`, id))
}

func (r *Repository) GetAllRuns() ([]*domain.AssignmentRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, selectRun+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*domain.AssignmentRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// UpdateRunStatus 更新运行状态，版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateRunStatus(run *domain.AssignmentRun) error {
	query := `
		UPDATE assignment_runs
		SET
			status = $1,
			message = $2,
			finished_at = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, run.Status, run.Message, run.FinishedAt, run.ID, run.Version).Scan(&run.Version)
}

// ReplaceRunSolutions 保存一次运行最终保留下来的种群
func (r *Repository) ReplaceRunSolutions(runID int64, solutions []domain.RunSolution) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_solutions WHERE run_id = $1`, runID); err != nil {
		return err
	}

	for i := range solutions {
		solution := &solutions[i]
		solution.RunID = runID

		assignment, err := json.Marshal(solution.Assignment)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO run_solutions (run_id, overallocation, conflicts, undersupport, unwilling, unpreferred, assignment)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		args := []any{
			runID,
			solution.Overallocation,
			solution.Conflicts,
			solution.Undersupport,
			solution.Unwilling,
			solution.Unpreferred,
			assignment,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&solution.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRunSolutions(runID int64) ([]domain.RunSolution, error) {
	query := `
		SELECT id, run_id, overallocation, conflicts, undersupport, unwilling, unpreferred, assignment
		FROM run_solutions
		WHERE run_id = $1
		ORDER BY overallocation, conflicts, undersupport, unwilling, unpreferred
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	solutions := []domain.RunSolution{}
	for rows.Next() {
		var solution domain.RunSolution
		var assignment []byte
		dst := []any{
			&solution.ID,
			&solution.RunID,
			&solution.Overallocation,
			&solution.Conflicts,
			&solution.Undersupport,
			&solution.Unwilling,
			&solution.Unpreferred,
			&assignment,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(assignment, &solution.Assignment); err != nil {
			return nil, err
		}
		solutions = append(solutions, solution)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return solutions, nil
}
