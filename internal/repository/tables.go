package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

// ReplaceTables 用新的 section 表和 TA 表整体替换旧数据
// 两张表的行列必须一起替换，否则偏好列会对不上
func (r *Repository) ReplaceTables(sections []domain.Section, tas []domain.TA) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tas`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections`); err != nil {
		return err
	}

	for i := range sections {
		section := &sections[i]
		query := `
			INSERT INTO sections (idx, instructor, daytime, location, students, topic, min_ta, max_ta)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		args := []any{
			section.Index,
			section.Instructor,
			section.Daytime,
			section.Location,
			section.Students,
			section.Topic,
			section.MinTA,
			section.MaxTA,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&section.ID); err != nil {
			return err
		}
	}

	for i := range tas {
		ta := &tas[i]
		query := `
			INSERT INTO tas (idx, name, username, max_assigned, preferences)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query, ta.Index, ta.Name, ta.Username, ta.MaxAssigned, ta.PreferenceString()).Scan(&ta.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllSections() ([]domain.Section, error) {
	query := `
		SELECT id, idx, instructor, daytime, location, students, topic, min_ta, max_ta
		FROM sections
		ORDER BY idx
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []domain.Section{}
	for rows.Next() {
		var section domain.Section
		dst := []any{
			&section.ID,
			&section.Index,
			&section.Instructor,
			&section.Daytime,
			&section.Location,
			&section.Students,
			&section.Topic,
			&section.MinTA,
			&section.MaxTA,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *Repository) GetAllTAs() ([]domain.TA, error) {
	query := `
		SELECT id, idx, name, username, max_assigned, preferences
		FROM tas
		ORDER BY idx
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tas := []domain.TA{}
	for rows.Next() {
		var ta domain.TA
		var preferences string
		if err := rows.Scan(&ta.ID, &ta.Index, &ta.Name, &ta.Username, &ta.MaxAssigned, &preferences); err != nil {
			return nil, err
		}
		ta.Preferences = domain.ParsePreferences(preferences)
		tas = append(tas, ta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tas, nil
}
