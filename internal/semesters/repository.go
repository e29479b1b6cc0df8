package semesters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/db"
	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Repository abstracts semester persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Semester, error)
	Current(ctx context.Context) (*Semester, error)
	List(ctx context.Context) ([]Semester, error)
	Create(ctx context.Context, sem Semester) (*Semester, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetCurrent(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const semesterColumns = `id, code, name, start_date, end_date, registration_start, registration_end, is_current, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Semester, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+semesterColumns+` FROM semesters WHERE id = $1`, id)
	sem, err := scanSemester(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sem, nil
}

func (r *repository) Current(ctx context.Context) (*Semester, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+semesterColumns+` FROM semesters WHERE is_current LIMIT 1`)
	sem, err := scanSemester(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sem, nil
}

func (r *repository) List(ctx context.Context) ([]Semester, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+semesterColumns+` FROM semesters ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sems []Semester
	for rows.Next() {
		sem, err := scanSemester(rows)
		if err != nil {
			return nil, err
		}
		sems = append(sems, *sem)
	}
	return sems, rows.Err()
}

func (r *repository) Create(ctx context.Context, sem Semester) (*Semester, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO semesters (code, name, start_date, end_date, registration_start, registration_end, is_current, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
		 RETURNING `+semesterColumns,
		sem.Code, sem.Name, sem.StartDate, sem.EndDate, sem.RegistrationStart, sem.RegistrationEnd)
	created, err := scanSemester(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: semester code already exists", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE semesters SET updated_at = NOW()"
	args := []any{}
	argPos := 1
	for _, col := range []string{"name", "start_date", "end_date", "registration_start", "registration_end"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SetCurrent flips the current flag atomically so two semesters are never
// current at once.
func (r *repository) SetCurrent(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE semesters SET is_current = FALSE, updated_at = NOW() WHERE is_current`); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE semesters SET is_current = TRUE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
}

func scanSemester(row pgx.Row) (*Semester, error) {
	var sem Semester
	if err := row.Scan(&sem.ID, &sem.Code, &sem.Name, &sem.StartDate, &sem.EndDate,
		&sem.RegistrationStart, &sem.RegistrationEnd, &sem.IsCurrent,
		&sem.CreatedAt, &sem.UpdatedAt); err != nil {
		return nil, err
	}
	return &sem, nil
}
