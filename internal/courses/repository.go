package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Repository abstracts course persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Course, error)
	List(ctx context.Context, filter ListFilter) ([]Course, int, error)
	Create(ctx context.Context, course Course) (*Course, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const courseColumns = `id, code, title, description, department_id, credit_hours, capacity, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Course, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	course, err := scanCourse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Course, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.DepartmentID > 0 {
		where += fmt.Sprintf(" AND department_id = $%d", argPos)
		args = append(args, filter.DepartmentID)
		argPos++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argPos)
		args = append(args, *filter.IsActive)
		argPos++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (code ILIKE $%d OR title ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM courses %s ORDER BY code LIMIT $%d OFFSET $%d`,
		courseColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *course)
	}
	return list, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, course Course) (*Course, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO courses (code, title, description, department_id, credit_hours, capacity, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING `+courseColumns,
		course.Code, course.Title, course.Description, course.DepartmentID,
		course.CreditHours, course.Capacity, course.IsActive)
	created, err := scanCourse(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("%w: course code already exists", httpx.ErrDuplicate)
			case "23503":
				return nil, fmt.Errorf("%w: department does not exist", httpx.ErrValidation)
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE courses SET updated_at = NOW()"
	args := []any{}
	argPos := 1
	for _, col := range []string{"title", "description", "credit_hours", "capacity", "is_active"} {
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

func scanCourse(row pgx.Row) (*Course, error) {
	var course Course
	if err := row.Scan(&course.ID, &course.Code, &course.Title, &course.Description,
		&course.DepartmentID, &course.CreditHours, &course.Capacity, &course.IsActive,
		&course.CreatedAt, &course.UpdatedAt); err != nil {
		return nil, err
	}
	return &course, nil
}
