package programs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Repository abstracts program persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Program, error)
	List(ctx context.Context, filter ListFilter) ([]Program, int, error)
	Create(ctx context.Context, prog Program) (*Program, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const programColumns = `id, code, name, department_id, degree_level, credit_hours, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Program, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+programColumns+` FROM programs WHERE id = $1`, id)
	prog, err := scanProgram(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Program, int, error) {
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
		where += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM programs `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM programs %s ORDER BY code LIMIT $%d OFFSET $%d`,
		programColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var progs []Program
	for rows.Next() {
		prog, err := scanProgram(rows)
		if err != nil {
			return nil, 0, err
		}
		progs = append(progs, *prog)
	}
	return progs, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, prog Program) (*Program, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO programs (code, name, department_id, degree_level, credit_hours, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+programColumns,
		prog.Code, prog.Name, prog.DepartmentID, prog.DegreeLevel, prog.CreditHours, prog.IsActive)
	created, err := scanProgram(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("%w: program code already exists", httpx.ErrDuplicate)
			case "23503":
				return nil, fmt.Errorf("%w: department does not exist", httpx.ErrValidation)
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE programs SET updated_at = NOW()"
	args := []any{}
	argPos := 1
	for _, col := range []string{"name", "degree_level", "credit_hours", "is_active"} {
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

func scanProgram(row pgx.Row) (*Program, error) {
	var prog Program
	if err := row.Scan(&prog.ID, &prog.Code, &prog.Name, &prog.DepartmentID, &prog.DegreeLevel,
		&prog.CreditHours, &prog.IsActive, &prog.CreatedAt, &prog.UpdatedAt); err != nil {
		return nil, err
	}
	return &prog, nil
}
