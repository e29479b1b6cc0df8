package departments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Repository abstracts department persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Department, error)
	List(ctx context.Context, filter ListFilter) ([]Department, int, error)
	Create(ctx context.Context, dept Department) (*Department, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const departmentColumns = `id, code, name, description, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Department, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id)
	dept, err := scanDepartment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dept, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Department, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM departments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM departments %s ORDER BY code LIMIT $%d OFFSET $%d`,
		departmentColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var depts []Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		depts = append(depts, *dept)
	}
	return depts, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, dept Department) (*Department, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO departments (code, name, description, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+departmentColumns,
		dept.Code, dept.Name, dept.Description, dept.IsActive)
	created, err := scanDepartment(row)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: department code already exists", httpx.ErrDuplicate)
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE departments SET updated_at = NOW()"
	args := []any{}
	argPos := 1
	for _, col := range []string{"name", "description", "is_active"} {
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

func scanDepartment(row pgx.Row) (*Department, error) {
	var dept Department
	if err := row.Scan(&dept.ID, &dept.Code, &dept.Name, &dept.Description,
		&dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return nil, err
	}
	return &dept, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
