package enrollments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Repository abstracts enrollment persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Enrollment, error)
	List(ctx context.Context, filter ListFilter) ([]Enrollment, int, error)
	Create(ctx context.Context, enr Enrollment) (*Enrollment, error)
	SetStatus(ctx context.Context, id int64, status string) error
	SetGrade(ctx context.Context, id int64, grade, status string) error
	CountActive(ctx context.Context, courseID, semesterID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const enrollmentColumns = `id, student_id, course_id, semester_id, status, grade, enrolled_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)
	enr, err := scanEnrollment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return enr, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Enrollment, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	add := func(clause string, value any) {
		where += fmt.Sprintf(" AND %s = $%d", clause, argPos)
		args = append(args, value)
		argPos++
	}
	if filter.StudentID > 0 {
		add("student_id", filter.StudentID)
	}
	if filter.CourseID > 0 {
		add("course_id", filter.CourseID)
	}
	if filter.SemesterID > 0 {
		add("semester_id", filter.SemesterID)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM enrollments %s ORDER BY enrolled_at DESC LIMIT $%d OFFSET $%d`,
		enrollmentColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Enrollment
	for rows.Next() {
		enr, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *enr)
	}
	return list, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, enr Enrollment) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO enrollments (student_id, course_id, semester_id, status, enrolled_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+enrollmentColumns,
		enr.StudentID, enr.CourseID, enr.SemesterID, enr.Status)
	created, err := scanEnrollment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("%w: student already enrolled in this offering", httpx.ErrDuplicate)
			case "23503":
				return nil, fmt.Errorf("%w: unknown student, course, or semester", httpx.ErrValidation)
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE enrollments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SetGrade(ctx context.Context, id int64, grade, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE enrollments SET grade = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		grade, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) CountActive(ctx context.Context, courseID, semesterID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND semester_id = $2 AND status = $3`,
		courseID, semesterID, StatusEnrolled).Scan(&count)
	return count, err
}

func scanEnrollment(row pgx.Row) (*Enrollment, error) {
	var enr Enrollment
	if err := row.Scan(&enr.ID, &enr.StudentID, &enr.CourseID, &enr.SemesterID,
		&enr.Status, &enr.Grade, &enr.EnrolledAt, &enr.UpdatedAt); err != nil {
		return nil, err
	}
	return &enr, nil
}
