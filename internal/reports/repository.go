package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Repository runs report aggregations and stores snapshots.
type Repository interface {
	CourseEnrollment(ctx context.Context, semesterID int64) ([]CourseEnrollmentRow, error)
	DepartmentHeadcount(ctx context.Context) ([]DepartmentHeadcountRow, error)
	CreateSnapshot(ctx context.Context, snap Snapshot) error
	GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	CompleteSnapshot(ctx context.Context, id uuid.UUID, payload []byte) error
	FailSnapshot(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CourseEnrollment(ctx context.Context, semesterID int64) ([]CourseEnrollmentRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.code, c.title, COUNT(e.id) FILTER (WHERE e.status = 'enrolled'), c.capacity
		 FROM courses c
		 LEFT JOIN enrollments e ON e.course_id = c.id AND e.semester_id = $1
		 WHERE c.is_active
		 GROUP BY c.id, c.code, c.title, c.capacity
		 ORDER BY c.code`, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseEnrollmentRow
	for rows.Next() {
		var row CourseEnrollmentRow
		if err := rows.Scan(&row.CourseID, &row.CourseCode, &row.Title, &row.Enrolled, &row.Capacity); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) DepartmentHeadcount(ctx context.Context) ([]DepartmentHeadcountRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.id, d.code, d.name, COUNT(DISTINCT e.student_id)
		 FROM departments d
		 JOIN courses c ON c.department_id = d.id
		 JOIN enrollments e ON e.course_id = c.id AND e.status = 'enrolled'
		 GROUP BY d.id, d.code, d.name
		 ORDER BY d.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentHeadcountRow
	for rows.Next() {
		var row DepartmentHeadcountRow
		if err := rows.Scan(&row.DepartmentID, &row.DepartmentCode, &row.Name, &row.Students); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) CreateSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO report_snapshots (id, kind, semester_id, status, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		snap.ID, snap.Kind, snap.SemesterID, snap.Status)
	return err
}

func (r *repository) GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var snap Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT id, kind, semester_id, status, payload, created_at, completed_at
		 FROM report_snapshots WHERE id = $1`, id).
		Scan(&snap.ID, &snap.Kind, &snap.SemesterID, &snap.Status, &snap.Payload,
			&snap.CreatedAt, &snap.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *repository) CompleteSnapshot(ctx context.Context, id uuid.UUID, payload []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE report_snapshots SET status = $1, payload = $2, completed_at = NOW() WHERE id = $3`,
		SnapshotComplete, payload, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) FailSnapshot(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE report_snapshots SET status = $1, completed_at = NOW() WHERE id = $2`,
		SnapshotFailed, id)
	return err
}
