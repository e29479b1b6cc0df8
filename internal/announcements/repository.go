package announcements

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

// Repository abstracts announcement persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Announcement, error)
	List(ctx context.Context, filter ListFilter) ([]Announcement, int, error)
	Create(ctx context.Context, ann Announcement) (*Announcement, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	MarkPublished(ctx context.Context, id int64) error
	RecipientEmails(ctx context.Context, audience string) ([]string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const announcementColumns = `id, title, body, audience, status, published_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Announcement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	ann, err := scanAnnouncement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ann, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Announcement, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Audience != "" {
		where += fmt.Sprintf(" AND audience = $%d", argPos)
		args = append(args, filter.Audience)
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM announcements `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM announcements %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		announcementColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Announcement
	for rows.Next() {
		ann, err := scanAnnouncement(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *ann)
	}
	return list, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, ann Announcement) (*Announcement, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO announcements (title, body, audience, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+announcementColumns,
		ann.Title, ann.Body, ann.Audience, ann.Status, ann.CreatedBy)
	return scanAnnouncement(row)
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE announcements SET updated_at = NOW()"
	args := []any{}
	argPos := 1
	for _, col := range []string{"title", "body", "audience"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d AND status = '%s'", argPos, StatusDraft)
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

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) MarkPublished(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements SET status = $1, published_at = NOW(), updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		StatusPublished, id, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// RecipientEmails resolves the audience to active user emails via role
// assignments. The "all" audience covers every active account.
func (r *repository) RecipientEmails(ctx context.Context, audience string) ([]string, error) {
	query := `SELECT email FROM users WHERE is_active`
	args := []any{}
	switch audience {
	case AudienceStudents:
		query = `SELECT DISTINCT u.email FROM users u
			 JOIN user_roles ur ON ur.user_id = u.id
			 JOIN roles r ON r.id = ur.role_id
			 WHERE u.is_active AND r.code = $1`
		args = append(args, shared.RoleStudent)
	case AudienceFaculty:
		query = `SELECT DISTINCT u.email FROM users u
			 JOIN user_roles ur ON ur.user_id = u.id
			 JOIN roles r ON r.id = ur.role_id
			 WHERE u.is_active AND r.code = $1`
		args = append(args, shared.RoleFaculty)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var ann Announcement
	if err := row.Scan(&ann.ID, &ann.Title, &ann.Body, &ann.Audience, &ann.Status,
		&ann.PublishedAt, &ann.CreatedBy, &ann.CreatedAt, &ann.UpdatedAt); err != nil {
		return nil, err
	}
	return &ann, nil
}
