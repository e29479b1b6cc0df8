package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Enqueuer hands snapshot builds to the background worker.
type Enqueuer interface {
	EnqueueReportSnapshot(ctx context.Context, snapshotID uuid.UUID) error
}

// Service computes reports on demand and coordinates snapshot builds.
type Service struct {
	repo    Repository
	queue   Enqueuer
	printer *message.Printer
	now     func() time.Time
}

// NewService constructs a Service. queue may be nil in the worker process,
// which never enqueues.
func NewService(repo Repository, queue Enqueuer) *Service {
	return &Service{
		repo:    repo,
		queue:   queue,
		printer: message.NewPrinter(language.AmericanEnglish),
		now:     time.Now,
	}
}

func (s *Service) EnrollmentSummary(ctx context.Context, semesterID int64) (*EnrollmentSummary, error) {
	rows, err := s.repo.CourseEnrollment(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, row := range rows {
		total += row.Enrolled
	}
	return &EnrollmentSummary{
		SemesterID:     semesterID,
		Rows:           rows,
		TotalEnrolled:  total,
		TotalFormatted: s.printer.Sprintf("%d", total),
		GeneratedAt:    s.now(),
	}, nil
}

func (s *Service) Headcount(ctx context.Context) ([]DepartmentHeadcountRow, error) {
	return s.repo.DepartmentHeadcount(ctx)
}

// RequestSnapshot records a pending snapshot and schedules its build.
func (s *Service) RequestSnapshot(ctx context.Context, kind string, semesterID *int64) (*Snapshot, error) {
	switch kind {
	case KindEnrollmentSummary:
		if semesterID == nil {
			return nil, fmt.Errorf("%w: semester_id is required for %s", httpx.ErrValidation, kind)
		}
	case KindHeadcount:
	default:
		return nil, fmt.Errorf("%w: unknown report kind %q", httpx.ErrValidation, kind)
	}

	snap := Snapshot{
		ID:         uuid.New(),
		Kind:       kind,
		SemesterID: semesterID,
		Status:     SnapshotPending,
	}
	if err := s.repo.CreateSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	if s.queue != nil {
		if err := s.queue.EnqueueReportSnapshot(ctx, snap.ID); err != nil {
			_ = s.repo.FailSnapshot(ctx, snap.ID)
			return nil, fmt.Errorf("enqueue snapshot build: %w", err)
		}
	}
	return s.repo.GetSnapshot(ctx, snap.ID)
}

func (s *Service) GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return s.repo.GetSnapshot(ctx, id)
}

// BuildSnapshot computes the payload for a pending snapshot. It runs in the
// worker process.
func (s *Service) BuildSnapshot(ctx context.Context, id uuid.UUID) error {
	snap, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}

	var payload any
	switch snap.Kind {
	case KindEnrollmentSummary:
		if snap.SemesterID == nil {
			return s.repo.FailSnapshot(ctx, id)
		}
		payload, err = s.EnrollmentSummary(ctx, *snap.SemesterID)
	case KindHeadcount:
		payload, err = s.Headcount(ctx)
	default:
		return s.repo.FailSnapshot(ctx, id)
	}
	if err != nil {
		_ = s.repo.FailSnapshot(ctx, id)
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		_ = s.repo.FailSnapshot(ctx, id)
		return err
	}
	return s.repo.CompleteSnapshot(ctx, id, raw)
}
