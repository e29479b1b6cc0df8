package enrollments

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-sis/meridian-sis/internal/courses"
	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/semesters"
)

// CourseSource resolves course records for enrollment checks.
type CourseSource interface {
	Get(ctx context.Context, id int64) (*courses.Course, error)
}

// SemesterSource resolves semester records for enrollment checks.
type SemesterSource interface {
	Get(ctx context.Context, id int64) (*semesters.Semester, error)
}

// Service enforces enrollment rules: registration window, course capacity,
// and the grade lifecycle.
type Service struct {
	repo      Repository
	courses   CourseSource
	semesters SemesterSource
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, courseSource CourseSource, semesterSource SemesterSource) *Service {
	return &Service{repo: repo, courses: courseSource, semesters: semesterSource, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Enrollment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Enrollment, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*Enrollment, error) {
	sem, err := s.semesters.Get(ctx, req.SemesterID)
	if err != nil {
		return nil, fmt.Errorf("resolve semester: %w", err)
	}
	if !sem.RegistrationOpen(s.now()) {
		return nil, fmt.Errorf("%w: registration window is closed for %s", httpx.ErrConflict, sem.Code)
	}

	course, err := s.courses.Get(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("resolve course: %w", err)
	}
	if !course.IsActive {
		return nil, fmt.Errorf("%w: course %s is not open for enrollment", httpx.ErrConflict, course.Code)
	}

	active, err := s.repo.CountActive(ctx, req.CourseID, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if active >= course.Capacity {
		return nil, fmt.Errorf("%w: course %s is full", httpx.ErrConflict, course.Code)
	}

	return s.repo.Create(ctx, Enrollment{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		SemesterID: req.SemesterID,
		Status:     StatusEnrolled,
	})
}

func (s *Service) Drop(ctx context.Context, id int64) (*Enrollment, error) {
	enr, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enr.Status != StatusEnrolled {
		return nil, fmt.Errorf("%w: only active enrollments can be dropped", httpx.ErrConflict)
	}
	if err := s.repo.SetStatus(ctx, id, StatusDropped); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Grade records a final grade and completes the enrollment. Regrading a
// completed enrollment is allowed; dropped ones are not gradable.
func (s *Service) Grade(ctx context.Context, id int64, grade string) (*Enrollment, error) {
	enr, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enr.Status == StatusDropped {
		return nil, fmt.Errorf("%w: dropped enrollments cannot be graded", httpx.ErrConflict)
	}
	if err := s.repo.SetGrade(ctx, id, grade, StatusCompleted); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
