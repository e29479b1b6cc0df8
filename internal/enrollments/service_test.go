package enrollments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/meridian-sis/internal/courses"
	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/semesters"
)

type stubRepo struct {
	byID    map[int64]*Enrollment
	active  int
	created *Enrollment
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: make(map[int64]*Enrollment), nextID: 1}
}

func (s *stubRepo) Get(_ context.Context, id int64) (*Enrollment, error) {
	enr, ok := s.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *enr
	return &clone, nil
}

func (s *stubRepo) List(context.Context, ListFilter) ([]Enrollment, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Create(_ context.Context, enr Enrollment) (*Enrollment, error) {
	enr.ID = s.nextID
	s.nextID++
	enr.EnrolledAt = time.Now()
	s.byID[enr.ID] = &enr
	s.created = &enr
	return &enr, nil
}

func (s *stubRepo) SetStatus(_ context.Context, id int64, status string) error {
	enr, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	enr.Status = status
	return nil
}

func (s *stubRepo) SetGrade(_ context.Context, id int64, grade, status string) error {
	enr, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	enr.Grade = &grade
	enr.Status = status
	return nil
}

func (s *stubRepo) CountActive(context.Context, int64, int64) (int, error) {
	return s.active, nil
}

type stubCourses struct{ course *courses.Course }

func (s *stubCourses) Get(context.Context, int64) (*courses.Course, error) {
	if s.course == nil {
		return nil, httpx.ErrNotFound
	}
	return s.course, nil
}

type stubSemesters struct{ sem *semesters.Semester }

func (s *stubSemesters) Get(context.Context, int64) (*semesters.Semester, error) {
	if s.sem == nil {
		return nil, httpx.ErrNotFound
	}
	return s.sem, nil
}

func openSemester(now time.Time) *semesters.Semester {
	return &semesters.Semester{
		ID:                7,
		Code:              "2026-FA",
		RegistrationStart: now.Add(-24 * time.Hour),
		RegistrationEnd:   now.Add(24 * time.Hour),
	}
}

func activeCourse(capacity int) *courses.Course {
	return &courses.Course{ID: 3, Code: "CS101", Capacity: capacity, IsActive: true}
}

func newTestService(repo *stubRepo, course *courses.Course, sem *semesters.Semester, now time.Time) *Service {
	svc := NewService(repo, &stubCourses{course: course}, &stubSemesters{sem: sem})
	svc.now = func() time.Time { return now }
	return svc
}

func TestEnrollHappyPath(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	svc := newTestService(repo, activeCourse(30), openSemester(now), now)

	enr, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	require.NoError(t, err)
	assert.Equal(t, StatusEnrolled, enr.Status)
	assert.Equal(t, int64(11), repo.created.StudentID)
}

func TestEnrollRejectsClosedRegistration(t *testing.T) {
	now := time.Now()
	sem := openSemester(now)
	sem.RegistrationEnd = now.Add(-time.Hour)
	svc := newTestService(newStubRepo(), activeCourse(30), sem, now)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestEnrollRejectsFullCourse(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	repo.active = 30
	svc := newTestService(repo, activeCourse(30), openSemester(now), now)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Nil(t, repo.created)
}

func TestEnrollRejectsInactiveCourse(t *testing.T) {
	now := time.Now()
	course := activeCourse(30)
	course.IsActive = false
	svc := newTestService(newStubRepo(), course, openSemester(now), now)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestEnrollUnknownSemester(t *testing.T) {
	svc := newTestService(newStubRepo(), activeCourse(30), nil, time.Now())

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 999})
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDropOnlyActiveEnrollments(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	svc := newTestService(repo, activeCourse(30), openSemester(now), now)

	enr, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	require.NoError(t, err)

	dropped, err := svc.Drop(context.Background(), enr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDropped, dropped.Status)

	_, err = svc.Drop(context.Background(), enr.ID)
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestGradeCompletesEnrollment(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	svc := newTestService(repo, activeCourse(30), openSemester(now), now)

	enr, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	require.NoError(t, err)

	graded, err := svc.Grade(context.Background(), enr.ID, "A-")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, graded.Status)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, "A-", *graded.Grade)

	// Regrading a completed enrollment is permitted.
	regraded, err := svc.Grade(context.Background(), enr.ID, "B+")
	require.NoError(t, err)
	assert.Equal(t, "B+", *regraded.Grade)
}

func TestGradeRejectsDropped(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	svc := newTestService(repo, activeCourse(30), openSemester(now), now)

	enr, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 11, CourseID: 3, SemesterID: 7})
	require.NoError(t, err)
	_, err = svc.Drop(context.Background(), enr.ID)
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), enr.ID, "A")
	assert.ErrorIs(t, err, httpx.ErrConflict)
}
