package reports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

type stubRepo struct {
	courseRows    []CourseEnrollmentRow
	headcountRows []DepartmentHeadcountRow
	snapshots     map[uuid.UUID]*Snapshot
	queryErr      error
}

func newStubRepo() *stubRepo {
	return &stubRepo{snapshots: make(map[uuid.UUID]*Snapshot)}
}

func (s *stubRepo) CourseEnrollment(context.Context, int64) ([]CourseEnrollmentRow, error) {
	return s.courseRows, s.queryErr
}

func (s *stubRepo) DepartmentHeadcount(context.Context) ([]DepartmentHeadcountRow, error) {
	return s.headcountRows, s.queryErr
}

func (s *stubRepo) CreateSnapshot(_ context.Context, snap Snapshot) error {
	snap.CreatedAt = time.Now()
	s.snapshots[snap.ID] = &snap
	return nil
}

func (s *stubRepo) GetSnapshot(_ context.Context, id uuid.UUID) (*Snapshot, error) {
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *snap
	return &clone, nil
}

func (s *stubRepo) CompleteSnapshot(_ context.Context, id uuid.UUID, payload []byte) error {
	snap, ok := s.snapshots[id]
	if !ok {
		return httpx.ErrNotFound
	}
	now := time.Now()
	snap.Status = SnapshotComplete
	snap.Payload = payload
	snap.CompletedAt = &now
	return nil
}

func (s *stubRepo) FailSnapshot(_ context.Context, id uuid.UUID) error {
	if snap, ok := s.snapshots[id]; ok {
		snap.Status = SnapshotFailed
	}
	return nil
}

type stubQueue struct {
	enqueued []uuid.UUID
	fail     bool
}

func (q *stubQueue) EnqueueReportSnapshot(_ context.Context, id uuid.UUID) error {
	if q.fail {
		return errors.New("broker down")
	}
	q.enqueued = append(q.enqueued, id)
	return nil
}

func TestEnrollmentSummaryTotalsAndFormatting(t *testing.T) {
	repo := newStubRepo()
	repo.courseRows = []CourseEnrollmentRow{
		{CourseID: 1, CourseCode: "CS101", Enrolled: 812, Capacity: 900},
		{CourseID: 2, CourseCode: "CS201", Enrolled: 433, Capacity: 500},
	}
	svc := NewService(repo, nil)

	summary, err := svc.EnrollmentSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1245, summary.TotalEnrolled)
	assert.Equal(t, "1,245", summary.TotalFormatted)
	assert.Len(t, summary.Rows, 2)
}

func TestRequestSnapshotValidatesKind(t *testing.T) {
	svc := NewService(newStubRepo(), &stubQueue{})

	_, err := svc.RequestSnapshot(context.Background(), "bogus", nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.RequestSnapshot(context.Background(), KindEnrollmentSummary, nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRequestSnapshotEnqueuesBuild(t *testing.T) {
	repo := newStubRepo()
	queue := &stubQueue{}
	svc := NewService(repo, queue)

	semID := int64(7)
	snap, err := svc.RequestSnapshot(context.Background(), KindEnrollmentSummary, &semID)
	require.NoError(t, err)
	assert.Equal(t, SnapshotPending, snap.Status)
	assert.Equal(t, []uuid.UUID{snap.ID}, queue.enqueued)
}

func TestRequestSnapshotEnqueueFailureMarksFailed(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubQueue{fail: true})

	_, err := svc.RequestSnapshot(context.Background(), KindHeadcount, nil)
	require.Error(t, err)
	for _, snap := range repo.snapshots {
		assert.Equal(t, SnapshotFailed, snap.Status)
	}
}

func TestBuildSnapshotCompletesWithPayload(t *testing.T) {
	repo := newStubRepo()
	repo.headcountRows = []DepartmentHeadcountRow{
		{DepartmentID: 1, DepartmentCode: "ENG", Name: "Engineering", Students: 320},
	}
	svc := NewService(repo, nil)

	snap, err := svc.RequestSnapshot(context.Background(), KindHeadcount, nil)
	require.NoError(t, err)
	require.NoError(t, svc.BuildSnapshot(context.Background(), snap.ID))

	built, err := svc.GetSnapshot(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, SnapshotComplete, built.Status)

	var rows []DepartmentHeadcountRow
	require.NoError(t, json.Unmarshal(built.Payload, &rows))
	assert.Equal(t, 320, rows[0].Students)
}

func TestBuildSnapshotQueryFailure(t *testing.T) {
	repo := newStubRepo()
	repo.queryErr = errors.New("relation missing")
	svc := NewService(repo, nil)

	snap, err := svc.RequestSnapshot(context.Background(), KindHeadcount, nil)
	require.NoError(t, err)
	require.Error(t, svc.BuildSnapshot(context.Background(), snap.ID))

	failed, err := svc.GetSnapshot(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, SnapshotFailed, failed.Status)
}
