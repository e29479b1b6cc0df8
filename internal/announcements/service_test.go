package announcements

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

type memoryRepo struct {
	byID   map[int64]*Announcement
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]*Announcement), nextID: 1}
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Announcement, error) {
	ann, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *ann
	return &clone, nil
}

func (m *memoryRepo) List(context.Context, ListFilter) ([]Announcement, int, error) {
	return nil, 0, nil
}

func (m *memoryRepo) Create(_ context.Context, ann Announcement) (*Announcement, error) {
	ann.ID = m.nextID
	m.nextID++
	ann.CreatedAt = time.Now()
	m.byID[ann.ID] = &ann
	return &ann, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	ann, ok := m.byID[id]
	if !ok || ann.Status != StatusDraft {
		return httpx.ErrNotFound
	}
	if v, ok := updates["title"]; ok {
		ann.Title = v.(string)
	}
	if v, ok := updates["body"]; ok {
		ann.Body = v.(string)
	}
	if v, ok := updates["audience"]; ok {
		ann.Audience = v.(string)
	}
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryRepo) MarkPublished(_ context.Context, id int64) error {
	ann, ok := m.byID[id]
	if !ok || ann.Status != StatusDraft {
		return httpx.ErrNotFound
	}
	now := time.Now()
	ann.Status = StatusPublished
	ann.PublishedAt = &now
	return nil
}

func (m *memoryRepo) RecipientEmails(context.Context, string) ([]string, error) {
	return nil, nil
}

type recordingQueue struct {
	enqueued []int64
	fail     bool
}

func (q *recordingQueue) EnqueueAnnouncementFanout(_ context.Context, id int64) error {
	if q.fail {
		return errors.New("broker down")
	}
	q.enqueued = append(q.enqueued, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSchedulesFanout(t *testing.T) {
	repo := newMemoryRepo()
	queue := &recordingQueue{}
	svc := NewService(discardLogger(), repo, queue)

	ann, err := svc.Create(context.Background(), 42, CreateAnnouncementRequest{
		Title: "Registration opens Monday", Body: "See the academic calendar.", Audience: AudienceStudents,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, ann.Status)

	published, err := svc.Publish(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
	assert.Equal(t, []int64{ann.ID}, queue.enqueued)
}

func TestPublishTwiceFails(t *testing.T) {
	repo := newMemoryRepo()
	queue := &recordingQueue{}
	svc := NewService(discardLogger(), repo, queue)

	ann, err := svc.Create(context.Background(), 42, CreateAnnouncementRequest{
		Title: "t", Body: "b", Audience: AudienceAll,
	})
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), ann.ID)
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), ann.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Len(t, queue.enqueued, 1)
}

func TestPublishSurvivesEnqueueFailure(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(discardLogger(), repo, &recordingQueue{fail: true})

	ann, err := svc.Create(context.Background(), 42, CreateAnnouncementRequest{
		Title: "t", Body: "b", Audience: AudienceAll,
	})
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, published.Status)
}

func TestUpdateRejectsPublished(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(discardLogger(), repo, nil)

	ann, err := svc.Create(context.Background(), 42, CreateAnnouncementRequest{
		Title: "t", Body: "b", Audience: AudienceAll,
	})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), ann.ID)
	require.NoError(t, err)

	title := "revised"
	_, err = svc.Update(context.Background(), ann.ID, UpdateAnnouncementRequest{Title: &title})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
