package announcements

import (
	"context"
	"log/slog"
	"strings"
)

// Enqueuer hands published announcements to the background mail fanout.
type Enqueuer interface {
	EnqueueAnnouncementFanout(ctx context.Context, announcementID int64) error
}

// Service wraps announcement lifecycle rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	queue  Enqueuer
}

// NewService constructs a Service. queue may be nil, in which case publishing
// skips the mail fanout.
func NewService(logger *slog.Logger, repo Repository, queue Enqueuer) *Service {
	return &Service{logger: logger, repo: repo, queue: queue}
}

func (s *Service) Get(ctx context.Context, id int64) (*Announcement, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Announcement, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Create(ctx context.Context, createdBy int64, req CreateAnnouncementRequest) (*Announcement, error) {
	return s.repo.Create(ctx, Announcement{
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Audience:  req.Audience,
		Status:    StatusDraft,
		CreatedBy: createdBy,
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateAnnouncementRequest) (*Announcement, error) {
	updates := make(map[string]any)
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.Audience != nil {
		updates["audience"] = *req.Audience
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Publish promotes a draft and schedules the mail fanout. A failed enqueue is
// logged but does not roll back the publish.
func (s *Service) Publish(ctx context.Context, id int64) (*Announcement, error) {
	if err := s.repo.MarkPublished(ctx, id); err != nil {
		return nil, err
	}
	if s.queue != nil {
		if err := s.queue.EnqueueAnnouncementFanout(ctx, id); err != nil {
			s.logger.Error("enqueue announcement fanout",
				slog.Int64("announcement_id", id), slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, id)
}
