package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-sis/meridian-sis/internal/announcements"
	"github.com/meridian-sis/meridian-sis/internal/reports"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnnouncementFanout mails a published announcement to its audience.
	TaskAnnouncementFanout = "announcement:fanout"
	// TaskReportSnapshot builds a requested report snapshot.
	TaskReportSnapshot = "report:snapshot"
	// TaskNightlyHeadcount refreshes the headcount snapshot on a schedule.
	TaskNightlyHeadcount = "report:nightly_headcount"
)

// AnnouncementFanoutPayload identifies the announcement to deliver.
type AnnouncementFanoutPayload struct {
	AnnouncementID int64 `json:"announcement_id"`
}

// ReportSnapshotPayload identifies the snapshot to build.
type ReportSnapshotPayload struct {
	SnapshotID uuid.UUID `json:"snapshot_id"`
}

// NewAnnouncementFanoutTask constructs an Asynq task.
func NewAnnouncementFanoutTask(payload AnnouncementFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnnouncementFanout, data), nil
}

// NewReportSnapshotTask constructs an Asynq task.
func NewReportSnapshotTask(payload ReportSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportSnapshot, data), nil
}

// NewAnnouncementFanoutHandler processes TaskAnnouncementFanout tasks: it
// resolves the audience to email addresses and sends one message per
// recipient, a few at a time.
func NewAnnouncementFanoutHandler(logger *slog.Logger, repo announcements.Repository, mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AnnouncementFanoutPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		ann, err := repo.Get(ctx, payload.AnnouncementID)
		if err != nil {
			return fmt.Errorf("load announcement %d: %w", payload.AnnouncementID, err)
		}
		if ann.Status != announcements.StatusPublished {
			logger.Warn("fanout skipped, announcement not published",
				slog.Int64("announcement_id", ann.ID), slog.String("status", ann.Status))
			return nil
		}

		recipients, err := repo.RecipientEmails(ctx, ann.Audience)
		if err != nil {
			return fmt.Errorf("resolve audience %q: %w", ann.Audience, err)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, to := range recipients {
			to := to
			g.Go(func() error {
				return mailer.Send(ctx, to, ann.Title, ann.Body)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("fanout announcement %d: %w", ann.ID, err)
		}

		logger.Info("announcement fanout complete",
			slog.Int64("announcement_id", ann.ID), slog.Int("recipients", len(recipients)))
		return nil
	}
}

// NewNightlyHeadcountTask constructs the scheduled headcount refresh task.
func NewNightlyHeadcountTask() *asynq.Task {
	return asynq.NewTask(TaskNightlyHeadcount, nil)
}

// NewNightlyHeadcountHandler records and builds a fresh headcount snapshot.
func NewNightlyHeadcountHandler(logger *slog.Logger, svc *reports.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		snap, err := svc.RequestSnapshot(ctx, reports.KindHeadcount, nil)
		if err != nil {
			return fmt.Errorf("request nightly headcount: %w", err)
		}
		if err := svc.BuildSnapshot(ctx, snap.ID); err != nil {
			return fmt.Errorf("build nightly headcount: %w", err)
		}
		logger.Info("nightly headcount snapshot built", slog.String("snapshot_id", snap.ID.String()))
		return nil
	}
}

// NewReportSnapshotHandler processes TaskReportSnapshot tasks.
func NewReportSnapshotHandler(logger *slog.Logger, svc *reports.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportSnapshotPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := svc.BuildSnapshot(ctx, payload.SnapshotID); err != nil {
			return fmt.Errorf("build snapshot %s: %w", payload.SnapshotID, err)
		}
		logger.Info("report snapshot built", slog.String("snapshot_id", payload.SnapshotID.String()))
		return nil
	}
}
