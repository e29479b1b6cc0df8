package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-sis/meridian-sis/internal/announcements"
	"github.com/meridian-sis/meridian-sis/internal/app"
	"github.com/meridian-sis/meridian-sis/internal/reports"
	"github.com/meridian-sis/meridian-sis/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	announcementsRepo := announcements.NewRepository(pool)
	mailer := &jobs.SMTPMailer{
		Addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		From: cfg.SMTPFrom,
	}

	// The worker never enqueues report builds itself, so its reports service
	// carries no queue client.
	reportsService := reports.NewService(reports.NewRepository(pool), nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnnouncementFanout, Handler: jobs.NewAnnouncementFanoutHandler(logger, announcementsRepo, mailer)},
			{Type: jobs.TaskReportSnapshot, Handler: jobs.NewReportSnapshotHandler(logger, reportsService)},
			{Type: jobs.TaskNightlyHeadcount, Handler: jobs.NewNightlyHeadcountHandler(logger, reportsService)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewNightlyHeadcountTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
