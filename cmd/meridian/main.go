package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-sis/meridian-sis/internal/announcements"
	"github.com/meridian-sis/meridian-sis/internal/app"
	"github.com/meridian-sis/meridian-sis/internal/auth"
	"github.com/meridian-sis/meridian-sis/internal/authz"
	"github.com/meridian-sis/meridian-sis/internal/courses"
	"github.com/meridian-sis/meridian-sis/internal/departments"
	"github.com/meridian-sis/meridian-sis/internal/enrollments"
	"github.com/meridian-sis/meridian-sis/internal/observability"
	"github.com/meridian-sis/meridian-sis/internal/programs"
	"github.com/meridian-sis/meridian-sis/internal/rbac"
	"github.com/meridian-sis/meridian-sis/internal/reports"
	"github.com/meridian-sis/meridian-sis/internal/semesters"
	"github.com/meridian-sis/meridian-sis/internal/settings"
	"github.com/meridian-sis/meridian-sis/internal/shared"
	"github.com/meridian-sis/meridian-sis/internal/users"
	"github.com/meridian-sis/meridian-sis/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	validate := validator.New()
	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo)

	var fetcher authz.Fetcher
	if cfg.GrantMode == "remote" {
		fetcher = authz.NewHTTPFetcher(cfg.GrantBackendURL, &http.Client{Timeout: cfg.GrantFetchTimeout})
	} else {
		fetcher = rbac.NewGrantFetcher(rbacService)
	}

	gates := authz.NewManager(fetcher,
		authz.WithManagerLogger(logger),
		authz.WithDecisionRecorder(metrics),
		authz.WithStoreOptions(
			authz.WithFetchTimeout(cfg.GrantFetchTimeout),
			authz.WithLogger(logger),
			authz.WithFetchRecorder(metrics),
		),
	)
	defer gates.Close()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, validate, gates)

	rbacHandler := rbac.NewHandler(logger, rbacService, validate, gates)

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, validate, gates)

	coursesService := courses.NewService(courses.NewRepository(dbpool))
	coursesHandler := courses.NewHandler(logger, coursesService, validate, gates)

	departmentsService := departments.NewService(departments.NewRepository(dbpool))
	departmentsHandler := departments.NewHandler(logger, departmentsService, validate, gates)

	programsService := programs.NewService(programs.NewRepository(dbpool))
	programsHandler := programs.NewHandler(logger, programsService, validate, gates)

	semestersService := semesters.NewService(semesters.NewRepository(dbpool))
	semestersHandler := semesters.NewHandler(logger, semestersService, validate, gates)

	enrollmentsService := enrollments.NewService(enrollments.NewRepository(dbpool), coursesService, semestersService)
	enrollmentsHandler := enrollments.NewHandler(logger, enrollmentsService, validate, gates)

	announcementsService := announcements.NewService(logger, announcements.NewRepository(dbpool), queueClient)
	announcementsHandler := announcements.NewHandler(logger, announcementsService, validate, gates)

	reportsService := reports.NewService(reports.NewRepository(dbpool), queueClient)
	reportsHandler := reports.NewHandler(logger, reportsService, validate, gates)

	settingsService := settings.NewService(logger, settings.NewRepository(dbpool), redisClient)
	settingsHandler := settings.NewHandler(logger, settingsService, validate, gates)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Metrics:              metrics,
		AuthHandler:          authHandler,
		RBACHandler:          rbacHandler,
		UsersHandler:         usersHandler,
		CoursesHandler:       coursesHandler,
		DepartmentsHandler:   departmentsHandler,
		ProgramsHandler:      programsHandler,
		SemestersHandler:     semestersHandler,
		EnrollmentsHandler:   enrollmentsHandler,
		AnnouncementsHandler: announcementsHandler,
		ReportsHandler:       reportsHandler,
		SettingsHandler:      settingsHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
