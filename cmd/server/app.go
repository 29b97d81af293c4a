package main

import (
	"log/slog"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/cache"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/config"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/handler"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/jobs"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/repository"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/storage"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/pkg/jwt"
)

// app holds the wired services and the handler set built on them
type app struct {
	routes routeDeps
	sweeps []jobs.Sweep
	stop   []func()
}

// appDeps are the process-level resources an app is built from
type appDeps struct {
	cfg     *config.Config
	db      database.Database
	jwt     *jwt.Service
	photos  *storage.LocalPhotoStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	mailer  service.Mailer
}

func newApp(d appDeps) *app {
	cfg := d.cfg
	if d.mailer == nil {
		d.mailer = service.NewLogMailer(d.logger)
	}

	// Repositories
	userRepo := repository.NewUserRepository(d.db)
	reportRepo := repository.NewReportRepository(d.db)
	commentRepo := repository.NewCommentRepository(d.db)
	serviceRequestRepo := repository.NewServiceRequestRepository(d.db)

	// Services
	pointsService := service.NewPointsService(service.PointsServiceConfig{
		Reports: reportRepo,
		Users:   userRepo,
	})
	restrictionService := service.NewRestrictionService(service.RestrictionServiceConfig{
		Users:    userRepo,
		Duration: cfg.Moderation.RestrictionDuration,
	})
	reportService := service.NewReportService(service.ReportServiceConfig{
		Reports:      reportRepo,
		Users:        userRepo,
		Points:       pointsService,
		Restrictions: restrictionService,
		Metrics:      d.metrics,
	})
	pollService := service.NewPollService(service.PollServiceConfig{
		Reports:       reportRepo,
		Points:        pointsService,
		Restrictions:  restrictionService,
		Metrics:       d.metrics,
		FakeThreshold: cfg.Moderation.FakeVoteThreshold,
	})
	expiryService := service.NewExpiryService(service.ExpiryServiceConfig{
		Reports:   reportRepo,
		Points:    pointsService,
		Retention: cfg.Scheduler.ResolvedRetention,
		Metrics:   d.metrics,
	})
	commentService := service.NewCommentService(commentRepo, reportRepo)
	userService := service.NewUserService(userRepo)
	serviceRequestService := service.NewServiceRequestService(service.ServiceRequestServiceConfig{
		Requests:      serviceRequestRepo,
		Providers:     userRepo,
		MatchRadiusKm: cfg.Geo.ProviderMatchRadiusKm,
	})

	pendingRegistrations := cache.NewExpiring[string, *model.PendingRegistration](cache.Config{
		TTL: cfg.Registration.CodeTTL,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		Users:       userRepo,
		JWT:         d.jwt,
		Mailer:      d.mailer,
		Pending:     pendingRegistrations,
		CodeTTL:     cfg.Registration.CodeTTL,
		MaxAttempts: cfg.Registration.MaxAttempts,
	})

	// Rate limiters: one for report, vote and comment writes, one for the auth endpoints
	writeLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:           cfg.Server.RateLimit,
		Window:         time.Minute,
		Burst:          5,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	authLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:           cfg.Server.AuthRateLimit,
		Window:         time.Minute,
		Burst:          2,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     cfg.Server.IdempotencyTTL,
		Cleanup: time.Hour,
	})

	var photos handler.PhotoSaver
	if d.photos != nil {
		photos = d.photos
	}

	return &app{
		routes: routeDeps{
			metrics:     d.metrics,
			auth:        middleware.Auth(d.jwt),
			optional:    middleware.OptionalAuth(d.jwt),
			limiter:     writeLimiter,
			authLimiter: authLimiter,
			idempotency: idempotencyStore,

			health: handler.NewHealthHandler(d.db),
			authH:  handler.NewAuthHandler(authService),
			reports: handler.NewReportHandler(handler.ReportHandlerConfig{
				Reports:   reportService,
				Polls:     pollService,
				Photos:    photos,
				MaxPhotos: cfg.Uploads.MaxPhotos,
			}),
			comments: handler.NewCommentHandler(commentService),
			users: handler.NewUserHandler(handler.UserHandlerConfig{
				Users:  userService,
				Points: pointsService,
			}),
			serviceRequests: handler.NewServiceRequestHandler(serviceRequestService),
		},
		sweeps: jobs.DefaultSweeps(expiryService, restrictionService, jobs.Schedules{
			ReportExpiry:       cfg.Scheduler.ReportExpiry,
			ResolvedCleanup:    cfg.Scheduler.ResolvedCleanup,
			RestrictionCleanup: cfg.Scheduler.RestrictionCleanup,
		}),
		stop: []func(){pendingRegistrations.Stop, writeLimiter.Stop, authLimiter.Stop, idempotencyStore.Stop},
	}
}

// Close stops the background janitors owned by the app
func (a *app) Close() {
	for _, stop := range a.stop {
		stop()
	}
}
