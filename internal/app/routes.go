package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/database"
	"github.com/keyxmakerx/inkwell/internal/plugins/aichat"
	"github.com/keyxmakerx/inkwell/internal/plugins/analytics"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
	"github.com/keyxmakerx/inkwell/internal/plugins/blogs"
	"github.com/keyxmakerx/inkwell/internal/plugins/expertforms"
	"github.com/keyxmakerx/inkwell/internal/plugins/media"
	"github.com/keyxmakerx/inkwell/internal/plugins/notifications"
	"github.com/keyxmakerx/inkwell/internal/plugins/smtp"
	"github.com/keyxmakerx/inkwell/internal/widgets/comments"
	"github.com/keyxmakerx/inkwell/internal/widgets/ratings"
)

// RegisterRoutes builds every plugin and widget and mounts their routes.
// This is the single place where services are wired to each other.
func (a *App) RegisterRoutes(ctx context.Context) error {
	e := a.Echo
	cfg := a.Config

	e.GET("/healthz", a.healthz)

	// --- Shared services ---

	auditService := audit.NewAuditService(audit.NewAuditRepository(a.DB))
	smtpService := smtp.NewSMTPService(cfg.Mail)

	authService := auth.NewAuthService(auth.NewUserRepository(a.DB), a.Redis, smtpService, auditService, cfg.Auth)
	requireAuth := auth.RequireAuth(authService)
	adminMw := []echo.MiddlewareFunc{requireAuth, auth.RequireAdmin()}

	storage, err := media.NewStorage(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("creating media storage: %w", err)
	}
	if local, ok := storage.(*media.LocalStorage); ok {
		media.ServeLocal(e, local)
	}
	mediaService := media.NewMediaService(media.NewMediaRepository(a.DB), storage, cfg.Upload.MaxSize)

	analyticsService := analytics.NewAnalyticsService(analytics.NewEventRepository(a.DB))
	notificationService := notifications.NewNotificationService(notifications.NewNotificationRepository(a.DB), a.Redis)

	blogRepo := blogs.NewBlogRepository(a.DB)
	commentService := comments.NewCommentService(comments.NewCommentRepository(a.DB), blogRepo, auditService)
	ratingService := ratings.NewRatingService(ratings.NewRatingRepository(a.DB), blogRepo)

	// Deleting a blog purges its analytics, comments, and ratings in order.
	blogService := blogs.NewBlogService(blogRepo, mediaService, analyticsService, auditService,
		analyticsService, commentService, ratingService)

	formService := expertforms.NewFormService(expertforms.NewFormRepository(a.DB),
		smtpService, notificationService, authService, auditService)

	// --- Routes ---

	admin := e.Group("/api/admin", adminMw...)

	auth.RegisterRoutes(e, auth.NewHandler(authService, cfg.Auth.SessionTTL, cfg.IsProduction()), authService, a.Redis)
	blogs.RegisterRoutes(e, admin, blogs.NewHandler(blogService), cfg.Upload.MaxSize)
	media.RegisterRoutes(admin, media.NewHandler(mediaService), cfg.Upload.MaxSize)
	analytics.RegisterRoutes(e, analytics.NewHandler(analyticsService), a.Redis, adminMw...)
	comments.RegisterRoutes(e, comments.NewHandler(commentService), a.Redis, adminMw...)
	ratings.RegisterRoutes(e, ratings.NewHandler(ratingService), a.Redis)
	expertforms.RegisterRoutes(e, expertforms.NewHandler(formService), a.Redis, adminMw...)
	notifications.RegisterRoutes(e, notifications.NewHandler(notificationService, cfg.AllowedOrigins), adminMw...)
	aichat.RegisterRoutes(e, aichat.NewHandler(aichat.NewChatService(cfg.AI)), adminMw...)
	smtp.RegisterRoutes(admin, smtp.NewHandler(smtpService))
	audit.RegisterRoutes(admin, audit.NewHandler(auditService))

	a.authService = authService
	return nil
}

// Bootstrap creates the first admin from config when the users table is
// empty. Must run after RegisterRoutes and the migrations.
func (a *App) Bootstrap(ctx context.Context) error {
	_, err := a.authService.Bootstrap(ctx, auth.BootstrapInput{
		Username: a.Config.Auth.AdminUsername,
		Email:    a.Config.Auth.AdminEmail,
		Password: a.Config.Auth.AdminPassword,
	})
	return err
}

// healthz reports whether MariaDB and Redis answer. The failing
// dependency is only named outside production.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := database.Check(ctx, a.DB, a.Redis); err != nil {
		slog.Warn("health check failed", slog.Any("error", err))
		body := map[string]string{"status": "unavailable"}
		if !a.Config.IsProduction() {
			body["error"] = err.Error()
		}
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
