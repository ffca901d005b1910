package rest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
	"portal-session-service/app/rest/handlers"
	custommw "portal-session-service/app/rest/middleware"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger         *slog.Logger
	Auth           port.AuthOperations
	Sessions       port.SessionReader
	HealthChecks   map[string]handlers.HealthChecker
	EnableDebug    bool
	EnableAuditLog bool
}

// NewRouter creates and configures the Echo router
func NewRouter(config RouterConfig) *echo.Echo {
	// Create Echo instance
	e := echo.New()

	// Configure Echo
	e.HideBanner = true
	e.Debug = config.EnableDebug

	// Create handlers
	authHandler := handlers.NewAuthHandler(config.Auth, config.Logger)
	sessionHandler := handlers.NewSessionHandler(config.Sessions, config.Logger)
	healthHandler := handlers.NewHealthHandler(config.HealthChecks, config.Logger)

	// Create middleware
	guard := custommw.NewGuardMiddleware(config.Sessions, config.Logger)
	rateLimiter := custommw.NewRateLimiter()

	// Global middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(custommw.DefaultCORS())
	e.Use(custommw.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	// API versioning
	v1 := e.Group("/v1")

	// Health endpoints (no auth required)
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)
	v1.GET("/live", healthHandler.LivenessCheck)

	// Session snapshot (public; the body itself says whether a session exists)
	v1.GET("/session", sessionHandler.GetSession)

	// Authentication endpoints, audit-logged when enabled
	auth := v1.Group("/auth")
	if config.EnableAuditLog {
		auth.Use(custommw.AuditLog(config.Logger))
	}
	auth.POST("/login", authHandler.Login)
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/password-reset", authHandler.ResetPassword)
	auth.POST("/logout", authHandler.Logout)

	// Profile endpoints (require a signed-in identity)
	profileMiddleware := []echo.MiddlewareFunc{guard.RequireAuth()}
	if config.EnableAuditLog {
		profileMiddleware = append(profileMiddleware, custommw.AuditLog(config.Logger))
	}
	v1.PATCH("/profile", authHandler.UpdateProfile, profileMiddleware...)

	// Role-gated route groups. Handlers for the downstream portal features
	// mount under these; the guard makes the access decision. Each group
	// carries an access probe so callers can test their entitlement.
	portal := v1.Group("/portal")
	portal.Use(guard.RequireRole(domain.RoleClient))
	portal.GET("/access", accessProbe)

	agent := v1.Group("/agent")
	agent.Use(guard.RequireRole(domain.RoleAgent))
	agent.GET("/access", accessProbe)

	admin := v1.Group("/admin")
	admin.Use(guard.RequireAdmin())
	admin.GET("/access", accessProbe)

	return e
}

// accessProbe reports the identity the guard admitted. Reaching it at all
// means the role check passed.
func accessProbe(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"allowed":     true,
		"identity_id": c.Get("identity_id"),
		"role":        c.Get("role"),
	})
}
