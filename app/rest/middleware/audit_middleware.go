package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

// AuditLog records authentication-surface mutations: who asked, from where,
// and what came of it. Request bodies are never logged; credentials must not
// reach the audit trail.
func AuditLog(logger *slog.Logger) echo.MiddlewareFunc {
	auditLogger := logger.With("component", "audit")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			auditLogger.Info("auth operation",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"ip", c.RealIP(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			return err
		}
	}
}
