package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
)

// GuardMiddleware protects routes with role-based access control evaluated
// against the shared session state. All decisions go through
// domain.EvaluateAccess; this middleware only translates them to HTTP.
type GuardMiddleware struct {
	sessions port.SessionReader
	logger   *slog.Logger
}

// NewGuardMiddleware creates a new guard middleware
func NewGuardMiddleware(sessions port.SessionReader, logger *slog.Logger) *GuardMiddleware {
	return &GuardMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireAuth requires a signed-in identity, any role.
func (m *GuardMiddleware) RequireAuth() echo.MiddlewareFunc {
	return m.require(domain.RoleNone)
}

// RequireRole requires a signed-in identity with the given role.
func (m *GuardMiddleware) RequireRole(role domain.Role) echo.MiddlewareFunc {
	return m.require(role)
}

// RequireAdmin requires the admin role.
func (m *GuardMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return m.require(domain.RoleAdmin)
}

func (m *GuardMiddleware) require(requiredRole domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := m.sessions.Snapshot()
			decision := domain.EvaluateAccess(state, requiredRole)

			switch decision.Decision {
			case domain.DecisionAllowed:
				c.Set("identity_id", state.Identity.ID.String())
				c.Set("role", string(state.Role))
				return next(c)

			case domain.DecisionPending:
				// The session is still resolving. Tell the caller to retry
				// instead of guessing at a denial.
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, GuardResponse{
					Decision: string(domain.DecisionPending),
					Error:    "session state is still loading",
				})

			default:
				if decision.Reason == domain.DenyRoleMismatch {
					m.logger.Warn("access denied by role",
						"path", c.Request().URL.Path,
						"required_role", requiredRole,
						"actual_role", state.Role)
					return c.JSON(http.StatusForbidden, GuardResponse{
						Decision:     string(domain.DecisionDenied),
						Reason:       string(domain.DenyRoleMismatch),
						RequiredRole: string(requiredRole),
						Error:        "insufficient privileges for this resource",
					})
				}
				return c.JSON(http.StatusUnauthorized, GuardResponse{
					Decision: string(domain.DecisionDenied),
					Reason:   string(domain.DenyUnauthenticated),
					Error:    "authentication required",
					LoginURL: "/v1/auth/login",
				})
			}
		}
	}
}

// GuardResponse is the body returned on pending or denied access.
type GuardResponse struct {
	Decision     string `json:"decision"`
	Reason       string `json:"reason,omitempty"`
	RequiredRole string `json:"required_role,omitempty"`
	LoginURL     string `json:"login_url,omitempty"`
	Error        string `json:"error"`
}
