package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
)

// SessionHandler exposes the current session snapshot.
type SessionHandler struct {
	sessions port.SessionReader
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions port.SessionReader, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetSession returns the current session state
// @Summary Current session
// @Description Return the consistent identity/profile/session/role tuple
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /v1/session [get]
func (h *SessionHandler) GetSession(c echo.Context) error {
	state := h.sessions.Snapshot()

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toSessionResponse(state))
}

// SessionResponse is the wire shape of a session snapshot. The session
// token never appears here.
type SessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Loading       bool            `json:"loading"`
	Identity      *IdentityView   `json:"identity,omitempty"`
	Profile       *domain.Profile `json:"profile,omitempty"`
	Session       *SessionView    `json:"session,omitempty"`
	Role          domain.Role     `json:"role,omitempty"`
}

type IdentityView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type SessionView struct {
	ID        string `json:"id"`
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at"`
}

func toSessionResponse(state domain.SessionState) SessionResponse {
	resp := SessionResponse{
		Authenticated: state.Authenticated(),
		Loading:       state.Loading,
		Profile:       state.Profile,
		Role:          state.Role,
	}
	if state.Identity != nil {
		resp.Identity = &IdentityView{
			ID:    state.Identity.ID.String(),
			Email: state.Identity.Email,
		}
	}
	if state.Session != nil {
		resp.Session = &SessionView{
			ID:        state.Session.ID,
			Active:    state.Session.Active,
			ExpiresAt: state.Session.ExpiresAt.Format(time.RFC3339),
		}
	}
	return resp
}
