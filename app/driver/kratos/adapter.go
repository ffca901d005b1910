package kratos

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	kratosclient "github.com/ory/kratos-client-go"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
)

// ClientAdapter adapts the Kratos client to port.KratosClient using the
// native self-service flows.
type ClientAdapter struct {
	client *Client
	logger *slog.Logger
}

// NewClientAdapter creates a new adapter.
func NewClientAdapter(client *Client, logger *slog.Logger) port.KratosClient {
	return &ClientAdapter{
		client: client,
		logger: logger.With("component", "kratos_adapter"),
	}
}

// WhoAmI checks a session token against Kratos and returns the linked
// session and identity.
func (a *ClientAdapter) WhoAmI(ctx context.Context, sessionToken string) (*domain.Session, *domain.Identity, error) {
	kratosSession, httpResp, err := a.client.PublicAPI().FrontendAPI.
		ToSession(ctx).
		XSessionToken(sessionToken).
		Execute()
	if err != nil {
		return nil, nil, a.normalizeError(err, httpResp, opWhoAmI)
	}

	session, identity, err := transformSession(kratosSession, sessionToken)
	if err != nil {
		return nil, nil, err
	}
	return session, identity, nil
}

// SubmitPasswordLogin runs the native login flow with the password method.
func (a *ClientAdapter) SubmitPasswordLogin(ctx context.Context, email, password string) (*domain.Session, *domain.Identity, error) {
	flow, httpResp, err := a.client.PublicAPI().FrontendAPI.
		CreateNativeLoginFlow(ctx).
		Execute()
	if err != nil {
		a.logger.Error("failed to create native login flow", "error", err)
		return nil, nil, a.normalizeError(err, httpResp, opLogin)
	}

	body := kratosclient.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(
		&kratosclient.UpdateLoginFlowWithPasswordMethod{
			Method:     "password",
			Identifier: email,
			Password:   password,
		},
	)

	success, httpResp, err := a.client.PublicAPI().FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(body).
		Execute()
	if err != nil {
		a.logger.Warn("login flow submission rejected", "flow_id", flow.Id, "error", err)
		return nil, nil, a.normalizeError(err, httpResp, opLogin)
	}

	token := ""
	if success.SessionToken != nil {
		token = *success.SessionToken
	}
	session, identity, err := transformSession(&success.Session, token)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Info("password login succeeded", "identity_id", identity.ID)
	return session, identity, nil
}

// SubmitRegistration runs the native registration flow with the password
// method. The traits map becomes the identity's provider-side metadata.
func (a *ClientAdapter) SubmitRegistration(ctx context.Context, email, password string, traits map[string]any) (*domain.Identity, error) {
	flow, httpResp, err := a.client.PublicAPI().FrontendAPI.
		CreateNativeRegistrationFlow(ctx).
		Execute()
	if err != nil {
		a.logger.Error("failed to create native registration flow", "error", err)
		return nil, a.normalizeError(err, httpResp, opRegistration)
	}

	if traits == nil {
		traits = map[string]any{}
	}
	traits["email"] = email

	body := kratosclient.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(
		&kratosclient.UpdateRegistrationFlowWithPasswordMethod{
			Method:   "password",
			Password: password,
			Traits:   traits,
		},
	)

	success, httpResp, err := a.client.PublicAPI().FrontendAPI.
		UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(body).
		Execute()
	if err != nil {
		a.logger.Warn("registration flow submission rejected", "flow_id", flow.Id, "error", err)
		return nil, a.normalizeError(err, httpResp, opRegistration)
	}

	identity, err := transformIdentity(&success.Identity)
	if err != nil {
		return nil, err
	}

	a.logger.Info("registration succeeded", "identity_id", identity.ID)
	return identity, nil
}

// SubmitRecovery runs the native recovery flow with the code method.
func (a *ClientAdapter) SubmitRecovery(ctx context.Context, email string) error {
	flow, httpResp, err := a.client.PublicAPI().FrontendAPI.
		CreateNativeRecoveryFlow(ctx).
		Execute()
	if err != nil {
		a.logger.Error("failed to create native recovery flow", "error", err)
		return a.normalizeError(err, httpResp, opRecovery)
	}

	body := kratosclient.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(
		&kratosclient.UpdateRecoveryFlowWithCodeMethod{
			Method: "code",
			Email:  &email,
		},
	)

	_, httpResp, err = a.client.PublicAPI().FrontendAPI.
		UpdateRecoveryFlow(ctx).
		Flow(flow.Id).
		UpdateRecoveryFlowBody(body).
		Execute()
	if err != nil {
		return a.normalizeError(err, httpResp, opRecovery)
	}
	return nil
}

// RevokeSession performs a native logout for the session token.
func (a *ClientAdapter) RevokeSession(ctx context.Context, sessionToken string) error {
	httpResp, err := a.client.PublicAPI().FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(kratosclient.PerformNativeLogoutBody{
			SessionToken: sessionToken,
		}).
		Execute()
	if err != nil {
		return a.normalizeError(err, httpResp, opLogout)
	}
	return nil
}

// transformSession maps a Kratos session to the domain shape. The token is
// carried separately because Kratos never echoes it back on whoami.
func transformSession(kratosSession *kratosclient.Session, token string) (*domain.Session, *domain.Identity, error) {
	if kratosSession == nil || kratosSession.Identity == nil {
		return nil, nil, fmt.Errorf("kratos session missing identity")
	}

	identity, err := transformIdentity(kratosSession.Identity)
	if err != nil {
		return nil, nil, err
	}

	session := &domain.Session{
		ID:         kratosSession.Id,
		Token:      token,
		IdentityID: identity.ID,
		Active:     kratosSession.Active != nil && *kratosSession.Active,
	}
	if kratosSession.ExpiresAt != nil {
		session.ExpiresAt = *kratosSession.ExpiresAt
	}
	if kratosSession.IssuedAt != nil {
		session.IssuedAt = *kratosSession.IssuedAt
	}
	return session, identity, nil
}

// transformIdentity maps a Kratos identity to the domain shape. Traits are
// kept as free-form metadata; email is promoted to its own field.
func transformIdentity(kratosIdentity *kratosclient.Identity) (*domain.Identity, error) {
	id, err := uuid.Parse(kratosIdentity.Id)
	if err != nil {
		return nil, fmt.Errorf("invalid identity id from Kratos: %w", err)
	}

	identity := &domain.Identity{
		ID:       id,
		Metadata: map[string]any{},
	}
	if kratosIdentity.CreatedAt != nil {
		identity.CreatedAt = *kratosIdentity.CreatedAt
	}

	if traits, ok := kratosIdentity.Traits.(map[string]any); ok {
		for k, v := range traits {
			identity.Metadata[k] = v
		}
		if email, ok := traits["email"].(string); ok {
			identity.Email = email
		}
	}
	return identity, nil
}
