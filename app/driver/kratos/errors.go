package kratos

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	kratosclient "github.com/ory/kratos-client-go"

	"portal-session-service/app/domain"
)

// Flow operation names, used for logging and error classification.
const (
	opWhoAmI       = "whoami"
	opLogin        = "login"
	opRegistration = "registration"
	opRecovery     = "recovery"
	opLogout       = "logout"
)

// normalizeError maps Kratos API errors to domain errors. Raw SDK errors
// never leave this package.
func (a *ClientAdapter) normalizeError(err error, httpResp *http.Response, operation string) error {
	a.logger.Debug("normalizing kratos error",
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
		"http_status", httpStatus(httpResp))

	if httpResp == nil {
		// No response at all means we never reached Kratos.
		return domain.NewNetworkError(err)
	}

	if kratosErr, ok := err.(*kratosclient.GenericOpenAPIError); ok {
		if classified := a.classifyBody(kratosErr.Body(), operation); classified != nil {
			return classified
		}
	}

	return a.classifyStatus(httpResp.StatusCode, operation, err)
}

// classifyBody inspects the error payload for messages that carry more
// signal than the HTTP status alone. Returns nil when nothing matches.
func (a *ClientAdapter) classifyBody(body []byte, operation string) error {
	var errorResp map[string]any
	if jsonErr := json.Unmarshal(body, &errorResp); jsonErr != nil {
		return a.classifyMessage(string(body), operation)
	}

	if ui, ok := errorResp["ui"].(map[string]any); ok {
		if err := a.classifyUIMessages(ui, operation); err != nil {
			return err
		}
	}
	if message, ok := errorResp["message"].(string); ok {
		return a.classifyMessage(message, operation)
	}
	if reason, ok := errorResp["reason"].(string); ok {
		return a.classifyMessage(reason, operation)
	}
	if errorObj, ok := errorResp["error"].(map[string]any); ok {
		if message, ok := errorObj["message"].(string); ok {
			return a.classifyMessage(message, operation)
		}
	}
	return nil
}

// classifyUIMessages walks the self-service flow UI for the first message
// that classifies to a known failure.
func (a *ClientAdapter) classifyUIMessages(ui map[string]any, operation string) error {
	if messages, ok := ui["messages"].([]any); ok {
		for _, msg := range messages {
			msgMap, ok := msg.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := msgMap["text"].(string); ok {
				if err := a.classifyMessage(text, operation); err != nil {
					return err
				}
			}
		}
	}

	if nodes, ok := ui["nodes"].([]any); ok {
		for _, node := range nodes {
			nodeMap, ok := node.(map[string]any)
			if !ok {
				continue
			}
			messages, ok := nodeMap["messages"].([]any)
			if !ok {
				continue
			}
			for _, msg := range messages {
				msgMap, ok := msg.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := msgMap["text"].(string); ok {
					if err := a.classifyMessage(text, operation); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// classifyMessage maps provider message text to a failure the session layer
// understands. Returns nil when the message carries no classifiable signal.
func (a *ClientAdapter) classifyMessage(message, operation string) error {
	lower := strings.ToLower(message)

	if containsAny(lower, []string{"not verified", "not confirmed", "verify your email", "address is not yet verified"}) {
		return domain.NewEmailNotConfirmedError(fmt.Errorf("kratos %s: %s", operation, message))
	}

	if containsAny(lower, []string{"credentials are invalid", "invalid credentials", "wrong password", "check for spelling mistakes"}) {
		return domain.NewLoginFailedError(fmt.Errorf("kratos %s: credentials rejected", operation))
	}

	if containsAny(lower, []string{"session not found", "invalid session", "no active session"}) {
		return fmt.Errorf("kratos %s: %w", operation, domain.ErrSessionNotFound)
	}

	if containsAny(lower, []string{"session expired", "session has expired", "is inactive"}) {
		return fmt.Errorf("kratos %s: %w", operation, domain.ErrSessionExpired)
	}

	if containsAny(lower, []string{"rate limit", "too many requests", "request was throttled"}) {
		return domain.NewRateLimitedError(fmt.Errorf("kratos %s: %s", operation, message))
	}

	if containsAny(lower, []string{"already exists", "already registered", "is not unique"}) {
		return domain.NewSignUpFailedError(fmt.Errorf("kratos %s: duplicate identity", operation))
	}

	if containsAny(lower, []string{"connection refused", "timeout", "service unavailable"}) {
		return domain.NewNetworkError(fmt.Errorf("kratos %s: %s", operation, message))
	}

	return nil
}

// classifyStatus is the coarse fallback when the body told us nothing.
func (a *ClientAdapter) classifyStatus(statusCode int, operation string, originalErr error) error {
	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		switch operation {
		case opLogin:
			return domain.NewLoginFailedError(originalErr)
		case opRegistration:
			return domain.NewSignUpFailedError(originalErr)
		}
		return fmt.Errorf("kratos %s rejected request: %w", operation, originalErr)
	case http.StatusUnauthorized, http.StatusForbidden:
		if operation == opLogin {
			return domain.NewLoginFailedError(originalErr)
		}
		return fmt.Errorf("kratos %s unauthorized: %w", operation, domain.ErrSessionExpired)
	case http.StatusNotFound, http.StatusGone:
		if operation == opWhoAmI || operation == opLogout {
			return fmt.Errorf("kratos %s: %w", operation, domain.ErrSessionNotFound)
		}
		return fmt.Errorf("kratos %s flow not found: %w", operation, originalErr)
	case http.StatusTooManyRequests:
		return domain.NewRateLimitedError(originalErr)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.NewNetworkError(originalErr)
	default:
		return fmt.Errorf("kratos %s failed with status %d: %w", operation, statusCode, originalErr)
	}
}

func httpStatus(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func containsAny(text string, substrings []string) bool {
	for _, substring := range substrings {
		if strings.Contains(text, substring) {
			return true
		}
	}
	return false
}
