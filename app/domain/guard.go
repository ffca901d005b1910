package domain

// Decision is the outcome of an access-control evaluation.
type Decision string

const (
	// DecisionPending: the session is still loading; consumers render a
	// neutral affordance and make no access decision.
	DecisionPending Decision = "pending"
	// DecisionAllowed: the required role matches, or none is required.
	DecisionAllowed Decision = "allowed"
	// DecisionDenied: unauthenticated, or the role does not match.
	DecisionDenied Decision = "denied"
)

// DenyReason distinguishes the two denial shapes consumers handle
// differently: redirect to login vs. an access-denied view offering
// role-repair actions.
type DenyReason string

const (
	DenyNone            DenyReason = ""
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyRoleMismatch    DenyReason = "role_mismatch"
)

// AccessDecision pairs the decision with its denial reason.
type AccessDecision struct {
	Decision Decision
	Reason   DenyReason
}

// EvaluateAccess is the single transition function for route protection.
// It is pure; no other component may make an access decision.
func EvaluateAccess(state SessionState, requiredRole Role) AccessDecision {
	if state.Loading {
		return AccessDecision{Decision: DecisionPending}
	}
	if !state.Authenticated() {
		return AccessDecision{Decision: DecisionDenied, Reason: DenyUnauthenticated}
	}
	if requiredRole != RoleNone && state.Role != requiredRole {
		return AccessDecision{Decision: DecisionDenied, Reason: DenyRoleMismatch}
	}
	return AccessDecision{Decision: DecisionAllowed}
}
