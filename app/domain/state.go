package domain

// SessionState is the tuple every consumer of this service reads. Writers
// always publish a complete tuple; readers never observe partial writes.
//
// Loading=true is the only state in which consumers must withhold access
// decisions. Once Loading is false the remaining fields are mutually
// consistent: Role != "" implies Profile != nil implies Identity != nil.
type SessionState struct {
	Identity *Identity `json:"identity"`
	Profile  *Profile  `json:"profile"`
	Session  *Session  `json:"session"`
	Role     Role      `json:"role"`
	Loading  bool      `json:"loading"`
}

// SignedOut is the canonical unauthenticated, non-loading state.
func SignedOut() SessionState {
	return SessionState{Loading: false}
}

// LoadingState is the canonical in-transition state.
func LoadingState() SessionState {
	return SessionState{Loading: true}
}

// Authenticated reports whether an identity is present.
func (s SessionState) Authenticated() bool {
	return s.Identity.IsValid()
}

// Consistent verifies the role/profile/identity implication chain. It is
// used by tests and by the state store's publish path; an inconsistent
// tuple is a programming error, not a recoverable condition.
func (s SessionState) Consistent() bool {
	if s.Loading {
		return true
	}
	if s.Role != RoleNone && s.Profile == nil {
		return false
	}
	if s.Profile != nil && s.Identity == nil {
		return false
	}
	if s.Profile != nil && s.Role != s.Profile.Role {
		return false
	}
	return true
}
