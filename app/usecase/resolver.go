package usecase

import (
	"context"
	"log/slog"
	"time"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
)

// ProfileResolver turns an authenticated identity into a usable role-bearing
// profile. It is the single resolution path shared by the bootstrapper, the
// event subscriber and the post-login operation; all three get the same
// fallback chain rather than divergent ad-hoc logic.
type ProfileResolver struct {
	profiles port.ProfileStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewProfileResolver creates a new ProfileResolver.
func NewProfileResolver(profiles port.ProfileStore, logger *slog.Logger) *ProfileResolver {
	return &ProfileResolver{
		profiles: profiles,
		logger:   logger.With("component", "profile_resolver"),
		now:      time.Now,
	}
}

// resolveFailure is the internal typed outcome of the durable lookup chain.
// The distinction between recovered and fatal is made here, at the type
// level, and collapsed to a guaranteed profile by the synthesis step.
type resolveFailure struct {
	stage string
	err   error
}

// Resolve fetches the durable profile for the identity, falling back to a
// synthesized least-privilege profile when the store is unreachable or
// misconfigured. It never returns an error; the result is nil only when the
// identity itself is invalid.
func (r *ProfileResolver) Resolve(ctx context.Context, identity *domain.Identity) *domain.Profile {
	if !identity.IsValid() {
		r.logger.Warn("profile resolution requested for invalid identity")
		return nil
	}

	profile, failure := r.lookupDurable(ctx, identity.ID.String(), identity)
	if failure == nil {
		return profile
	}

	r.logger.Warn("durable profile lookup failed, synthesizing fallback profile",
		"identity_id", identity.ID,
		"stage", failure.stage,
		"error", failure.err)

	return domain.NewFallbackProfile(identity, r.now())
}

// lookupDurable walks the ordered chain: standard lookup, then the
// privileged bypass when the standard path fails with the recursive-policy
// signature. Any other failure, including the privileged path itself
// failing or being unconfigured, falls through to synthesis.
func (r *ProfileResolver) lookupDurable(ctx context.Context, logID string, identity *domain.Identity) (*domain.Profile, *resolveFailure) {
	profile, err := r.profiles.GetByIdentity(ctx, identity.ID)
	if err == nil {
		return profile, nil
	}

	if !domain.IsRecursivePolicy(err) {
		return nil, &resolveFailure{stage: "standard_lookup", err: err}
	}

	r.logger.Warn("recursive row policy detected on profile lookup, trying privileged bypass",
		"identity_id", logID,
		"error", err)

	profile, privErr := r.profiles.GetByIdentityPrivileged(ctx, identity.ID)
	if privErr == nil {
		return profile, nil
	}
	return nil, &resolveFailure{stage: "privileged_lookup", err: privErr}
}
