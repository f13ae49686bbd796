package ratelimit

import "time"

// ScopeUnlock applies to password attempts on protected links. It carries
// a much smaller budget than ScopeWrite to slow down password guessing.
const ScopeUnlock Scope = "unlock"

// LimitConfig caps the number of requests inside a sliding window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them. A scope may carry
// several windows, e.g. a burst limit per minute and a cap per day.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder creates an empty policy builder.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{Limits: make(map[Scope][]LimitConfig)}}
}

// AddLimit appends a limit of max requests per window to scope.
func (b *PolicyBuilder) AddLimit(scope Scope, max int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: max})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy is the policy the server runs with. Redirects are read
// traffic and get the widest budget.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 2000, time.Minute).
		AddLimit(ScopeRead, 1000, time.Minute).
		AddLimit(ScopeWrite, 30, time.Minute).
		AddLimit(ScopeWrite, 500, 24*time.Hour).
		AddLimit(ScopeUnlock, 5, time.Minute).
		AddLimit(ScopeUnlock, 30, time.Hour).
		Build()
}
