package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/walletgate/walletgate/internal/model"
)

// EvaluateFunc is the predicate a policy runs against an intercepted call.
// Returning false rejects the call. An error is a fault in the policy
// itself and is propagated verbatim, never treated as a rejection.
type EvaluateFunc func(ctx context.Context, req model.Request) (bool, error)

// Policy is a named authorization rule evaluated before a gated method runs.
type Policy struct {
	// ID is assigned at registration time if unset.
	ID uuid.UUID

	// Name identifies the policy in error messages. Not required to be
	// unique; chain position follows registration order.
	Name string

	// Target restricts which scopes the policy applies to.
	// Nil applies to every scope.
	Target *Target

	// Methods is the explicit set of method names to gate. Empty gates
	// every callable member discovered on the instance.
	Methods []string

	// Evaluate decides the call. Required.
	Evaluate EvaluateFunc
}

// ErrInvalidPolicy is wrapped by all registration validation failures.
var ErrInvalidPolicy = fmt.Errorf("invalid policy")

// Validate checks the fields required for registration.
func (p *Policy) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil policy", ErrInvalidPolicy)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPolicy)
	}
	if p.Evaluate == nil {
		return fmt.Errorf("%w: policy %q has no evaluate function", ErrInvalidPolicy, p.Name)
	}
	return nil
}

// Violation is returned when a policy in a method's chain rejects the call.
// The original method is never invoked.
type Violation struct {
	Policy string
	Method string
	Target model.Scope
}

func (e *Violation) Error() string {
	return fmt.Sprintf("Policy %q rejected method %q for %s", e.Policy, e.Method, e.Target)
}
