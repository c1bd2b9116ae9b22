package walletgate

import (
	"github.com/walletgate/walletgate/internal/gate"
	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
	"github.com/walletgate/walletgate/internal/registry"
)

// Core policy types. The gate's own types are the SDK surface.
type (
	// Policy is a named authorization rule.
	Policy = policy.Policy

	// EvaluateFunc is the predicate a policy runs against a call.
	EvaluateFunc = policy.EvaluateFunc

	// Target restricts a policy to a (wallet, protocol) scope.
	Target = policy.Target

	// ProtocolTarget narrows a Target to a protocol binding.
	ProtocolTarget = policy.ProtocolTarget

	// Violation is the rejection error returned by gated methods.
	Violation = policy.Violation
)

// Domain model types.
type (
	// Scope identifies what a gated call concerns.
	Scope = model.Scope

	// ProtocolRef identifies a protocol binding.
	ProtocolRef = model.ProtocolRef

	// Params carries the arguments of a gated call.
	Params = model.Params

	// Request is what a policy predicate sees.
	Request = model.Request
)

// Instance plumbing.
type (
	// Method is one invocable member of a gated instance.
	Method = gate.Method

	// MethodTable is the capability registry of a gated instance.
	MethodTable = gate.MethodTable

	// Provider is the external wallet provider boundary.
	Provider = registry.Provider

	// Account is a gated derived account.
	Account = registry.Account

	// Protocol is a gated protocol instance.
	Protocol = registry.Protocol

	// ProtocolFactory constructs a protocol instance for an account.
	ProtocolFactory = registry.ProtocolFactory

	// Middleware runs once per freshly derived account.
	Middleware = registry.Middleware
)

// NewMethodTable creates an empty capability table.
func NewMethodTable() *MethodTable { return gate.NewMethodTable() }

// NewAccount builds an account around a provider-supplied method table.
func NewAccount(walletID, address, path string, methods *MethodTable) *Account {
	return registry.NewAccount(walletID, address, path, methods)
}

// NewProtocol builds a protocol instance around a factory-supplied table.
func NewProtocol(ref ProtocolRef, acct *Account, methods *MethodTable) *Protocol {
	return registry.NewProtocol(ref, acct, methods)
}
