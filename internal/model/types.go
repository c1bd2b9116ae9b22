package model

import (
	"fmt"
	"strings"
)

// ProtocolRef identifies a specific protocol binding.
type ProtocolRef struct {
	Blockchain string `yaml:"blockchain" json:"blockchain"`
	Label      string `yaml:"label" json:"label"`
}

func (p ProtocolRef) String() string {
	return fmt.Sprintf("{blockchain: %s, label: %s}", p.Blockchain, p.Label)
}

// Scope identifies what a gated call concerns: the wallet an account was
// derived for and, for protocol instances, the protocol binding.
// A zero Scope is global.
type Scope struct {
	Wallet   string       `yaml:"wallet,omitempty" json:"wallet,omitempty"`
	Protocol *ProtocolRef `yaml:"protocol,omitempty" json:"protocol,omitempty"`
}

// IsGlobal reports whether the scope carries no identifying fields.
func (s Scope) IsGlobal() bool {
	return s.Wallet == "" && s.Protocol == nil
}

// String renders the scope for error messages: "wallet: W",
// "protocol: {blockchain: B, label: L}", both joined by ", ",
// or "global" when empty.
func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	var parts []string
	if s.Wallet != "" {
		parts = append(parts, "wallet: "+s.Wallet)
	}
	if s.Protocol != nil {
		parts = append(parts, "protocol: "+s.Protocol.String())
	}
	return strings.Join(parts, ", ")
}

// Params carries the arguments of an intercepted method call.
type Params map[string]any

// Request is what a policy predicate sees: the method under evaluation,
// its arguments, and the scope of the instance the call was made on.
type Request struct {
	Method string
	Params Params
	Target Scope
}
