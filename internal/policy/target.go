package policy

import (
	"github.com/walletgate/walletgate/internal/model"
)

// Target restricts a policy to a (wallet, protocol) scope.
// Absent fields are wildcards.
type Target struct {
	Wallet   string          `yaml:"wallet,omitempty" json:"wallet,omitempty"`
	Protocol *ProtocolTarget `yaml:"protocol,omitempty" json:"protocol,omitempty"`
}

// ProtocolTarget narrows a Target to a protocol binding.
// Empty sub-fields are wildcards.
type ProtocolTarget struct {
	Blockchain string `yaml:"blockchain,omitempty" json:"blockchain,omitempty"`
	Label      string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Matches reports whether the target applies to the given scope.
// A nil target matches every scope. Present fields are exact-match.
func (t *Target) Matches(scope model.Scope) bool {
	if t == nil {
		return true
	}
	if t.Wallet != "" && t.Wallet != scope.Wallet {
		return false
	}
	if t.Protocol != nil {
		if scope.Protocol == nil {
			return false
		}
		if t.Protocol.Blockchain != "" && t.Protocol.Blockchain != scope.Protocol.Blockchain {
			return false
		}
		if t.Protocol.Label != "" && t.Protocol.Label != scope.Protocol.Label {
			return false
		}
	}
	return true
}
