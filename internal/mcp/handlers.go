package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
	"github.com/walletgate/walletgate/internal/scenario"
)

// CheckInput defines parameters for the walletgate_check tool.
type CheckInput struct {
	Wallet     string         `json:"wallet,omitempty" jsonschema:"wallet identifier the call is scoped to"`
	Blockchain string         `json:"blockchain,omitempty" jsonschema:"protocol blockchain, for protocol-scoped calls"`
	Label      string         `json:"label,omitempty" jsonschema:"protocol label, for protocol-scoped calls"`
	Method     string         `json:"method" jsonschema:"method name under evaluation"`
	Params     map[string]any `json:"params,omitempty" jsonschema:"call parameters"`
}

// CheckOutput contains the dry-run outcome.
type CheckOutput struct {
	Allowed bool   `json:"allowed"`
	Policy  string `json:"policy,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// PoliciesInput is empty — no parameters needed.
type PoliciesInput struct{}

// PoliciesOutput lists loaded policy rules.
type PoliciesOutput struct {
	Policies []PolicyItem `json:"policies"`
}

// PolicyItem describes one loaded rule.
type PolicyItem struct {
	Name       string   `json:"name"`
	Target     string   `json:"target"`
	Methods    []string `json:"methods,omitempty"`
	Conditions int      `json:"conditions"`
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	scope := model.Scope{Wallet: input.Wallet}
	if input.Blockchain != "" || input.Label != "" {
		scope.Protocol = &model.ProtocolRef{Blockchain: input.Blockchain, Label: input.Label}
	}

	_, compiled := s.snapshot()
	allowed, violation, err := scenario.Evaluate(ctx, compiled, scope, input.Method, input.Params)
	if err != nil {
		return nil, CheckOutput{}, err
	}

	if !allowed {
		out := CheckOutput{
			Allowed: false,
			Policy:  violation.Policy,
			Reason:  violation.Error(),
		}
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}

	return nil, CheckOutput{Allowed: true}, nil
}

func (s *Server) handlePolicies(ctx context.Context, req *mcpsdk.CallToolRequest, input PoliciesInput) (*mcpsdk.CallToolResult, PoliciesOutput, error) {
	rules, _ := s.snapshot()

	out := PoliciesOutput{Policies: []PolicyItem{}}
	for _, rule := range rules.Policies {
		target := "global"
		if rule.Target != nil {
			target = targetString(rule.Target)
		}
		out.Policies = append(out.Policies, PolicyItem{
			Name:       rule.Name,
			Target:     target,
			Methods:    rule.Methods,
			Conditions: len(rule.Conditions),
		})
	}
	return nil, out, nil
}

func targetString(t *policy.Target) string {
	var parts []string
	if t.Wallet != "" {
		parts = append(parts, "wallet: "+t.Wallet)
	}
	if t.Protocol != nil {
		parts = append(parts, fmt.Sprintf("protocol: {blockchain: %s, label: %s}",
			t.Protocol.Blockchain, t.Protocol.Label))
	}
	if len(parts) == 0 {
		return "global"
	}
	return strings.Join(parts, ", ")
}
