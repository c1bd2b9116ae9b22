package scenario

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
)

func maxTransferPolicies(t *testing.T) []*policy.Policy {
	t.Helper()
	cfg := &policy.Config{Policies: []policy.Rule{
		{
			Name:    "max-transfer-1eth",
			Target:  &policy.Target{Wallet: "ethereum"},
			Methods: []string{"sendTransaction"},
			Conditions: []policy.Condition{
				{Field: "value", Operator: "lte", Value: "1000000000000000000"},
			},
		},
	}}
	policies, err := cfg.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return policies
}

func TestEvaluateAllowAndReject(t *testing.T) {
	policies := maxTransferPolicies(t)
	ctx := context.Background()
	scope := model.Scope{Wallet: "ethereum"}

	allowed, violation, err := Evaluate(ctx, policies, scope, "sendTransaction",
		model.Params{"value": "500000000000000000"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !allowed || violation != nil {
		t.Errorf("expected allow, got allowed=%v violation=%v", allowed, violation)
	}

	allowed, violation, err = Evaluate(ctx, policies, scope, "sendTransaction",
		model.Params{"value": "2000000000000000000"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if allowed || violation == nil {
		t.Fatalf("expected rejection, got allowed=%v", allowed)
	}
	if violation.Policy != "max-transfer-1eth" {
		t.Errorf("unexpected policy %q", violation.Policy)
	}
}

func TestEvaluateScopeFilter(t *testing.T) {
	policies := maxTransferPolicies(t)

	// Same over-limit call on a different wallet is out of the policy's scope.
	allowed, _, err := Evaluate(context.Background(), policies,
		model.Scope{Wallet: "ton"}, "sendTransaction",
		model.Params{"value": "2000000000000000000"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !allowed {
		t.Error("ton-scoped call must not be gated by the ethereum policy")
	}
}

func TestRunCountsPassesAndFailures(t *testing.T) {
	policies := maxTransferPolicies(t)

	s := &Scenario{
		Name: "transfer limits",
		Cases: []Case{
			{
				Call: Call{
					Wallet: "ethereum",
					Method: "sendTransaction",
					Params: map[string]any{"value": "500000000000000000"},
				},
				Expect: "allow",
			},
			{
				Call: Call{
					Wallet: "ethereum",
					Method: "sendTransaction",
					Params: map[string]any{"value": "2000000000000000000"},
				},
				Expect: "reject",
			},
			{
				// Wrong expectation: this call passes.
				Call: Call{
					Wallet: "ton",
					Method: "sendTransaction",
					Params: map[string]any{"value": "2000000000000000000"},
				},
				Expect: "reject",
			},
		},
	}

	result := Run(context.Background(), s, policies)
	if result.Total != 3 || result.Passed != 2 || result.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Cases[2].Passed {
		t.Error("case 3 must fail: expectation does not match outcome")
	}
	if result.Cases[1].Reason == "" {
		t.Error("rejected case must carry the violation reason")
	}
}

func TestLoadAndRun(t *testing.T) {
	dir := t.TempDir()

	policyPath := filepath.Join(dir, "policy.yaml")
	policyYAML := `policies:
  - name: max-transfer-1eth
    target:
      wallet: ethereum
    methods:
      - sendTransaction
    conditions:
      - field: value
        operator: lte
        value: "1000000000000000000"
`
	if err := os.WriteFile(policyPath, []byte(policyYAML), 0644); err != nil {
		t.Fatal(err)
	}

	scenarioPath := filepath.Join(dir, "transfers.yaml")
	scenarioYAML := `name: transfer limits
cases:
  - call:
      wallet: ethereum
      method: sendTransaction
      params:
        value: "2000000000000000000"
    expect: reject
  - call:
      wallet: ethereum
      method: sendTransaction
      params:
        value: "500000000000000000"
    expect: allow
`
	if err := os.WriteFile(scenarioPath, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := LoadAndRun(context.Background(), scenarioPath, policyPath)
	if err != nil {
		t.Fatalf("load and run: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("expected all cases to pass: %+v", result.Cases)
	}
	if result.File != scenarioPath {
		t.Errorf("result file not recorded: %q", result.File)
	}
}

func TestFormatText(t *testing.T) {
	results := []*RunResult{
		{Name: "ok", Total: 2, Passed: 2},
		{
			Name: "broken", Total: 1, Failed: 1,
			Cases: []CaseResult{{
				Index: 1, Method: "swap", Scope: "wallet: ethereum",
				Expected: "reject", Actual: "allow",
			}},
		},
	}

	out := FormatText(results)
	if !strings.Contains(out, "PASS  ok (2/2)") {
		t.Errorf("missing pass line:\n%s", out)
	}
	if !strings.Contains(out, "FAIL  broken (0/1)") {
		t.Errorf("missing fail line:\n%s", out)
	}
	if !strings.Contains(out, "expected reject, got allow") {
		t.Errorf("missing case detail:\n%s", out)
	}
	if !strings.Contains(out, "2 of 3 cases passed.") {
		t.Errorf("missing summary:\n%s", out)
	}
}
