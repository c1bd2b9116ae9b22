package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/walletgate/walletgate/internal/gate"
	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
)

// probe is a synthetic single-method instance used for dry-running a call
// through a real gate.
type probe struct {
	table *gate.MethodTable
}

func (p *probe) Methods() *gate.MethodTable { return p.table }

// Evaluate dry-runs one method call through a fresh gate manager loaded
// with the given policies. Returns whether the call would pass, and the
// violation when it would not. An evaluator fault is returned as err.
func Evaluate(ctx context.Context, policies []*policy.Policy, scope model.Scope, method string, params model.Params) (bool, *policy.Violation, error) {
	table := gate.NewMethodTable().Set(method, func(context.Context, model.Params) (any, error) {
		return "ok", nil
	})

	mgr := gate.NewManager()
	if err := mgr.RegisterPolicies(policies); err != nil {
		return false, nil, err
	}
	mgr.Gate(&probe{table: table}, scope)

	if _, err := table.Call(ctx, method, params); err != nil {
		var v *policy.Violation
		if errors.As(err, &v) {
			return false, v, nil
		}
		return false, nil, err
	}
	return true, nil, nil
}

// Run evaluates all cases against the given policies.
// Each case gets a fresh gate (cases are independent).
func Run(ctx context.Context, s *Scenario, policies []*policy.Policy) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		scope := model.Scope{Wallet: c.Call.Wallet, Protocol: c.Call.Protocol}
		expected := strings.ToLower(c.Expect)

		cr := CaseResult{
			Index:    i + 1,
			Method:   c.Call.Method,
			Scope:    scope.String(),
			Expected: expected,
		}

		allowed, violation, err := Evaluate(ctx, policies, scope, c.Call.Method, c.Call.Params)
		switch {
		case err != nil:
			cr.Actual = "error"
			cr.Reason = err.Error()
		case allowed:
			cr.Actual = "allow"
		default:
			cr.Actual = "reject"
			cr.Reason = violation.Error()
		}

		if cr.Actual == expected {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}

		result.Cases = append(result.Cases, cr)
	}

	return result
}

// LoadAndRun loads a scenario YAML file and the policy config, compiles
// the rules, and runs all cases.
func LoadAndRun(ctx context.Context, path, policyPath string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	cfg, err := policy.LoadConfig(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	policies, err := cfg.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}

	result := Run(ctx, &s, policies)
	result.File = path

	return result, nil
}
