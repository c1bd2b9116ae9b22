package policy

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/walletgate/walletgate/internal/model"
)

// Condition is one predicate on the params of an intercepted call.
// All conditions of a rule must hold for the call to pass.
type Condition struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

// Rule is a declarative policy loaded from YAML. Compile turns it into a
// Policy whose evaluate function checks every condition against the call
// params. A call with no matching conditions passes; the rule rejects when
// any condition fails.
type Rule struct {
	Name       string      `yaml:"name"`
	Target     *Target     `yaml:"target,omitempty"`
	Methods    []string    `yaml:"methods,omitempty"`
	Conditions []Condition `yaml:"conditions,omitempty"`
}

// Config holds all declarative policy rules.
type Config struct {
	Policies []Rule `yaml:"policies"`
}

// DefaultConfig returns an empty rule set.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads policy rules from a YAML file.
// Empty path falls back to ~/.walletgate/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".walletgate", "policy.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read policy config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy config: %w", err)
	}

	return cfg, nil
}

// Compile turns declarative rules into Policy values in file order.
func (c *Config) Compile() ([]*Policy, error) {
	policies := make([]*Policy, 0, len(c.Policies))
	for i, rule := range c.Policies {
		if rule.Name == "" {
			return nil, fmt.Errorf("%w: rule %d has no name", ErrInvalidPolicy, i+1)
		}
		for _, cond := range rule.Conditions {
			if !validOperator(cond.Operator) {
				return nil, fmt.Errorf("%w: rule %q condition on %q uses unknown operator %q",
					ErrInvalidPolicy, rule.Name, cond.Field, cond.Operator)
			}
		}
		policies = append(policies, &Policy{
			Name:     rule.Name,
			Target:   rule.Target,
			Methods:  rule.Methods,
			Evaluate: compileConditions(rule.Conditions),
		})
	}
	return policies, nil
}

func compileConditions(conds []Condition) EvaluateFunc {
	return func(_ context.Context, req model.Request) (bool, error) {
		for _, c := range conds {
			if !c.holds(req.Params[c.Field]) {
				return false, nil
			}
		}
		return true, nil
	}
}

func validOperator(op string) bool {
	switch op {
	case "eq", "ne", "lt", "lte", "gt", "gte", "in", "contains":
		return true
	}
	return false
}

// holds checks one condition against a single param value.
// A missing param fails every operator except "ne".
func (c Condition) holds(got any) bool {
	switch c.Operator {
	case "eq":
		return looseEqual(got, c.Value)
	case "ne":
		return !looseEqual(got, c.Value)
	case "in":
		list, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, v := range list {
			if looseEqual(got, v) {
				return true
			}
		}
		return false
	case "contains":
		s, ok := got.(string)
		if !ok {
			return false
		}
		sub, ok := c.Value.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	case "lt", "lte", "gt", "gte":
		a, aok := toBigFloat(got)
		b, bok := toBigFloat(c.Value)
		if !aok || !bok {
			return false
		}
		cmp := a.Cmp(b)
		switch c.Operator {
		case "lt":
			return cmp < 0
		case "lte":
			return cmp <= 0
		case "gt":
			return cmp > 0
		default:
			return cmp >= 0
		}
	}
	return false
}

// looseEqual compares param values across the types YAML and callers
// produce: numbers compare numerically, strings case-insensitively.
func looseEqual(a, b any) bool {
	if af, aok := toBigFloat(a); aok {
		if bf, bok := toBigFloat(b); bok {
			return af.Cmp(bf) == 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.EqualFold(as, bs)
	}
	// YAML lists and maps land here as []any / map[string]any; comparing
	// two of those with == panics, so treat them as unequal.
	if !comparableValue(a) || !comparableValue(b) {
		return false
	}
	return a == b
}

func comparableValue(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// toBigFloat coerces the numeric shapes seen in params: Go ints and floats,
// decimal strings (wei amounts), and math/big values.
func toBigFloat(v any) (*big.Float, bool) {
	switch n := v.(type) {
	case int:
		return new(big.Float).SetInt64(int64(n)), true
	case int64:
		return new(big.Float).SetInt64(n), true
	case uint64:
		return new(big.Float).SetUint64(n), true
	case float64:
		return big.NewFloat(n), true
	case *big.Int:
		return new(big.Float).SetInt(n), true
	case *big.Float:
		return n, true
	case string:
		f, ok := new(big.Float).SetString(n)
		return f, ok
	default:
		return nil, false
	}
}

// DefaultConfigYAML returns a commented YAML string for init-policy.
func DefaultConfigYAML() string {
	return `# walletgate policy configuration
# Generated by: walletgate init-policy
#
# Policies are evaluated in file order for every gated method call.
# The first rule whose conditions fail rejects the call; remaining
# rules are not evaluated.

# Fields:
#   name: policy name, reported in rejection errors
#   target: optional scope restriction (absent = every scope)
#     wallet: wallet identifier
#     protocol: { blockchain, label }
#   methods: method names to gate (absent = every callable method)
#   conditions: all must hold for the call to pass
#     field: param name
#     operator: eq | ne | lt | lte | gt | gte | in | contains
#     value: comparison value (decimal strings compare numerically)
policies:
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
}
