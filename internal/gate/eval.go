package gate

import (
	"context"

	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
)

// runChain evaluates a method's policy chain in registration order.
// The first false result stops evaluation and rejects the call with a
// *policy.Violation; remaining policies are not consulted. An error from
// an evaluate function is a fault in the policy itself and propagates
// verbatim, so callers can tell "explicitly denied" from "policy broken".
func runChain(ctx context.Context, chain []*policy.Policy, method string, params model.Params, scope model.Scope) error {
	req := model.Request{Method: method, Params: params, Target: scope}
	for _, p := range chain {
		ok, err := p.Evaluate(ctx, req)
		if err != nil {
			return err
		}
		if !ok {
			return &policy.Violation{Policy: p.Name, Method: method, Target: scope}
		}
	}
	return nil
}
