package registry

import (
	"context"
	"fmt"
)

// Middleware runs once per freshly derived account, before the account is
// gated and returned. Middlewares run sequentially in registration order;
// the first error aborts the chain and the derivation.
type Middleware func(ctx context.Context, acct *Account) error

// Use appends middleware to the chain.
func (r *Registry) Use(mws ...Middleware) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mws = append(r.mws, mws...)
	return r
}

func (r *Registry) runMiddleware(ctx context.Context, acct *Account) error {
	r.mu.Lock()
	chain := append([]Middleware(nil), r.mws...)
	r.mu.Unlock()

	for i, mw := range chain {
		if err := mw(ctx, acct); err != nil {
			return fmt.Errorf("middleware %d: %w", i+1, err)
		}
	}
	return nil
}
