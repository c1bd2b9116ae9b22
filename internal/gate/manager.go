package gate

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
)

// Manager owns the process-wide ordered policy list and the per-instance
// gate bookkeeping. It lives for the lifetime of the surrounding registry.
// Thread-safe for concurrent gated calls; callers must not gate the same
// instance concurrently.
type Manager struct {
	mu       sync.Mutex
	policies []*policy.Policy

	// Side table keyed by instance identity (the instance's method table
	// pointer). Gate bookkeeping never lives on the domain object itself.
	instances map[*MethodTable]*gateState
}

// gateState is the out-of-band bookkeeping for one gated instance.
type gateState struct {
	scope model.Scope
	table *MethodTable

	// chains maps method name to its ordered policy chain. Chain order
	// follows process-wide registration order.
	chains map[string][]*policy.Policy

	// wrapped marks methods that already carry a checkpoint, so repeated
	// gate application never double-wraps.
	wrapped map[string]bool
}

// NewManager creates an empty gate manager.
func NewManager() *Manager {
	return &Manager{instances: make(map[*MethodTable]*gateState)}
}

// RegisterPolicies validates and appends policies to the process-wide list.
// The whole batch is validated before any entry is appended: a malformed
// policy fails the call with nothing registered. Newly appended policies
// are applied to every instance gated so far, so they reach methods that
// were already wrapped.
func (m *Manager) RegisterPolicies(policies []*policy.Policy) error {
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range policies {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		m.policies = append(m.policies, p)
	}

	for _, st := range m.instances {
		m.apply(st, policies)
	}
	return nil
}

// Policies returns a snapshot of the registered policy list in order.
func (m *Manager) Policies() []*policy.Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*policy.Policy(nil), m.policies...)
}

// Gate wraps every matched method of the instance with a policy checkpoint.
// Called once per freshly constructed account or protocol instance, before
// the caller receives the reference. Re-gating the same instance is
// idempotent: chains grow only with policies not already present, and no
// method is wrapped twice.
func (m *Manager) Gate(inst Instance, scope model.Scope) Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := inst.Methods()
	st, ok := m.instances[table]
	if !ok {
		st = &gateState{
			scope:   scope,
			table:   table,
			chains:  make(map[string][]*policy.Policy),
			wrapped: make(map[string]bool),
		}
		m.instances[table] = st
	}

	m.apply(st, m.policies)
	return inst
}

// Release drops the gate bookkeeping for an instance. Optional: state is
// otherwise discarded with the manager.
func (m *Manager) Release(inst Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instances, inst.Methods())
}

// apply matches candidate policies against the instance's scope, grows the
// per-method chains, and installs checkpoints for methods not yet wrapped.
// Caller holds m.mu.
func (m *Manager) apply(st *gateState, candidates []*policy.Policy) {
	for _, p := range candidates {
		if !p.Target.Matches(st.scope) {
			continue
		}
		for _, name := range resolveMethods(p, st.table) {
			original, ok := st.table.Lookup(name)
			if !ok {
				// Policies are written against a superset of methods
				// across wallet kinds; unknown names are skipped.
				continue
			}
			if chainContains(st.chains[name], p) {
				continue
			}
			st.chains[name] = append(st.chains[name], p)

			if !st.wrapped[name] {
				st.table.Set(name, m.checkpoint(st, name, original))
				st.wrapped[name] = true
			}
		}
	}
}

// checkpoint wraps the original method. The chain is read at call time,
// not captured at wrap time, so policies registered after wrapping still
// gate the call.
func (m *Manager) checkpoint(st *gateState, name string, original Method) Method {
	return func(ctx context.Context, params model.Params) (any, error) {
		m.mu.Lock()
		chain := append([]*policy.Policy(nil), st.chains[name]...)
		m.mu.Unlock()

		if err := runChain(ctx, chain, name, params, st.scope); err != nil {
			return nil, err
		}
		return original(ctx, params)
	}
}

func chainContains(chain []*policy.Policy, p *policy.Policy) bool {
	for _, existing := range chain {
		if existing == p {
			return true
		}
	}
	return false
}
