package gate

import (
	"context"
	"fmt"
	"sort"

	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
)

// Method is one invocable member of a gated instance.
type Method func(ctx context.Context, params model.Params) (any, error)

// Instance is anything the gate can wrap: an account or protocol object
// exposing its callable members through a method table.
type Instance interface {
	Methods() *MethodTable
}

// MethodTable is the stable registry of named callable members an instance
// exposes. A table may extend a parent table (a protocol subtype extending
// its base capabilities); lookups walk toward the root and the most-derived
// entry shadows. Gating swaps entries for checkpointed closures, always at
// the leaf level, so shared parent tables are never mutated.
type MethodTable struct {
	parent  *MethodTable
	methods map[string]Method
}

// NewMethodTable creates an empty root table.
func NewMethodTable() *MethodTable {
	return &MethodTable{methods: make(map[string]Method)}
}

// Extend creates a derived table whose lookups fall through to t.
func (t *MethodTable) Extend() *MethodTable {
	return &MethodTable{parent: t, methods: make(map[string]Method)}
}

// Set installs or replaces a method at this table's level.
func (t *MethodTable) Set(name string, m Method) *MethodTable {
	t.methods[name] = m
	return t
}

// Lookup resolves a method name, walking up the parent chain.
func (t *MethodTable) Lookup(name string) (Method, bool) {
	for tab := t; tab != nil; tab = tab.parent {
		if m, ok := tab.methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Names enumerates every callable member visible from this table, walking
// the full parent chain. Shadowed names appear once. Sorted for stable
// iteration.
func (t *MethodTable) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for tab := t; tab != nil; tab = tab.parent {
		for name := range tab.methods {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Call invokes a method by name. Unknown names are an error at the
// collaborator level, not a gate decision.
func (t *MethodTable) Call(ctx context.Context, name string, params model.Params) (any, error) {
	m, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown method %q", name)
	}
	return m(ctx, params)
}

// resolveMethods determines which method names a policy gates: its explicit
// list, or a capability scan of the instance's table. The scan runs per
// application; different instances expose different member sets.
func resolveMethods(p *policy.Policy, table *MethodTable) []string {
	if len(p.Methods) > 0 {
		return p.Methods
	}
	return table.Names()
}
