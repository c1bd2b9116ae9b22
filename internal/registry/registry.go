package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/walletgate/walletgate/internal/gate"
	"github.com/walletgate/walletgate/internal/model"
)

// Provider is the external wallet provider boundary: key management,
// account derivation, and seed handling live behind it, never in the gate.
type Provider interface {
	// DeriveAccount derives an account by index.
	DeriveAccount(ctx context.Context, index uint32) (*Account, error)

	// DeriveAccountAtPath derives an account by derivation path.
	DeriveAccountAtPath(ctx context.Context, path string) (*Account, error)

	// ValidateSeed checks a seed phrase.
	ValidateSeed(seed string) error

	// RandomSeed generates a new random seed phrase.
	RandomSeed() (string, error)
}

// Account is a derived wallet account. Its callable members live in a
// method table so the gate can checkpoint them.
type Account struct {
	WalletID string
	Address  string
	Path     string

	methods *gate.MethodTable
}

// NewAccount builds an account around a provider-supplied method table.
func NewAccount(walletID, address, path string, methods *gate.MethodTable) *Account {
	if methods == nil {
		methods = gate.NewMethodTable()
	}
	return &Account{WalletID: walletID, Address: address, Path: path, methods: methods}
}

// Methods exposes the account's capability table to the gate.
func (a *Account) Methods() *gate.MethodTable { return a.methods }

// Call invokes a named method on the account.
func (a *Account) Call(ctx context.Context, method string, params model.Params) (any, error) {
	return a.methods.Call(ctx, method, params)
}

// Scope returns the gate scope for this account.
func (a *Account) Scope() model.Scope {
	return model.Scope{Wallet: a.WalletID}
}

// Protocol is a protocol binding instance (swap, bridge, lending, fiat)
// constructed for a specific account. Opaque to the gate beyond its
// method names.
type Protocol struct {
	Ref     model.ProtocolRef
	Account *Account

	methods *gate.MethodTable
}

// NewProtocol builds a protocol instance around a factory-supplied table.
func NewProtocol(ref model.ProtocolRef, acct *Account, methods *gate.MethodTable) *Protocol {
	if methods == nil {
		methods = gate.NewMethodTable()
	}
	return &Protocol{Ref: ref, Account: acct, methods: methods}
}

// Methods exposes the protocol's capability table to the gate.
func (p *Protocol) Methods() *gate.MethodTable { return p.methods }

// Call invokes a named method on the protocol instance.
func (p *Protocol) Call(ctx context.Context, method string, params model.Params) (any, error) {
	return p.methods.Call(ctx, method, params)
}

// Scope returns the gate scope for this protocol instance.
func (p *Protocol) Scope() model.Scope {
	ref := p.Ref
	scope := model.Scope{Protocol: &ref}
	if p.Account != nil {
		scope.Wallet = p.Account.WalletID
	}
	return scope
}

// ProtocolFactory constructs a protocol instance for an account.
type ProtocolFactory func(ctx context.Context, acct *Account) (*Protocol, error)

type protoKey struct {
	blockchain string
	label      string
}

// Registry is the wallet/protocol bookkeeping around the gate manager.
// Every instance it produces is gated before the caller sees it.
type Registry struct {
	mu        sync.Mutex
	manager   *gate.Manager
	providers map[string]Provider
	factories map[protoKey]ProtocolFactory
	mws       []Middleware
}

// New creates a registry owning the given gate manager.
func New(manager *gate.Manager) *Registry {
	if manager == nil {
		manager = gate.NewManager()
	}
	return &Registry{
		manager:   manager,
		providers: make(map[string]Provider),
		factories: make(map[protoKey]ProtocolFactory),
	}
}

// Manager returns the owned gate manager.
func (r *Registry) Manager() *gate.Manager { return r.manager }

// RegisterWallet registers a provider under a wallet identifier.
func (r *Registry) RegisterWallet(walletID string, p Provider) error {
	if walletID == "" {
		return fmt.Errorf("wallet id must not be empty")
	}
	if p == nil {
		return fmt.Errorf("wallet %q: nil provider", walletID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[walletID]; exists {
		return fmt.Errorf("wallet %q already registered", walletID)
	}
	r.providers[walletID] = p
	return nil
}

// RegisterProtocol registers a protocol factory under a binding.
func (r *Registry) RegisterProtocol(ref model.ProtocolRef, factory ProtocolFactory) error {
	if ref.Blockchain == "" || ref.Label == "" {
		return fmt.Errorf("protocol binding requires blockchain and label")
	}
	if factory == nil {
		return fmt.Errorf("protocol %s: nil factory", ref)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := protoKey{ref.Blockchain, ref.Label}
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("protocol %s already registered", ref)
	}
	r.factories[key] = factory
	return nil
}

// Account derives an account by index, runs the middleware chain, and
// gates the result. On middleware failure the account is not returned.
func (r *Registry) Account(ctx context.Context, walletID string, index uint32) (*Account, error) {
	p, err := r.provider(walletID)
	if err != nil {
		return nil, err
	}
	acct, err := p.DeriveAccount(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: derive account %d: %w", walletID, index, err)
	}
	return r.finishAccount(ctx, acct)
}

// AccountAt derives an account by derivation path, runs the middleware
// chain, and gates the result.
func (r *Registry) AccountAt(ctx context.Context, walletID, path string) (*Account, error) {
	p, err := r.provider(walletID)
	if err != nil {
		return nil, err
	}
	acct, err := p.DeriveAccountAtPath(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: derive account at %q: %w", walletID, path, err)
	}
	return r.finishAccount(ctx, acct)
}

// Protocol constructs a globally registered protocol instance for an
// account and gates it before return.
func (r *Registry) Protocol(ctx context.Context, acct *Account, blockchain, label string) (*Protocol, error) {
	r.mu.Lock()
	factory, ok := r.factories[protoKey{blockchain, label}]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("protocol {blockchain: %s, label: %s} not registered", blockchain, label)
	}
	return r.buildProtocol(ctx, acct, factory)
}

// AdHocProtocol constructs a protocol instance from a factory registered
// for this one account, bypassing the global factory table. The instance
// is gated exactly like a globally registered one.
func (r *Registry) AdHocProtocol(ctx context.Context, acct *Account, factory ProtocolFactory) (*Protocol, error) {
	if factory == nil {
		return nil, fmt.Errorf("ad hoc protocol: nil factory")
	}
	return r.buildProtocol(ctx, acct, factory)
}

// ValidateSeed delegates seed validation to the wallet's provider.
func (r *Registry) ValidateSeed(walletID, seed string) error {
	p, err := r.provider(walletID)
	if err != nil {
		return err
	}
	return p.ValidateSeed(seed)
}

// RandomSeed delegates seed generation to the wallet's provider.
func (r *Registry) RandomSeed(walletID string) (string, error) {
	p, err := r.provider(walletID)
	if err != nil {
		return "", err
	}
	return p.RandomSeed()
}

func (r *Registry) provider(walletID string) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %q not registered", walletID)
	}
	return p, nil
}

func (r *Registry) finishAccount(ctx context.Context, acct *Account) (*Account, error) {
	if err := r.runMiddleware(ctx, acct); err != nil {
		return nil, err
	}
	r.manager.Gate(acct, acct.Scope())
	return acct, nil
}

func (r *Registry) buildProtocol(ctx context.Context, acct *Account, factory ProtocolFactory) (*Protocol, error) {
	inst, err := factory(ctx, acct)
	if err != nil {
		return nil, fmt.Errorf("protocol construction failed: %w", err)
	}
	r.manager.Gate(inst, inst.Scope())
	return inst, nil
}
