package walletgate

import (
	"context"
	"fmt"

	"github.com/walletgate/walletgate/internal/gate"
	"github.com/walletgate/walletgate/internal/policy"
	"github.com/walletgate/walletgate/internal/registry"
	"github.com/walletgate/walletgate/internal/scenario"
)

// Client owns a gate manager and the wallet/protocol registry around it.
// Every account or protocol instance it produces is gated before the
// caller receives the reference.
type Client struct {
	manager  *gate.Manager
	registry *registry.Registry
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o(&cfg)
	}

	manager := gate.NewManager()
	reg := registry.New(manager)

	c := &Client{manager: manager, registry: reg}

	if len(cfg.policies) > 0 {
		if err := manager.RegisterPolicies(cfg.policies); err != nil {
			return nil, fmt.Errorf("walletgate: %w", err)
		}
	}

	if cfg.policyPath != "" {
		fileCfg, err := policy.LoadConfig(cfg.policyPath)
		if err != nil {
			return nil, fmt.Errorf("walletgate: failed to load policy config: %w", err)
		}
		compiled, err := fileCfg.Compile()
		if err != nil {
			return nil, fmt.Errorf("walletgate: %w", err)
		}
		if err := manager.RegisterPolicies(compiled); err != nil {
			return nil, fmt.Errorf("walletgate: %w", err)
		}
	}

	reg.Use(cfg.middleware...)
	return c, nil
}

// RegisterPolicies validates and appends policies to the process-wide
// ordered list. The whole batch is validated before any entry is appended.
// Already-gated instances pick up the new policies immediately.
func (c *Client) RegisterPolicies(policies []*Policy) error {
	return c.manager.RegisterPolicies(policies)
}

// Policies returns a snapshot of the registered policies in order.
func (c *Client) Policies() []*Policy {
	return c.manager.Policies()
}

// RegisterWallet registers an external provider under a wallet identifier.
func (c *Client) RegisterWallet(walletID string, p Provider) error {
	return c.registry.RegisterWallet(walletID, p)
}

// RegisterProtocol registers a protocol factory under a binding.
func (c *Client) RegisterProtocol(ref ProtocolRef, factory ProtocolFactory) error {
	return c.registry.RegisterProtocol(ref, factory)
}

// Use appends account middleware.
func (c *Client) Use(mws ...Middleware) *Client {
	c.registry.Use(mws...)
	return c
}

// Account derives a gated account by index.
func (c *Client) Account(ctx context.Context, walletID string, index uint32) (*Account, error) {
	return c.registry.Account(ctx, walletID, index)
}

// AccountAt derives a gated account by derivation path.
func (c *Client) AccountAt(ctx context.Context, walletID, path string) (*Account, error) {
	return c.registry.AccountAt(ctx, walletID, path)
}

// Protocol constructs a gated instance of a globally registered protocol.
func (c *Client) Protocol(ctx context.Context, acct *Account, blockchain, label string) (*Protocol, error) {
	return c.registry.Protocol(ctx, acct, blockchain, label)
}

// AdHocProtocol constructs a gated protocol instance from a one-off factory.
func (c *Client) AdHocProtocol(ctx context.Context, acct *Account, factory ProtocolFactory) (*Protocol, error) {
	return c.registry.AdHocProtocol(ctx, acct, factory)
}

// ValidateSeed delegates seed validation to the wallet's provider.
func (c *Client) ValidateSeed(walletID, seed string) error {
	return c.registry.ValidateSeed(walletID, seed)
}

// RandomSeed delegates seed generation to the wallet's provider.
func (c *Client) RandomSeed(walletID string) (string, error) {
	return c.registry.RandomSeed(walletID)
}

// Check dry-runs a method call against the registered policies without
// executing anything. The violation is non-nil when the call would fail.
func (c *Client) Check(ctx context.Context, scope Scope, method string, params Params) (bool, *Violation, error) {
	return scenario.Evaluate(ctx, c.manager.Policies(), scope, method, params)
}
