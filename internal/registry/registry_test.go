package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/walletgate/walletgate/internal/gate"
	"github.com/walletgate/walletgate/internal/model"
	"github.com/walletgate/walletgate/internal/policy"
)

// stubProvider is a fake external wallet provider.
type stubProvider struct {
	walletID  string
	seedErr   error
	derives   int
	validates []string
}

func (p *stubProvider) DeriveAccount(_ context.Context, index uint32) (*Account, error) {
	p.derives++
	table := gate.NewMethodTable().
		Set("sendTransaction", func(context.Context, model.Params) (any, error) {
			return "tx-hash", nil
		}).
		Set("signMessage", func(context.Context, model.Params) (any, error) {
			return "signature", nil
		})
	addr := fmt.Sprintf("0xacct%d", index)
	return NewAccount(p.walletID, addr, fmt.Sprintf("m/44'/60'/0'/0/%d", index), table), nil
}

func (p *stubProvider) DeriveAccountAtPath(ctx context.Context, path string) (*Account, error) {
	acct, err := p.DeriveAccount(ctx, 0)
	if err != nil {
		return nil, err
	}
	acct.Path = path
	return acct, nil
}

func (p *stubProvider) ValidateSeed(seed string) error {
	p.validates = append(p.validates, seed)
	return p.seedErr
}

func (p *stubProvider) RandomSeed() (string, error) {
	return "abandon abandon ability", nil
}

func newTestRegistry(t *testing.T) (*Registry, *stubProvider) {
	t.Helper()
	r := New(nil)
	p := &stubProvider{walletID: "ethereum"}
	if err := r.RegisterWallet("ethereum", p); err != nil {
		t.Fatalf("register wallet: %v", err)
	}
	return r, p
}

func TestAccountIsGatedBeforeReturn(t *testing.T) {
	r, _ := newTestRegistry(t)

	deny := &policy.Policy{
		Name:   "deny-eth-sends",
		Target: &policy.Target{Wallet: "ethereum"},
		Evaluate: func(context.Context, model.Request) (bool, error) {
			return false, nil
		},
	}
	if err := r.Manager().RegisterPolicies([]*policy.Policy{deny}); err != nil {
		t.Fatalf("register: %v", err)
	}

	acct, err := r.Account(context.Background(), "ethereum", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	_, err = acct.Call(context.Background(), "sendTransaction", nil)
	var v *policy.Violation
	if !errors.As(err, &v) {
		t.Fatalf("account must come back gated, got %v", err)
	}
}

func TestAccountAtPath(t *testing.T) {
	r, _ := newTestRegistry(t)

	acct, err := r.AccountAt(context.Background(), "ethereum", "m/44'/60'/1'/0/7")
	if err != nil {
		t.Fatalf("derive at path: %v", err)
	}
	if acct.Path != "m/44'/60'/1'/0/7" {
		t.Errorf("unexpected path %q", acct.Path)
	}
}

func TestUnknownWallet(t *testing.T) {
	r, _ := newTestRegistry(t)

	if _, err := r.Account(context.Background(), "solana", 0); err == nil {
		t.Error("expected error for unregistered wallet")
	}
	if err := r.ValidateSeed("solana", "seed"); err == nil {
		t.Error("expected error for unregistered wallet")
	}
}

func TestDuplicateRegistrations(t *testing.T) {
	r, p := newTestRegistry(t)

	if err := r.RegisterWallet("ethereum", p); err == nil {
		t.Error("expected duplicate wallet registration to fail")
	}

	ref := model.ProtocolRef{Blockchain: "ethereum", Label: "mainnet"}
	factory := func(_ context.Context, acct *Account) (*Protocol, error) {
		return NewProtocol(ref, acct, nil), nil
	}
	if err := r.RegisterProtocol(ref, factory); err != nil {
		t.Fatalf("register protocol: %v", err)
	}
	if err := r.RegisterProtocol(ref, factory); err == nil {
		t.Error("expected duplicate protocol registration to fail")
	}
}

func TestMiddlewareRunsInOrder(t *testing.T) {
	r, _ := newTestRegistry(t)

	var order []string
	r.Use(
		func(_ context.Context, acct *Account) error {
			order = append(order, "first:"+acct.Address)
			return nil
		},
		func(_ context.Context, acct *Account) error {
			order = append(order, "second:"+acct.Address)
			return nil
		},
	)

	if _, err := r.Account(context.Background(), "ethereum", 3); err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(order) != 2 || order[0] != "first:0xacct3" || order[1] != "second:0xacct3" {
		t.Errorf("middleware order wrong: %v", order)
	}
}

func TestMiddlewareErrorAbortsDerivation(t *testing.T) {
	r, _ := newTestRegistry(t)

	boom := fmt.Errorf("kyc check failed")
	ran := false
	r.Use(
		func(context.Context, *Account) error { return boom },
		func(context.Context, *Account) error { ran = true; return nil },
	)

	acct, err := r.Account(context.Background(), "ethereum", 0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected middleware error, got %v", err)
	}
	if acct != nil {
		t.Error("account must not be returned on middleware failure")
	}
	if ran {
		t.Error("later middleware must not run after a failure")
	}
}

func TestProtocolInstanceGated(t *testing.T) {
	r, _ := newTestRegistry(t)

	ref := model.ProtocolRef{Blockchain: "ethereum", Label: "mainnet"}
	err := r.RegisterProtocol(ref, func(_ context.Context, acct *Account) (*Protocol, error) {
		table := gate.NewMethodTable().Set("swap", func(context.Context, model.Params) (any, error) {
			return "swapped", nil
		})
		return NewProtocol(ref, acct, table), nil
	})
	if err != nil {
		t.Fatalf("register protocol: %v", err)
	}

	denySwap := &policy.Policy{
		Name: "no-mainnet-swaps",
		Target: &policy.Target{
			Protocol: &policy.ProtocolTarget{Blockchain: "ethereum", Label: "mainnet"},
		},
		Evaluate: func(context.Context, model.Request) (bool, error) {
			return false, nil
		},
	}
	if err := r.Manager().RegisterPolicies([]*policy.Policy{denySwap}); err != nil {
		t.Fatalf("register policy: %v", err)
	}

	acct, err := r.Account(context.Background(), "ethereum", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	proto, err := r.Protocol(context.Background(), acct, "ethereum", "mainnet")
	if err != nil {
		t.Fatalf("protocol: %v", err)
	}

	_, err = proto.Call(context.Background(), "swap", nil)
	var v *policy.Violation
	if !errors.As(err, &v) {
		t.Fatalf("protocol instance must come back gated, got %v", err)
	}
	if v.Target.Protocol == nil || v.Target.Protocol.Label != "mainnet" {
		t.Errorf("violation scope must carry the protocol binding: %+v", v.Target)
	}
}

func TestUnknownProtocol(t *testing.T) {
	r, _ := newTestRegistry(t)
	acct, err := r.Account(context.Background(), "ethereum", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if _, err := r.Protocol(context.Background(), acct, "ethereum", "nope"); err == nil {
		t.Error("expected error for unregistered protocol")
	}
}

func TestAdHocProtocolGated(t *testing.T) {
	r, _ := newTestRegistry(t)

	deny := &policy.Policy{
		Name: "deny-all",
		Evaluate: func(context.Context, model.Request) (bool, error) {
			return false, nil
		},
	}
	if err := r.Manager().RegisterPolicies([]*policy.Policy{deny}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// deny-all gates the account's methods; derivation itself still works.
	acct, err := r.Account(context.Background(), "ethereum", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	ref := model.ProtocolRef{Blockchain: "ethereum", Label: "custom-dex"}
	proto, err := r.AdHocProtocol(context.Background(), acct, func(_ context.Context, a *Account) (*Protocol, error) {
		table := gate.NewMethodTable().Set("swap", func(context.Context, model.Params) (any, error) {
			return "swapped", nil
		})
		return NewProtocol(ref, a, table), nil
	})
	if err != nil {
		t.Fatalf("ad hoc protocol: %v", err)
	}

	if _, err := proto.Call(context.Background(), "swap", nil); err == nil {
		t.Error("ad hoc protocol instance must be gated like a registered one")
	}
}

func TestSeedDelegation(t *testing.T) {
	r, p := newTestRegistry(t)

	if err := r.ValidateSeed("ethereum", "abandon abandon ability"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(p.validates) != 1 || p.validates[0] != "abandon abandon ability" {
		t.Errorf("seed validation not delegated: %v", p.validates)
	}

	seed, err := r.RandomSeed("ethereum")
	if err != nil {
		t.Fatalf("random seed: %v", err)
	}
	if seed != "abandon abandon ability" {
		t.Errorf("random seed not delegated, got %q", seed)
	}

	p.seedErr = fmt.Errorf("bad checksum")
	if err := r.ValidateSeed("ethereum", "junk"); err == nil {
		t.Error("provider error must propagate")
	}
}
