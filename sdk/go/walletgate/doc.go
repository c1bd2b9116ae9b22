// Package walletgate provides an in-process policy gate for wallet SDKs.
// It wraps the state-mutating methods of derived accounts and protocol
// instances, and subjects every call to an ordered chain of user-supplied
// authorization policies before the original implementation runs. The
// first rejecting policy fails the call closed with a *Violation.
//
// Usage:
//
//	wg, err := walletgate.New()
//	wg.RegisterWallet("ethereum", provider)
//	err = wg.RegisterPolicies([]*walletgate.Policy{{
//	    Name:    "max-transfer-1eth",
//	    Target:  &walletgate.Target{Wallet: "ethereum"},
//	    Methods: []string{"sendTransaction"},
//	    Evaluate: func(ctx context.Context, req walletgate.Request) (bool, error) {
//	        v, _ := new(big.Int).SetString(fmt.Sprint(req.Params["value"]), 10)
//	        return v != nil && v.Cmp(oneEth) <= 0, nil
//	    },
//	}})
//	acct, err := wg.Account(ctx, "ethereum", 0)
//	_, err = acct.Call(ctx, "sendTransaction", walletgate.Params{"value": "2000000000000000000"})
//	// err is a *walletgate.Violation naming the policy and method
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/walletgate/walletgate/sdk/go/walletgate.
package walletgate
