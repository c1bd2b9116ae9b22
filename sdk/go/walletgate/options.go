package walletgate

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath string
	policies   []*Policy
	middleware []Middleware
}

// WithPolicyFile loads declarative policy rules from a YAML file at
// creation time. A missing file is not an error.
func WithPolicyFile(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithPolicies registers policies at creation time, before the policy
// file's rules.
func WithPolicies(policies ...*Policy) Option {
	return func(c *clientConfig) { c.policies = append(c.policies, policies...) }
}

// WithMiddleware appends account middleware at creation time.
func WithMiddleware(mws ...Middleware) Option {
	return func(c *clientConfig) { c.middleware = append(c.middleware, mws...) }
}
