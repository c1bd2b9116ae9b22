package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/walletgate/walletgate/internal/policy"
)

// Config holds MCP server configuration.
type Config struct {
	PolicyPath string
}

// Server wraps the MCP SDK server with walletgate policy dry-runs, so an
// agent can ask whether a wallet method call would pass before making it.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       Config

	mu       sync.Mutex
	rules    *policy.Config
	compiled []*policy.Policy
}

// New creates an MCP server with the policy file loaded and compiled.
func New(cfg Config) (*Server, error) {
	rules, err := policy.LoadConfig(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy config: %w", err)
	}
	compiled, err := rules.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile policy config: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		rules:    rules,
		compiled: compiled,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "walletgate",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// ReloadPolicy re-reads and re-compiles the policy file, swapping the
// active rule set. Used by the file watcher.
func (s *Server) ReloadPolicy() error {
	rules, err := policy.LoadConfig(s.cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("reload policy config: %w", err)
	}
	compiled, err := rules.Compile()
	if err != nil {
		return fmt.Errorf("recompile policy config: %w", err)
	}

	s.mu.Lock()
	s.rules = rules
	s.compiled = compiled
	s.mu.Unlock()
	return nil
}

// snapshot returns the active rule set and compiled policies.
func (s *Server) snapshot() (*policy.Config, []*policy.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules, s.compiled
}

// registerTools adds all walletgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "walletgate_check",
		Description: "Check whether a wallet or protocol method call would pass walletgate policy without executing it (dry-run).",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "walletgate_policies",
		Description: "List the policy rules currently loaded from the policy file.",
	}, s.handlePolicies)
}
