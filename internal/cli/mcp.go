package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	gatemcp "github.com/walletgate/walletgate/internal/mcp"
)

var (
	mcpPolicy string
	mcpWatch  bool
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPolicy, "policy", "", "Path to policy YAML")
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", false, "Hot-reload policy on file change")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs walletgate as an MCP (Model Context Protocol) server over stdio.\nExposes tools: walletgate_check (dry-run), walletgate_policies (list rules).",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := gatemcp.New(gatemcp.Config{PolicyPath: mcpPolicy})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	if mcpWatch && mcpPolicy != "" {
		reloader, err := gatemcp.NewReloader(srv, []string{mcpPolicy})
		if err != nil {
			return fmt.Errorf("failed to create policy watcher: %w", err)
		}
		go func() {
			if err := reloader.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "policy watcher stopped: %v\n", err)
			}
		}()
	}

	fmt.Fprintln(os.Stderr, "walletgate MCP server running on stdio")
	return srv.Run(ctx)
}
