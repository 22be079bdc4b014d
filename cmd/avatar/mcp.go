package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/vtyagi/avatar/internal/api"
	"github.com/vtyagi/avatar/internal/chat"
	"github.com/vtyagi/avatar/internal/config"
	"github.com/vtyagi/avatar/internal/ollama"
	"github.com/vtyagi/avatar/internal/profile"
	"github.com/vtyagi/avatar/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the portfolio over MCP on stdio",
	Long: `Serve the portfolio over MCP on stdio, for agent hosts.

The profile tools work standalone; the ask tool additionally needs a
reachable Ollama instance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout is the MCP transport; logs must stay on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	profiles, err := profile.Load(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("loading profile data: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.MCPDeps{Profiles: profiles}

	// The ask tool is only wired when Ollama is reachable; the profile tools
	// do not need a model.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	if ollamaClient.IsRunning(ctx) {
		deps.Chat = chat.New(session.NewMemoryStore(), profiles, ollamaClient,
			cfg.Ollama.Model, cfg.Session.HistoryWindow, nil, 0)
	} else {
		slog.Warn("ollama not reachable, ask tool disabled", "base_url", cfg.Ollama.BaseURL)
	}

	mcpSrv := api.NewMCPServer(deps)
	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
