package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vtyagi/avatar/internal/api"
	"github.com/vtyagi/avatar/internal/chat"
	"github.com/vtyagi/avatar/internal/config"
	"github.com/vtyagi/avatar/internal/ingest"
	"github.com/vtyagi/avatar/internal/ollama"
	"github.com/vtyagi/avatar/internal/profile"
	"github.com/vtyagi/avatar/internal/retrieval"
	"github.com/vtyagi/avatar/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the avatar server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running avatar server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show avatar system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "avatar.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "avatar version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Check if server is already running via health endpoint, then write PID file.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("avatar is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("avatar is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check Ollama readiness.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	readyOpts := ollama.ReadyOptions{Model: cfg.Ollama.Model, Pull: true}
	if cfg.Retrieval.Enabled {
		readyOpts.EmbedModel = cfg.Ollama.EmbedModel
	}
	if err := ollama.EnsureReady(ctx, ollamaClient, readyOpts); err != nil {
		return err
	}

	// Load the portfolio dataset.
	profiles, err := profile.Load(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("loading profile data: %w", err)
	}

	// Select the session backend.
	var store session.Store
	switch cfg.Session.Store {
	case "sqlite":
		store, err = session.OpenSQLite(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
	default:
		store = session.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing session store: %v\n", err)
		}
	}()

	// Build the retrieval index.
	var contextSource chat.ContextSource
	if cfg.Retrieval.Enabled {
		idx, err := buildRetrievalIndex(ctx, ollamaClient, cfg, profiles)
		if err != nil {
			slog.Warn("retrieval disabled", "error", err)
		} else {
			contextSource = idx
		}
	}

	chatSvc := chat.New(store, profiles, ollamaClient, cfg.Ollama.Model,
		cfg.Session.HistoryWindow, contextSource, cfg.Retrieval.TopK)

	handler := api.NewHandler(api.Deps{
		Chat:          chatSvc,
		Profiles:      profiles,
		Sessions:      store,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		AdminToken:    cfg.Server.AdminToken,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "avatar listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildRetrievalIndex embeds the profile dataset, plus the resume PDF when
// configured, into an in-memory similarity index.
func buildRetrievalIndex(ctx context.Context, client *ollama.Client, cfg config.Config, profiles *profile.Store) (*retrieval.Index, error) {
	snippets := retrieval.ProfileSnippets(profiles.Profile(), profiles.Projects())

	if cfg.Retrieval.ResumePath != "" {
		paragraphs, err := ingest.ExtractResume(cfg.Retrieval.ResumePath)
		if err != nil {
			slog.Warn("skipping resume ingestion", "path", cfg.Retrieval.ResumePath, "error", err)
		} else {
			snippets = append(snippets, retrieval.ResumeSnippets(paragraphs)...)
		}
	}

	idx := retrieval.NewIndex(client, cfg.Ollama.EmbedModel)
	if err := idx.Build(ctx, snippets); err != nil {
		return nil, err
	}
	return idx, nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("avatar is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop avatar (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to avatar (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Check Ollama.
	ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
	if err != nil {
		printStatus("Ollama", "not running")
	} else {
		ollamaResp.Body.Close()
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
	}

	printStatus("Model", "%s", cfg.Ollama.Model)
	if cfg.Retrieval.Enabled {
		printStatus("Embed model", "%s", cfg.Ollama.EmbedModel)
	} else {
		printStatus("Retrieval", "disabled")
	}
	printStatus("Session store", "%s", cfg.Session.Store)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
