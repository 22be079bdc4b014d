package ollama

import (
	"context"
	"fmt"
	"log/slog"
)

// ReadyOptions controls which models EnsureReady verifies.
type ReadyOptions struct {
	Model      string
	EmbedModel string // empty means embeddings are not needed
	Pull       bool   // pull missing models instead of failing
}

// EnsureReady verifies that Ollama is reachable and that the required models
// are available, pulling them when opts.Pull is set. It finishes with a small
// warm-up generation so the first real request does not pay the model load cost.
func EnsureReady(ctx context.Context, c *Client, opts ReadyOptions) error {
	if !c.IsRunning(ctx) {
		return fmt.Errorf("ollama is not reachable at %s", c.baseURL)
	}

	models := []string{opts.Model}
	if opts.EmbedModel != "" {
		models = append(models, opts.EmbedModel)
	}

	for _, name := range models {
		if c.HasModel(ctx, name) {
			continue
		}
		if !opts.Pull {
			return fmt.Errorf("model %s is not available; pull it with `ollama pull %s`", name, name)
		}
		slog.Info("pulling model", "model", name)
		if err := c.PullModel(ctx, name, func(p PullProgress) {
			if p.Total > 0 {
				slog.Debug("pull progress", "model", name, "status", p.Status, "completed", p.Completed, "total", p.Total)
			}
		}); err != nil {
			return fmt.Errorf("pulling %s: %w", name, err)
		}
	}

	if _, err := c.Generate(ctx, opts.Model, "ping"); err != nil {
		return fmt.Errorf("warming up %s: %w", opts.Model, err)
	}

	return nil
}
