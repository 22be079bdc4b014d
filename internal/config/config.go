package config

import "os"

type Config struct {
	Server    ServerConfig
	Ollama    OllamaConfig
	Storage   StorageConfig
	Session   SessionConfig
	Retrieval RetrievalConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port          int
	AllowedOrigin string
	AdminToken    string
}

type OllamaConfig struct {
	BaseURL    string
	Model      string
	EmbedModel string
}

type StorageConfig struct {
	DataDir string
}

type SessionConfig struct {
	// Store selects the session backend: "memory" or "sqlite".
	Store string
	// HistoryWindow is the number of history entries included in prompts.
	HistoryWindow int
}

type RetrievalConfig struct {
	Enabled    bool
	TopK       int
	ResumePath string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3001,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			Model:      "llama3.2:latest",
			EmbedModel: "nomic-embed-text",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Session: SessionConfig{
			Store:         "memory",
			HistoryWindow: 10,
		},
		Retrieval: RetrievalConfig{
			Enabled: true,
			TopK:    3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.avatar.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/avatar/config.json.
//
// Environment variables (AVATAR_*) override backend values on all platforms.
// The admin token is env-only and never written to the backend.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.AdminToken == "" {
		cfg.Server.AdminToken = os.Getenv("AVATAR_ADMIN_TOKEN")
	}

	return cfg, nil
}
