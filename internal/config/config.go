// Package config loads application settings from the platform backend
// and FORME_* environment variables, layered over built-in defaults.
package config

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Risk    RiskConfig
	Worker  WorkerConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir  string
	LabelDir string
}

// AuthConfig carries the bearer token for the local REST API. When empty
// the server generates a one-off token at startup and logs it.
type AuthConfig struct {
	Token string
}

// RiskConfig points at an optional user-supplied risk dictionary that
// extends the built-in one.
type RiskConfig struct {
	DictionaryPath string
}

type WorkerConfig struct {
	Enabled      bool
	PollInterval string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:    4000,
			MCPPort: 4001,
		},
		Storage: StorageConfig{
			DataDir:  dataDir,
			LabelDir: defaultLabelDir(dataDir),
		},
		Worker: WorkerConfig{
			Enabled:      true,
			PollInterval: "500ms",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/forme/config.json, then applies FORME_* environment
// variable overrides. Secrets (the auth token) are never read from the
// file backend; set them via environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
