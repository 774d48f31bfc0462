package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the client runtime settings. Every field can be
// overridden through a PEOPLESYNC_* environment variable.
type Config struct {
	APIBaseURL       string `yaml:"api_base_url"`
	WSEndpoint       string `yaml:"ws_endpoint"`
	AuthToken        string `yaml:"auth_token"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
	DebugAddr        string `yaml:"debug_addr"`
	DebugEnabled     bool   `yaml:"debug_enabled"`
}

// RequestTimeout returns the REST call timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func defaults() Config {
	return Config{
		APIBaseURL:       "http://localhost:8080/api",
		WSEndpoint:       "ws://localhost:8080/ws",
		RequestTimeoutMS: 1000,
		DebugAddr:        ":9090",
	}
}

// Load reads the config file at path and applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.RequestTimeoutMS <= 0 {
		cfg.RequestTimeoutMS = defaults().RequestTimeoutMS
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PEOPLESYNC_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("PEOPLESYNC_WS_ENDPOINT"); v != "" {
		cfg.WSEndpoint = v
	}
	if v := os.Getenv("PEOPLESYNC_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("PEOPLESYNC_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
}
