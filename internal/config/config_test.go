package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "STORE_PATH", "CONFIG_NAMESPACE", "WATCH_STORE", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "service.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Namespace != "rsgauges" || cfg.StorePath != defaultStorePath {
		t.Fatalf("unexpected store defaults: %s %s", cfg.Namespace, cfg.StorePath)
	}
	if !cfg.WatchStore || cfg.WatchDebounce != 500*time.Millisecond {
		t.Fatalf("unexpected watch defaults: %v %s", cfg.WatchStore, cfg.WatchDebounce)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != defaultRateLimitRPS || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit defaults: %v %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_PATH", "/srv/config/rsgauges.yaml")
	t.Setenv("WATCH_STORE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(&CLIOverrides{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" || cfg.StorePath != "/srv/config/rsgauges.yaml" {
		t.Fatalf("expected env overrides, got %s %s", cfg.Port, cfg.StorePath)
	}
	if cfg.WatchStore || cfg.LogLevel != "debug" {
		t.Fatalf("expected watch disabled and debug level, got %v %s", cfg.WatchStore, cfg.LogLevel)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("CONFIG_NAMESPACE", "from_env")

	path := writeYAML(t, `
port: "7100"
store:
  path: /tmp/from-yaml.yaml
  namespace: from_yaml
  watch: false
  watch_debounce: 2s
enable_request_logging: false
rate_limit:
  rps: 0
`)
	port := "7200"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.Namespace != "from_yaml" || cfg.StorePath != "/tmp/from-yaml.yaml" {
		t.Fatalf("expected YAML to override env, got %s %s", cfg.Namespace, cfg.StorePath)
	}
	if cfg.WatchStore || cfg.WatchDebounce != 2*time.Second || cfg.EnableRequestLogging {
		t.Fatalf("unexpected YAML values: %+v", cfg)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("expected explicit rps 0 and default burst, got %v %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
		if err == nil || !strings.Contains(err.Error(), "load YAML config") {
			t.Fatalf("expected load error, got %v", err)
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeYAML(t, "write_timeout: soon\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected duration parse error")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		level := "chatty"
		if _, err := Load(&CLIOverrides{LogLevel: &level}); err == nil {
			t.Fatalf("expected log level error")
		}
	})
}

func TestValidateConfig(t *testing.T) {
	testCases := map[string]func(*Config){
		"empty store path": func(c *Config) { c.StorePath = " " },
		"empty namespace":  func(c *Config) { c.Namespace = "" },
		"zero debounce":    func(c *Config) { c.WatchDebounce = 0 },
		"negative rps":     func(c *Config) { c.RateLimitRPS = -1 },
		"negative burst":   func(c *Config) { c.RateLimitBurst = -1 },
	}

	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := validateConfig(defaultConfig()); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
