package config

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Stream        StreamConfig `yaml:"stream" mapstructure:"stream"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name      string
		in        ServiceConfig
		wantEnv   string
		wantDebug bool
		wantLevel string
	}{
		{"empty environment", ServiceConfig{Name: "svc"}, "development", true, "debug"},
		{"production", ServiceConfig{Name: "svc", Environment: "production"}, "production", false, "info"},
		{"explicit level kept", ServiceConfig{Name: "svc", Logging: logger.Config{Level: "warn"}}, "development", true, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.ApplyDefaults()
			if cfg.Environment != tt.wantEnv {
				t.Errorf("Environment = %q, want %q", cfg.Environment, tt.wantEnv)
			}
			if cfg.Debug != tt.wantDebug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.wantDebug)
			}
			if cfg.Logging.Level != tt.wantLevel {
				t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, tt.wantLevel)
			}
			if cfg.Logging.ServiceName != "svc" {
				t.Errorf("Logging.ServiceName = %q, want svc", cfg.Logging.ServiceName)
			}
		})
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name: is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "environment: must be one of"},
		{"bad logging level", ServiceConfig{Name: "svc", Environment: "production", Logging: logger.Config{Level: "loud"}}, "config.logging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestStreamConfig(t *testing.T) {
	t.Run("defaults fill zero fields", func(t *testing.T) {
		var c StreamConfig
		c.ApplyDefaults()
		if c.BatchSize != 2 || c.Interval != time.Second || c.Delay != time.Second {
			t.Errorf("unexpected defaults: %+v", c)
		}
		if c.Backoff.Initial == 0 {
			t.Error("backoff not defaulted")
		}
		if err := c.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		c := StreamConfig{BatchSize: -1, Interval: time.Second, Retries: 500}
		err := c.Validate()
		if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
		for _, want := range []string{"batch_size", "retries"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %s", err.Error(), want)
			}
		}
	})

	t.Run("retry config counts the first attempt", func(t *testing.T) {
		c := StreamConfig{Retries: 2}
		c.ApplyDefaults()
		rc := c.RetryConfig()
		if rc.MaxAttempts != 3 {
			t.Errorf("MaxAttempts = %d, want 3", rc.MaxAttempts)
		}
		if rc.RetryIf == nil {
			t.Error("RetryIf not set")
		}
	})
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: stream-svc
environment: staging
logging:
  level: warn
stream:
  batch_size: 16
  interval: 250ms
  backoff:
    initial: 50ms
    factor: 3
`)

	var cfg testConfig
	if err := LoadConfig("stream-svc", &cfg, WithConfigFile(path), WithEnvPrefix("FLUXTEST_NONE")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Name != "stream-svc" || cfg.Environment != "staging" {
		t.Errorf("service fields = %+v", cfg.ServiceConfig)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Stream.BatchSize != 16 || cfg.Stream.Interval != 250*time.Millisecond {
		t.Errorf("Stream = %+v", cfg.Stream)
	}
	if cfg.Stream.Backoff.Initial != 50*time.Millisecond || cfg.Stream.Backoff.Factor != 3 {
		t.Errorf("Backoff = %+v", cfg.Stream.Backoff)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: from-file\nstream:\n  batch_size: 4\n")

	t.Setenv("FLUXTEST_STREAM_BATCH_SIZE", "32")
	t.Setenv("FLUXTEST_NAME", "from-env")
	t.Setenv("OTHER_NAME", "ignored")

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithConfigFile(path), WithEnvPrefix("FLUXTEST")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("Name = %q, want from-env", cfg.Name)
	}
	if cfg.Stream.BatchSize != 32 {
		t.Errorf("BatchSize = %d, want 32", cfg.Stream.BatchSize)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "FLUXTEST_ENVFILE_STREAM_RETRIES=7\n")
	t.Cleanup(func() { os.Unsetenv("FLUXTEST_ENVFILE_STREAM_RETRIES") })

	var cfg testConfig
	err := LoadConfig("svc", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath),
		WithEnvPrefix("FLUXTEST_ENVFILE"),
	)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Stream.Retries != 7 {
		t.Errorf("Retries = %d, want 7", cfg.Stream.Retries)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("svc", &cfg,
		WithFileSystem(&mockFS{}),
		WithEnvPrefix("FLUXTEST_NONE"),
		WithDefaults(map[string]any{"name": "defaulted", "stream.batch_size": 9}),
	)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "defaulted" || cfg.Stream.BatchSize != 9 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: [unterminated\n")

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestResolver_ResolveFiles(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		explicit   LoaderConfig
		wantConfig string
		wantEnv    string
	}{
		{
			name:       "cmd directory wins",
			files:      []string{"cmd/fluxdemo/config.yml", "config.yml"},
			wantConfig: "cmd/fluxdemo/config.yml",
		},
		{
			name:       "yaml extension and parent dir",
			files:      []string{"../config/config.yaml"},
			wantConfig: "../config/config.yaml",
		},
		{
			name:    "service env file preferred",
			files:   []string{".env", "cmd/fluxdemo/.env.fluxdemo"},
			wantEnv: "cmd/fluxdemo/.env.fluxdemo",
		},
		{
			name:       "explicit paths kept",
			files:      []string{"config.yml"},
			explicit:   LoaderConfig{ConfigFile: "/etc/flux.yml", EnvFile: "/etc/flux.env"},
			wantConfig: "/etc/flux.yml",
			wantEnv:    "/etc/flux.env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tt.files {
				fs.files[f] = true
			}
			r := &Resolver{FileSystem: fs}
			got := r.ResolveFiles("fluxdemo", tt.explicit)
			if got.ConfigFile != tt.wantConfig {
				t.Errorf("ConfigFile = %q, want %q", got.ConfigFile, tt.wantConfig)
			}
			if got.EnvFile != tt.wantEnv {
				t.Errorf("EnvFile = %q, want %q", got.EnvFile, tt.wantEnv)
			}
		})
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"NAME", []string{"name"}},
		{"STREAM_RETRIES", []string{"stream_retries", "stream.retries"}},
		{"STREAM_BATCH_SIZE", []string{"stream_batch_size", "stream.batch_size", "stream_batch.size", "stream.batch.size"}},
		{"A_B_C_D_E_F_G", []string{"a_b_c_d_e_f_g", "a.b.c.d.e.f.g"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := envKeyVariants(tt.key)
			sort.Strings(got)
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("envKeyVariants(%q) = %v, want %v", tt.key, got, want)
			}
		})
	}
}
