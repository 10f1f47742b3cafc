package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushteam/airsat/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Model.Threshold != nil {
		t.Errorf("Model.Threshold = %v, want unset", *cfg.Model.Threshold)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Store.Backend = %q, want file", cfg.Store.Backend)
	}
}

func TestLoadFile_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  addr: ":9000"
  shutdown_timeout: 3s
log:
  level: debug
store:
  backend: memory
model:
  threshold: 0.6
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AIRSAT_MODEL_THRESHOLD", "0.7")
	t.Setenv("AIRSAT_SERVER_READ_TIMEOUT", "2s")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file overrides default", cfg.Server.Addr, ":9000"},
		{"file duration", cfg.Server.ShutdownTimeout, 3 * time.Second},
		{"env with underscored field", cfg.Server.ReadTimeout, 2 * time.Second},
		{"default kept", cfg.Server.WriteTimeout, 10 * time.Second},
		{"file level", cfg.Log.Level, "debug"},
		{"file backend", cfg.Store.Backend, "memory"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if cfg.Model.Threshold == nil || *cfg.Model.Threshold != 0.7 {
		t.Errorf("env overrides file: Model.Threshold = %v, want 0.7", cfg.Model.Threshold)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		code string
	}{
		{name: "threshold above one", env: map[string]string{"AIRSAT_MODEL_THRESHOLD": "1.5"}, code: core.ErrorCodeInvalidInput},
		{name: "bad log level", env: map[string]string{"AIRSAT_LOG_LEVEL": "loud"}, code: core.ErrorCodeInvalidInput},
		{name: "unknown backend", env: map[string]string{"AIRSAT_STORE_BACKEND": "s3"}, code: core.ErrorCodeNotSupported},
		{name: "redis without addr", env: map[string]string{"AIRSAT_STORE_BACKEND": "redis", "AIRSAT_STORE_REDIS_ADDR": ""}, code: core.ErrorCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile("")
			if !core.HasCode(err, tt.code) {
				t.Fatalf("LoadFile() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"AIRSAT_SERVER_ADDR":             "server.addr",
		"AIRSAT_STORE_REDIS_PREFIX":      "store.redis.prefix",
		"AIRSAT_SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
		"AIRSAT_CONFIG":                  "",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, StoreConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("OpenStore(memory) error = %v", err)
	}
	if s.Name() != "memory" {
		t.Errorf("Name() = %q", s.Name())
	}

	s, err = OpenStore(ctx, StoreConfig{Backend: "file", Dir: t.TempDir()})
	if err != nil || s.Name() != "file" {
		t.Fatalf("OpenStore(file) = %v, %v", s, err)
	}

	if _, err := OpenStore(ctx, StoreConfig{Backend: "s3"}); !core.IsNotSupported(err) {
		t.Errorf("OpenStore(s3) error = %v, want NOT_SUPPORTED", err)
	}
	want := []string{"file", "memory", "redis"}
	got := SupportedBackends()
	if len(got) != len(want) {
		t.Fatalf("SupportedBackends() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedBackends() = %v, want %v", got, want)
		}
	}
}
