package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "model_path: /models/fastvlm\nconv_mode: llava_v1\nhost: 0.0.0.0\nport: 9000\nlog_level: debug\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelPath != "/models/fastvlm" || cfg.ConvMode != "llava_v1" || cfg.Host != "0.0.0.0" || cfg.Port != 9000 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"model_path":"/m","model_base":"/b","port":7070,"threads":4}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelPath != "/m" || cfg.ModelBase != "/b" || cfg.Port != 7070 || cfg.Threads != 4 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "model_path=\"/x\"\nconv_mode=\"plain\"\nport=8081\nmax_body_bytes=1048576\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelPath != "/x" || cfg.ConvMode != "plain" || cfg.Port != 8081 || cfg.MaxBodyBytes != 1048576 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestApplyEnvOverlay(t *testing.T) {
	t.Setenv("VLMD_HOST", "127.0.0.1")
	t.Setenv("VLMD_PORT", "8123")
	t.Setenv("VLMD_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://unity.local")
	cfg := Default()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 8123 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://unity.local" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	// Fields without an env var keep their values.
	if cfg.ConvMode != DefaultConvMode {
		t.Fatalf("conv_mode changed: %q", cfg.ConvMode)
	}
}

func TestFillDefaults(t *testing.T) {
	var cfg Config
	FillDefaults(&cfg)
	if cfg.ConvMode != DefaultConvMode || cfg.Host != DefaultHost || cfg.Port != DefaultPort {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("max body bytes: %d", cfg.MaxBodyBytes)
	}
	cfg2 := Config{Port: 9999}
	FillDefaults(&cfg2)
	if cfg2.Port != 9999 {
		t.Fatalf("port overwritten: %d", cfg2.Port)
	}
}
