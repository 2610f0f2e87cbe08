package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
port: "8080"
store_driver: memory
jwt_secret: from-file
db_timeout: 5s
mail:
  driver: log
sweep:
  batch: 10
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("EMAIL_SWEEP_INTERVAL", "2s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverMemory {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("env did not override secret: %q", cfg.JWTSecret)
	}
	if cfg.DBTimeout != 5*time.Second || cfg.Sweep.Interval != 2*time.Second || cfg.Sweep.Batch != 10 {
		t.Fatalf("durations = %v %v %d", cfg.DBTimeout, cfg.Sweep.Interval, cfg.Sweep.Batch)
	}
	if cfg.JWTTTL != 72*time.Hour {
		t.Fatalf("default ttl lost: %v", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DB_TIMEOUT", "soon")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "DB_TIMEOUT") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "redis" }, wantErr: "store driver"},
		{name: "smtp without address", mutate: func(c *Config) { c.Mail.Driver = MailSMTP }, wantErr: "SMTP_ADDRESS"},
		{name: "http without url", mutate: func(c *Config) { c.Mail.Driver = MailHTTP }, wantErr: "MAIL_API_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWTSecret = "secret"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
