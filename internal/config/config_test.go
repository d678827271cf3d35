package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "8080" || cfg.JWT.AccessExpiry != 86400 {
		t.Fatalf("server/jwt defaults = %+v %+v", cfg.Server, cfg.JWT)
	}
	if cfg.Storage.DownloadURLTTL != 15*time.Minute || cfg.Effects.Timeout != 5*time.Second {
		t.Fatalf("durations = %v %v", cfg.Storage.DownloadURLTTL, cfg.Effects.Timeout)
	}
	if cfg.Retention.NotificationMaxAgeDays != 30 {
		t.Fatalf("retention = %+v", cfg.Retention)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_BACKEND", "memory")
	t.Setenv("STORAGE_BACKEND", "MEMORY")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("STORAGE_UPLOAD_URL_TTL", "2m")
	t.Setenv("ARGON2_PARALLELISM", "4")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Backend != BackendMemory || cfg.Storage.Backend != BackendMemory {
		t.Fatalf("backends = %q %q", cfg.Database.Backend, cfg.Storage.Backend)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %q", cfg.Server.CORSOrigins)
	}
	if cfg.Storage.UploadURLTTL != 2*time.Minute || cfg.Argon2.Parallelism != 4 {
		t.Fatalf("storage=%v argon=%+v", cfg.Storage.UploadURLTTL, cfg.Argon2)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	if err := os.WriteFile(path, []byte("SHARE_BASE_URL: https://nexus.example\nLOG_LEVEL: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Share.BaseURL != "https://nexus.example" || cfg.Log.Level != "debug" {
		t.Fatalf("file values = %+v %+v", cfg.Share, cfg.Log)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_BACKEND", "sqlite")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_BACKEND") {
		t.Fatalf("err = %v", err)
	}
}
