package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigReadsFileAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  path: test.db
storage:
  type: minio
quiz:
  submit_guard_seconds: 5
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "sqlite" || cfg.Database.Path != "test.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Stats.RecalcIntervalMinutes != 30 {
		t.Fatalf("RecalcIntervalMinutes default = %d, want 30", cfg.Stats.RecalcIntervalMinutes)
	}
	if cfg.Quiz.SubmitGuardTTL() != 5*time.Second || cfg.Quiz.CategoriesCacheTTL() != 5*time.Minute {
		t.Fatalf("unexpected quiz ttl config: %+v", cfg.Quiz)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
jwt:
  secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORAGE_TYPE", "minio")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.Secret != "from-env" || cfg.Storage.Type != "minio" {
		t.Fatalf("env override not applied: secret=%q storage=%q", cfg.JWT.Secret, cfg.Storage.Type)
	}
}

func TestValidateRejectsShortReleaseSecret(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Mode: "release"},
		JWT:      JWTConfig{Secret: "short"},
		Database: DatabaseConfig{Driver: "mysql"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected short secret to fail in release mode")
	}

	cfg.Server.Mode = "debug"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("debug mode should accept short secret: %v", err)
	}

	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestLoadEnvFileIgnoresMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("QUIZ_PLATFORM_TEST_VALUE=loaded\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("QUIZ_PLATFORM_TEST_VALUE", "")
	os.Unsetenv("QUIZ_PLATFORM_TEST_VALUE")
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if os.Getenv("QUIZ_PLATFORM_TEST_VALUE") != "loaded" {
		t.Fatalf("expected value from .env file")
	}
}

func TestQuizRedisKey(t *testing.T) {
	if got := (QuizConfig{}).RedisKey("categories"); got != "quiz:categories" {
		t.Fatalf("default prefix key = %q", got)
	}
	if got := (QuizConfig{KeyPrefix: "staging"}).RedisKey("submit", "q1", "u1"); got != "staging:submit:q1:u1" {
		t.Fatalf("custom prefix key = %q", got)
	}
}

func TestLoadConfigLogAndRedisDefaults(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
redis:
  pool_size: 8
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.File != "logs/app.log" || cfg.Log.MaxSizeMB != 100 || !cfg.Log.Compress || !cfg.Log.Console {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
	if cfg.Redis.PoolSize != 8 || cfg.Redis.MinIdleConns != 5 || cfg.Redis.DialTimeout() != 5*time.Second {
		t.Fatalf("redis config = %+v", cfg.Redis)
	}
	if cfg.Quiz.KeyPrefix != DefaultKeyPrefix {
		t.Fatalf("key prefix = %q", cfg.Quiz.KeyPrefix)
	}
}
