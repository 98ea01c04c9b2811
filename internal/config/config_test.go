package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
moderation:
  fail_policy: closed
  batch_concurrency: 8
  verdict_cache_ttl: 1h
  extra_terms:
    - spamword
completion:
  min_photos: 4
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Moderation.FailPolicy != "closed" {
		t.Fatalf("unexpected fail policy: %s", cfg.Moderation.FailPolicy)
	}
	if cfg.Moderation.BatchConcurrency != 8 {
		t.Fatalf("unexpected batch concurrency: %d", cfg.Moderation.BatchConcurrency)
	}
	if cfg.Moderation.VerdictCacheTTL != time.Hour {
		t.Fatalf("unexpected verdict cache ttl: %s", cfg.Moderation.VerdictCacheTTL)
	}
	if len(cfg.Moderation.ExtraTerms) != 1 || cfg.Moderation.ExtraTerms[0] != "spamword" {
		t.Fatalf("unexpected extra terms: %v", cfg.Moderation.ExtraTerms)
	}
	if cfg.Completion.MinPhotos != 4 {
		t.Fatalf("unexpected min photos: %d", cfg.Completion.MinPhotos)
	}

	// Untouched sections keep defaults.
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Completion.RequiredPrompts != 3 {
		t.Fatalf("unexpected required prompts: %d", cfg.Completion.RequiredPrompts)
	}
}

func TestLoadEnvOverridesWinOverYAML(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("MODERATION_FAIL_POLICY", "closed")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Moderation.FailPolicy != "closed" {
		t.Fatalf("unexpected fail policy: %s", cfg.Moderation.FailPolicy)
	}
	if cfg.Moderation.GeminiAPIKey != "env-key" {
		t.Fatalf("unexpected gemini key: %s", cfg.Moderation.GeminiAPIKey)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Fatalf("unexpected redis addr: %s", cfg.Redis.Addr)
	}
}

func TestLoadRejectsInvalidFailPolicy(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("MODERATION_FAIL_POLICY", "maybe")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid fail policy")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"JWT_SECRET", "JWT_ACCESS_TTL",
		"PUSH_ENABLED", "APNS_AUTH_KEY", "APNS_KEY_ID", "APNS_TEAM_ID", "APNS_TOPIC", "APNS_PRODUCTION",
		"GEMINI_API_KEY", "GEMINI_MODEL", "MODERATION_FAIL_POLICY", "MODERATION_BATCH_CONCURRENCY",
		"MODERATION_VERDICT_CACHE_TTL", "MODERATION_BLOCKLIST_PATH",
	} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}
