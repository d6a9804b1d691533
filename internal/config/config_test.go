package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvKeys = []string{
	"CONFIG_FILE",
	"PORT",
	"PUBLIC_BASE_URL",
	"DEFAULT_BASE_URL",
	"DATABASE_URL",
	"DATABASE_REQUIRED",
	"LEAD_LOCKING",
	"POSTGRES_USER",
	"POSTGRES_PASSWORD",
	"POSTGRES_DB",
	"POSTGRES_HOST",
	"POSTGRES_PORT",
	"CRAWLER_API_TOKEN",
	"CRAWLER_BASE_URL",
	"CRAWLER_ACTOR_ID",
	"INGESTION_WEBHOOK_URL",
	"LLM_PROVIDER",
	"LLM_MODEL",
	"GEMINI_API_KEY",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"AGENT_PLATFORM_API_KEY",
	"AGENT_PLATFORM_BASE_URL",
	"AGENT_PLATFORM_MODEL",
	"AGENT_MODE",
	"STATIC_AGENT_ID",
	"CHAT_AGENT_ID",
	"CRON_SECRET",
	"FETCH_TIMEOUT",
	"FETCH_FORMAT",
	"TEMPORAL_ENABLED",
	"TEMPORAL_ADDRESS",
	"TEMPORAL_TASK_QUEUE",
	"SCHEDULER_ENABLED",
	"MISSION_SCHEDULE",
	"EXPIRY_SCHEDULE",
	"MISSION_TRIGGER_RATE",
	"PROJECT_RETENTION",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

func unsetAllEnv(keys []string) {
	for _, key := range keys {
		_ = os.Unsetenv(key)
	}
}

func TestLoad_AllDefaults(t *testing.T) {
	unsetAllEnv(allEnvKeys)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.PublicBaseURL != "" {
		t.Fatalf("PublicBaseURL = %q, want empty", cfg.PublicBaseURL)
	}
	if cfg.DefaultBaseURL != "https://demo.berinia.com" {
		t.Fatalf("DefaultBaseURL = %q, want %q", cfg.DefaultBaseURL, "https://demo.berinia.com")
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.DatabaseRequired {
		t.Fatalf("DatabaseRequired = true, want false")
	}
	if cfg.LeadLocking != LeadLockingNone {
		t.Fatalf("LeadLocking = %q, want %q", cfg.LeadLocking, LeadLockingNone)
	}
	if cfg.CrawlerActorID != "compass~crawler-google-places" {
		t.Fatalf("CrawlerActorID = %q, want %q", cfg.CrawlerActorID, "compass~crawler-google-places")
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("LLMProvider = %q, want %q", cfg.LLMProvider, "gemini")
	}
	if cfg.AgentMode != AgentModeDynamic {
		t.Fatalf("AgentMode = %q, want %q", cfg.AgentMode, AgentModeDynamic)
	}
	if cfg.AgentPlatformModel != "gpt-4.1-mini" {
		t.Fatalf("AgentPlatformModel = %q, want %q", cfg.AgentPlatformModel, "gpt-4.1-mini")
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Fatalf("FetchTimeout = %v, want %v", cfg.FetchTimeout, 10*time.Second)
	}
	if cfg.FetchFormat != "html" {
		t.Fatalf("FetchFormat = %q, want %q", cfg.FetchFormat, "html")
	}
	if cfg.TemporalEnabled {
		t.Fatalf("TemporalEnabled = true, want false")
	}
	if cfg.TemporalAddress != "localhost:7233" {
		t.Fatalf("TemporalAddress = %q, want %q", cfg.TemporalAddress, "localhost:7233")
	}
	if cfg.TemporalTaskQueue != "preview-generation" {
		t.Fatalf("TemporalTaskQueue = %q, want %q", cfg.TemporalTaskQueue, "preview-generation")
	}
	if cfg.ProjectRetention != 30*24*time.Hour {
		t.Fatalf("ProjectRetention = %v, want %v", cfg.ProjectRetention, 30*24*time.Hour)
	}
	if cfg.MissionTriggerRate != time.Second {
		t.Fatalf("MissionTriggerRate = %v, want %v", cfg.MissionTriggerRate, time.Second)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_AllEnvVars(t *testing.T) {
	unsetAllEnv(allEnvKeys)

	t.Setenv("PORT", "9090")
	t.Setenv("PUBLIC_BASE_URL", "https://preview.example.com")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app?sslmode=disable")
	t.Setenv("DATABASE_REQUIRED", "true")
	t.Setenv("LEAD_LOCKING", "postgres")
	t.Setenv("CRAWLER_API_TOKEN", "crawl-token")
	t.Setenv("INGESTION_WEBHOOK_URL", "https://hooks.example.com/ingest")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENT_PLATFORM_API_KEY", "agent-key")
	t.Setenv("AGENT_MODE", "static")
	t.Setenv("STATIC_AGENT_ID", "agent_fixed")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("FETCH_FORMAT", "markdown")
	t.Setenv("TEMPORAL_ENABLED", "true")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("MISSION_SCHEDULE", "@hourly")
	t.Setenv("PROJECT_RETENTION", "48h")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.PublicBaseURL != "https://preview.example.com" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/app?sslmode=disable" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if !cfg.DatabaseRequired {
		t.Fatalf("DatabaseRequired = false, want true")
	}
	if cfg.LeadLocking != LeadLockingPostgres {
		t.Fatalf("LeadLocking = %q, want %q", cfg.LeadLocking, LeadLockingPostgres)
	}
	if cfg.CrawlerAPIToken != "crawl-token" {
		t.Fatalf("CrawlerAPIToken = %q", cfg.CrawlerAPIToken)
	}
	if cfg.IngestionWebhookURL != "https://hooks.example.com/ingest" {
		t.Fatalf("IngestionWebhookURL = %q", cfg.IngestionWebhookURL)
	}
	if cfg.LLMProvider != "openai" || cfg.LLMModel != "gpt-4o-mini" || cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("llm settings = %q/%q/%q", cfg.LLMProvider, cfg.LLMModel, cfg.OpenAIAPIKey)
	}
	if cfg.AgentMode != AgentModeStatic || cfg.StaticAgentID != "agent_fixed" {
		t.Fatalf("agent settings = %q/%q", cfg.AgentMode, cfg.StaticAgentID)
	}
	if cfg.CronSecret != "s3cret" {
		t.Fatalf("CronSecret = %q", cfg.CronSecret)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Fatalf("FetchTimeout = %v, want 3s", cfg.FetchTimeout)
	}
	if cfg.FetchFormat != "markdown" {
		t.Fatalf("FetchFormat = %q, want markdown", cfg.FetchFormat)
	}
	if !cfg.TemporalEnabled || !cfg.SchedulerEnabled {
		t.Fatalf("TemporalEnabled/SchedulerEnabled = %v/%v, want true/true", cfg.TemporalEnabled, cfg.SchedulerEnabled)
	}
	if cfg.MissionSchedule != "@hourly" {
		t.Fatalf("MissionSchedule = %q", cfg.MissionSchedule)
	}
	if cfg.ProjectRetention != 48*time.Hour {
		t.Fatalf("ProjectRetention = %v, want 48h", cfg.ProjectRetention)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoad_BuildsPostgresURLFromParts(t *testing.T) {
	unsetAllEnv(allEnvKeys)

	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "svc")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "previews")
	t.Setenv("POSTGRES_PORT", "6543")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := "postgres://svc:pw@db.internal:6543/previews?sslmode=disable"
	if cfg.DatabaseURL != want {
		t.Fatalf("DatabaseURL = %q, want %q", cfg.DatabaseURL, want)
	}
}

func TestLoad_RejectsUnknownModes(t *testing.T) {
	cases := map[string]string{
		"AGENT_MODE":   "hybrid",
		"LEAD_LOCKING": "redis",
		"FETCH_FORMAT": "pdf",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			unsetAllEnv(allEnvKeys)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoad_ConfigFileWithEnvOverride(t *testing.T) {
	unsetAllEnv(allEnvKeys)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"7070\"\npublic_base_url: https://file.example.com\nagent_mode: static\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PUBLIC_BASE_URL", "https://env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "7070")
	}
	if cfg.PublicBaseURL != "https://env.example.com" {
		t.Fatalf("PublicBaseURL = %q, want env override", cfg.PublicBaseURL)
	}
	if cfg.AgentMode != AgentModeStatic {
		t.Fatalf("AgentMode = %q, want %q", cfg.AgentMode, AgentModeStatic)
	}
}

func TestMissingCredentialError(t *testing.T) {
	err := MissingCredentialError{Name: "AGENT_PLATFORM_API_KEY"}
	want := "configuration error: AGENT_PLATFORM_API_KEY is missing on server"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
