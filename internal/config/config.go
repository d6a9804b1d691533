package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from the environment. When CONFIG_FILE points at a YAML or
// .env file it is read first and environment variables override it.
type Config struct {
	Port           string `yaml:"port" env:"PORT" env-default:"8080"`
	PublicBaseURL  string `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
	DefaultBaseURL string `yaml:"default_base_url" env:"DEFAULT_BASE_URL" env-default:"https://demo.berinia.com"`

	DatabaseURL      string `yaml:"-" env:"DATABASE_URL"`
	DatabaseRequired bool   `yaml:"database_required" env:"DATABASE_REQUIRED" env-default:"false"`
	LeadLocking      string `yaml:"lead_locking" env:"LEAD_LOCKING" env-default:"none"`

	CrawlerAPIToken     string `yaml:"-" env:"CRAWLER_API_TOKEN"`
	CrawlerBaseURL      string `yaml:"crawler_base_url" env:"CRAWLER_BASE_URL" env-default:"https://api.apify.com/v2"`
	CrawlerActorID      string `yaml:"crawler_actor_id" env:"CRAWLER_ACTOR_ID" env-default:"compass~crawler-google-places"`
	IngestionWebhookURL string `yaml:"ingestion_webhook_url" env:"INGESTION_WEBHOOK_URL"`

	LLMProvider   string `yaml:"llm_provider" env:"LLM_PROVIDER" env-default:"gemini"`
	LLMModel      string `yaml:"llm_model" env:"LLM_MODEL"`
	GeminiAPIKey  string `yaml:"-" env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `yaml:"-" env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`

	AgentPlatformAPIKey  string `yaml:"-" env:"AGENT_PLATFORM_API_KEY"`
	AgentPlatformBaseURL string `yaml:"agent_platform_base_url" env:"AGENT_PLATFORM_BASE_URL" env-default:"https://api.retellai.com"`
	AgentPlatformModel   string `yaml:"agent_platform_model" env:"AGENT_PLATFORM_MODEL" env-default:"gpt-4.1-mini"`
	AgentMode            string `yaml:"agent_mode" env:"AGENT_MODE" env-default:"dynamic"`
	StaticAgentID        string `yaml:"static_agent_id" env:"STATIC_AGENT_ID"`
	ChatAgentID          string `yaml:"chat_agent_id" env:"CHAT_AGENT_ID"`

	CronSecret string `yaml:"-" env:"CRON_SECRET"`

	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"FETCH_TIMEOUT" env-default:"10s"`
	FetchFormat  string        `yaml:"fetch_format" env:"FETCH_FORMAT" env-default:"html"`

	TemporalEnabled   bool   `yaml:"temporal_enabled" env:"TEMPORAL_ENABLED" env-default:"false"`
	TemporalAddress   string `yaml:"temporal_address" env:"TEMPORAL_ADDRESS" env-default:"localhost:7233"`
	TemporalTaskQueue string `yaml:"temporal_task_queue" env:"TEMPORAL_TASK_QUEUE" env-default:"preview-generation"`

	SchedulerEnabled   bool          `yaml:"scheduler_enabled" env:"SCHEDULER_ENABLED" env-default:"false"`
	MissionSchedule    string        `yaml:"mission_schedule" env:"MISSION_SCHEDULE" env-default:"0 6 * * *"`
	ExpirySchedule     string        `yaml:"expiry_schedule" env:"EXPIRY_SCHEDULE" env-default:"0 3 * * *"`
	MissionTriggerRate time.Duration `yaml:"mission_trigger_rate" env:"MISSION_TRIGGER_RATE" env-default:"1s"`
	ProjectRetention   time.Duration `yaml:"project_retention" env:"PROJECT_RETENTION" env-default:"720h"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

func Load() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildPostgresURL()
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.AgentMode {
	case AgentModeDynamic, AgentModeStatic:
	default:
		return fmt.Errorf("invalid AGENT_MODE %q (want %q or %q)", c.AgentMode, AgentModeDynamic, AgentModeStatic)
	}
	switch c.LeadLocking {
	case LeadLockingNone, LeadLockingLocal, LeadLockingPostgres:
	default:
		return fmt.Errorf("invalid LEAD_LOCKING %q", c.LeadLocking)
	}
	switch c.FetchFormat {
	case "html", "markdown":
	default:
		return fmt.Errorf("invalid FETCH_FORMAT %q", c.FetchFormat)
	}
	return nil
}

const (
	AgentModeDynamic = "dynamic"
	AgentModeStatic  = "static"

	LeadLockingNone     = "none"
	LeadLockingLocal    = "local"
	LeadLockingPostgres = "postgres"
)

// buildPostgresURL assembles a connection string from POSTGRES_* parts. It
// returns "" when POSTGRES_HOST is unset so the in-memory store is selected.
func buildPostgresURL() string {
	host := getEnv("POSTGRES_HOST", "")
	if host == "" {
		return ""
	}
	user := getEnv("POSTGRES_USER", "berinia")
	password := getEnv("POSTGRES_PASSWORD", "berinia")
	port := getEnv("POSTGRES_PORT", "5432")
	database := getEnv("POSTGRES_DB", "berinia")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, database)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// MissingCredentialError reports a credential or required setting that is
// absent at the point where a component needs it.
type MissingCredentialError struct {
	Name string
}

func (e MissingCredentialError) Error() string {
	return fmt.Sprintf("configuration error: %s is missing on server", e.Name)
}
