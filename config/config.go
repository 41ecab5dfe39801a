package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultJWTSecret = "change-me-in-production"
)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AIProvider    string        `mapstructure:"AI_PROVIDER"`
	GeminiAPIKey  string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL string        `mapstructure:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`
	AITimeout     time.Duration `mapstructure:"AI_TIMEOUT"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	MySQLDSN      string `mapstructure:"MYSQL_DSN"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SMTPHost     string        `mapstructure:"SMTP_HOST"`
	SMTPPort     int           `mapstructure:"SMTP_PORT"`
	SMTPEmail    string        `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string        `mapstructure:"SMTP_PASSWORD"`
	OTPTTL       time.Duration `mapstructure:"OTP_TTL"`

	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`

	ChromaURL         string `mapstructure:"CHROMA_URL"`
	RecordsDir        string `mapstructure:"RECORDS_DIR"`
	RecordsCollection string `mapstructure:"RECORDS_COLLECTION"`
	EmbeddingModel    string `mapstructure:"EMBEDDING_MODEL"`
	UnidocLicenseKey  string `mapstructure:"UNIDOC_LICENSE_KEY"`
}

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "CORS_ORIGINS",
	"AI_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "AI_TIMEOUT",
	"JWT_SECRET", "JWT_TTL",
	"MYSQL_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"SMTP_HOST", "SMTP_PORT", "SMTP_EMAIL", "SMTP_PASSWORD", "OTP_TTL",
	"GOOGLE_MAPS_API_KEY",
	"CHROMA_URL", "RECORDS_DIR", "RECORDS_COLLECTION", "EMBEDDING_MODEL", "UNIDOC_LICENSE_KEY",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000,http://127.0.0.1:5173")
	v.SetDefault("AI_PROVIDER", ProviderGemini)
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", "30s")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "30m")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("RECORDS_COLLECTION", "medical-records")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-004")

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// CORS_ORIGINS arrives as a single comma separated string from env.
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	// GOOGLE_API_KEY is the name the older deployments used.
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = v.GetString("GOOGLE_API_KEY")
	}

	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AIConfigured reports whether the selected provider has a credential.
func (c *Config) AIConfigured() bool {
	switch c.AIProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return c.GeminiAPIKey != ""
	}
}

// SMTPConfigured reports whether outbound mail can be delivered over SMTP.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPEmail != "" && c.SMTPPassword != ""
}

// Validate checks that the configuration is safe to run. A missing AI
// credential is not an error: the diagnosis feature fails closed instead.
func (c *Config) Validate() error {
	if c.AIProvider != ProviderGemini && c.AIProvider != ProviderOpenAI {
		return fmt.Errorf("AI_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.AIProvider)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AITimeout)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive, got %s", c.OTPTTL)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}
	if (c.SMTPEmail == "") != (c.SMTPPassword == "") {
		return fmt.Errorf("SMTP_EMAIL and SMTP_PASSWORD must be set together")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT out of range: %d", c.SMTPPort)
	}
	return nil
}
