package config

import (
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// placeholderAPIKey is the value shipped in example env files.
const placeholderAPIKey = "your_openai_api_key_here"

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"8000"`

		// Origins allowed by the CORS middleware
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		// gin mode: debug, release or test
		Mode string `env:"GIN_MODE" envDefault:"release"`
	}

	Database struct {
		// sqlite or postgres
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`

		// Path of the sqlite database file
		Path string `env:"DB_PATH" envDefault:"database/realestate.db"`

		// Postgres connection string, used when Driver is postgres
		DSN string `env:"DATABASE_URL"`

		LogQueries bool `env:"DB_LOG_QUERIES" envDefault:"false"`

		// Maximum time spent retrying the initial connection (in seconds)
		ConnectTimeout int `env:"DB_CONNECT_TIMEOUT_SECONDS" envDefault:"30"`
	}

	Narrative struct {
		// openai or gemini
		Provider string `env:"AI_PROVIDER" envDefault:"openai"`

		OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
		OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
		GeminiAPIKey  string `env:"GEMINI_API_KEY"`

		// Empty selects the provider default
		Model string `env:"AI_MODEL"`

		MaxTokens   int     `env:"AI_MAX_TOKENS" envDefault:"500"`
		Temperature float64 `env:"AI_TEMPERATURE" envDefault:"0.7"`

		// Upper bound of the single narrative request (in seconds)
		Timeout int `env:"AI_TIMEOUT_SECONDS" envDefault:"30"`
	}

	Query struct {
		// Optional YAML file overriding the built-in location catalog
		LocationsFile string `env:"LOCATIONS_FILE"`

		City    string `env:"QUERY_CITY" envDefault:"Pune"`
		MinYear int    `env:"QUERY_MIN_YEAR" envDefault:"2020"`
		MaxYear int    `env:"QUERY_MAX_YEAR" envDefault:"2024"`
	}

	Import struct {
		// Number of records inserted per statement during an import
		BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"100"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}
}

func LoadConfig() (*Config, error) {
	// .env is optional; the real environment always wins
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ActiveAPIKey returns the key of the configured narrative provider, or ""
// when the provider is not configured.
func (c *Config) ActiveAPIKey() string {
	var key string
	switch strings.ToLower(c.Narrative.Provider) {
	case "gemini":
		key = c.Narrative.GeminiAPIKey
	default:
		key = c.Narrative.OpenAIAPIKey
	}
	key = strings.TrimSpace(key)
	if key == placeholderAPIKey {
		return ""
	}
	return key
}

// NarrativeEnabled reports whether summaries should be requested from a
// text-generation provider.
func (c *Config) NarrativeEnabled() bool {
	return c.ActiveAPIKey() != ""
}
