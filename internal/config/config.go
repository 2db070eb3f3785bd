package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	AppEnv    string
	PublicURL string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	DefaultModel  string

	// Zero means no timeout beyond the transport default.
	CompletionTimeout time.Duration

	CORSAllowOrigins       []string
	SimulationHistoryLimit int
}

// Load reads an optional .env file and then the process environment. Missing
// provider credentials are not an error here; they surface when a completion
// call is attempted.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	openAIModel := getEnv("OPENAI_MODEL", "gpt-4o-mini")
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		DatabaseDriver:    strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:       getEnv("DATABASE_URL", "synapse.db"),
		JWTSecret:         getEnv("AUTH_JWT_SECRET", getEnv("SUPABASE_JWT_SECRET", "")),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		OpenAIModel:       openAIModel,
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		DefaultModel:      getEnv("DEFAULT_MODEL", openAIModel),
		CompletionTimeout: time.Duration(getEnvInt("COMPLETION_TIMEOUT_SECONDS", 0)) * time.Second,
		CORSAllowOrigins:  splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}
	cfg.SimulationHistoryLimit = getEnvInt("SIMULATION_HISTORY_LIMIT", 10)
	cfg.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+cfg.Port), "/")

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}
	if cfg.SimulationHistoryLimit <= 0 {
		cfg.SimulationHistoryLimit = 10
	}
	return cfg, nil
}

func (c Config) Production() bool {
	switch strings.ToLower(c.AppEnv) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnv(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
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
