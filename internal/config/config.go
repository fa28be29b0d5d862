// Package config loads the typed application configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/Veraticus/finassist/internal/common"
	"github.com/Veraticus/finassist/internal/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSQLite    = "sqlite"
	BackendPostgREST = "postgrest"
)

// Config is the resolved application configuration.
type Config struct {
	Location      *time.Location
	DatabasePath  string
	Backend       string
	PostgRESTURL  string
	PostgRESTKey  string
	RulesPath     string
	GuardrailPath string
	ServerAddr    string
	LogLevel      string
	LogFormat     string
	Rates         map[string]float64
	LLM           llm.Config
	MaxAmount     float64
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/finassist/finassist.db")
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.cache_ttl", "15m")
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("assistant.max_amount", 0)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("timezone", "America/Mexico_City")
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		path = ExpandPath(path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load resolves a Config from v. Provider API keys fall back to the
// conventional OPENAI_API_KEY and ANTHROPIC_API_KEY variables, and the
// PostgREST settings to SUPABASE_URL and SUPABASE_KEY.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath:  ExpandPath(v.GetString("database.path")),
		Backend:       strings.ToLower(v.GetString("store.backend")),
		PostgRESTURL:  firstNonEmpty(v.GetString("postgrest.url"), os.Getenv("SUPABASE_URL")),
		PostgRESTKey:  firstNonEmpty(v.GetString("postgrest.key"), os.Getenv("SUPABASE_KEY")),
		RulesPath:     ExpandPath(v.GetString("rules.path")),
		GuardrailPath: ExpandPath(v.GetString("guardrail.path")),
		ServerAddr:    v.GetString("server.addr"),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
		MaxAmount:     v.GetFloat64("assistant.max_amount"),
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
	}

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	switch cfg.Backend {
	case BackendSQLite:
		if cfg.DatabasePath == "" {
			return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case BackendPostgREST:
		if cfg.PostgRESTURL == "" || cfg.PostgRESTKey == "" {
			return nil, fmt.Errorf("%w: postgrest.url and postgrest.key", common.ErrMissingConfig)
		}
	default:
		return nil, fmt.Errorf("%w: store.backend %q", common.ErrInvalidConfig, cfg.Backend)
	}

	if cfg.MaxAmount < 0 {
		return nil, fmt.Errorf("%w: assistant.max_amount must not be negative", common.ErrInvalidConfig)
	}

	rates, err := loadRates(v)
	if err != nil {
		return nil, err
	}
	cfg.Rates = rates

	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	tz := v.GetString("timezone")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, tz, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// loadRates reads currency.rates, the MXN value of one unit of each listed
// currency. Viper lowercases map keys so they are uppercased here.
func loadRates(v *viper.Viper) (map[string]float64, error) {
	raw := map[string]float64{}
	if err := v.UnmarshalKey("currency.rates", &raw); err != nil {
		return nil, fmt.Errorf("%w: currency.rates: %w", common.ErrInvalidConfig, err)
	}
	rates := make(map[string]float64, len(raw))
	for code, rate := range raw {
		if rate <= 0 {
			return nil, fmt.Errorf("%w: currency.rates.%s must be positive", common.ErrInvalidConfig, code)
		}
		rates[strings.ToUpper(code)] = rate
	}
	return rates, nil
}

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~" || strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
