package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/finassist/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(newViper(nil))
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(home, ".local/share/finassist/finassist.db"), cfg.DatabasePath)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 15*time.Minute, cfg.LLM.CacheTTL)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "America/Mexico_City", cfg.Location.String())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		values  map[string]any
		wantErr error
		name    string
	}{
		{
			name:    "postgrest without credentials",
			values:  map[string]any{"store.backend": "postgrest"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "unknown backend",
			values:  map[string]any{"store.backend": "mongo"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "bad timezone",
			values:  map[string]any{"timezone": "Mars/Olympus"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "negative max amount",
			values:  map[string]any{"assistant.max_amount": -1},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "zero currency rate",
			values:  map[string]any{"currency.rates": map[string]any{"cad": 0}},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "bad log level",
			values:  map[string]any{"logging.level": "chatty"},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SUPABASE_URL", "")
			t.Setenv("SUPABASE_KEY", "")
			_, err := Load(newViper(tt.values))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadRates(t *testing.T) {
	cfg, err := Load(newViper(map[string]any{
		"currency.rates":       map[string]any{"cad": 13.5, "USD": "17.2"},
		"assistant.max_amount": 50000,
	}))
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"CAD": 13.5, "USD": 17.2}, cfg.Rates)
	assert.InDelta(t, 50000, cfg.MaxAmount, 1e-9)
}

func TestLoadPostgRESTFromEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(newViper(map[string]any{
		"store.backend": "PostgREST",
		"llm.provider":  "anthropic",
	}))
	require.NoError(t, err)
	assert.Equal(t, BackendPostgREST, cfg.Backend)
	assert.Equal(t, "https://example.supabase.co", cfg.PostgRESTURL)
	assert.Equal(t, "anon", cfg.PostgRESTKey)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.env")
	require.NoError(t, os.WriteFile(path, []byte("FINASSIST_TEST_TOKEN=from-file\n"), 0600))

	t.Setenv("FINASSIST_TEST_TOKEN", "")
	require.NoError(t, os.Unsetenv("FINASSIST_TEST_TOKEN"))

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("FINASSIST_TEST_TOKEN"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FINASSIST_DIR", "/srv/finassist")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: home},
		{input: "~/db/x.db", want: filepath.Join(home, "db/x.db")},
		{input: "$FINASSIST_DIR/x.db", want: "/srv/finassist/x.db"},
		{input: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
