package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("CSRF_SECRET", "csrf")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.StockSource)
	assert.Equal(t, 100, cfg.DefaultPageSize)
	assert.Equal(t, "data/suppliers.csv", cfg.SupplierFile)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, language.BrazilianPortuguese, cfg.LocaleTag())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{SessionSecret: "s", CSRFSecret: "c", StockSource: SourcePostgres, Locale: "pt-BR"}
	}

	cfg := base()
	cfg.StockSource = " HTTP "
	assert.Error(t, cfg.Validate(), "http source needs a URL")

	cfg.StockAPIURL = "http://backend/api/products"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, SourceHTTP, cfg.StockSource)

	cfg = base()
	cfg.StockSource = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Locale = "not a locale!"
	assert.Error(t, cfg.Validate())
	assert.Equal(t, language.BrazilianPortuguese, cfg.LocaleTag())

	cfg = base()
	cfg.CSRFSecret = ""
	assert.Error(t, cfg.Validate())
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "production", LogFormat: "json"})
	logger.Debug("hidden")
	logger.Info("visible", slog.Int("products", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "stockreview", entry["service"])
	assert.EqualValues(t, 3, entry["products"])

	buf.Reset()
	logger = newLogger(&buf, &Config{AppEnv: "development"})
	logger.Debug("debug line")
	assert.Contains(t, buf.String(), "msg=\"debug line\"")
}

func TestInTestMode(t *testing.T) {
	t.Setenv(TestModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(TestModeEnv, "false")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
