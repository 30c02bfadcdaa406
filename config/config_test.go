package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "funds", cfg.Data.FundsDir)
	assert.Equal(t, 10000.0, cfg.Simulation.StartingMoney)
	assert.Equal(t, 14, cfg.Simulation.RSIPeriod)
	assert.Equal(t, "csv", cfg.Journal.Type)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{
			name:   "missing funds dir",
			modify: func(c *Config) { c.Data.FundsDir = "" },
			errMsg: "data.funds_dir is required",
		},
		{
			name:   "negative starting money",
			modify: func(c *Config) { c.Simulation.StartingMoney = -1 },
			errMsg: "simulation.starting_money must not be negative",
		},
		{
			name:   "unknown strategy",
			modify: func(c *Config) { c.Simulation.Strategy = "momentum" },
			errMsg: "simulation.strategy must be",
		},
		{
			name:   "bad start date",
			modify: func(c *Config) { c.Simulation.Start = "01.02.2024" },
			errMsg: "simulation.start",
		},
		{
			name:   "unknown model",
			modify: func(c *Config) { c.Simulation.Model = "forest" },
			errMsg: "simulation.model",
		},
		{
			name:   "csv journal without files",
			modify: func(c *Config) { c.Journal.TradesFile = "" },
			errMsg: "journal trades_file and results_file required for CSV type",
		},
		{
			name:   "sqlite journal without path",
			modify: func(c *Config) { c.Journal.Type = "sqlite" },
			errMsg: "journal db_path required for SQLite type",
		},
		{
			name:   "bad fetch timeout",
			modify: func(c *Config) { c.Fetch.Timeout = "soon" },
			errMsg: "fetch.timeout",
		},
		{
			name:   "none journal",
			modify: func(c *Config) { c.Journal = JournalConfig{Type: "none"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)

			cfg := Default()
			cfg.Simulation.StartingMoney = 2500
			cfg.Fetch.Symbols = []string{"AFT", "TCD"}
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  strategy: rsi\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rsi", cfg.Simulation.Strategy)
	assert.Equal(t, "funds", cfg.Data.FundsDir)
	assert.Equal(t, 10000.0, cfg.Simulation.StartingMoney)
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(tmpDir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not valid"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("journal:\n  type: kafka\n"), 0644))
	_, err = LoadFromFile(invalid)
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)

	t.Run("derived", func(t *testing.T) {
		start, trainEnd, end, err := Default().Range(now)
		require.NoError(t, err)
		assert.Equal(t, market.Date(2024, 6, 15).AddDate(0, 0, -3*365), trainEnd)
		assert.Equal(t, trainEnd, start)
		assert.Equal(t, market.Date(2024, 6, 8), end)
	})

	t.Run("explicit", func(t *testing.T) {
		cfg := Default()
		cfg.Simulation.Start = "2024-01-01"
		cfg.Simulation.End = "2024-03-01"
		cfg.Simulation.TrainEnd = "2023-12-31"

		start, trainEnd, end, err := cfg.Range(now)
		require.NoError(t, err)
		assert.Equal(t, market.Date(2024, 1, 1), start)
		assert.Equal(t, market.Date(2023, 12, 31), trainEnd)
		assert.Equal(t, market.Date(2024, 3, 1), end)
	})

	t.Run("inverted", func(t *testing.T) {
		cfg := Default()
		cfg.Simulation.Start = "2024-05-01"
		cfg.Simulation.End = "2024-04-01"
		_, _, _, err := cfg.Range(now)
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FUNDTRADER_DB=from-dotenv.db\n"), 0644))

	t.Setenv("FUNDTRADER_FUNDS_DIR", "/data/funds")
	t.Setenv("FUNDTRADER_ADDR", ":9090")
	t.Setenv("FUNDTRADER_STARTING_MONEY", "500")
	t.Setenv("FUNDTRADER_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("FUNDTRADER_DB", "")
	os.Unsetenv("FUNDTRADER_DB")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile))
	t.Cleanup(func() { os.Unsetenv("FUNDTRADER_DB") })

	assert.Equal(t, "/data/funds", cfg.Data.FundsDir)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 500.0, cfg.Simulation.StartingMoney)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "from-dotenv.db", cfg.Journal.DBPath)
	assert.Equal(t, "portfolios/my_portfolio_1.json", cfg.Data.PortfolioFile)
}

func TestApplyEnvFiles(t *testing.T) {
	cfg := Default()

	err := cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Without a named file a missing .env is ignored.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.NoError(t, cfg.ApplyEnv())
}
