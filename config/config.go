package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/predictor"
	"gopkg.in/yaml.v3"
)

// Config represents the complete fundtrader configuration
type Config struct {
	Data       DataConfig       `json:"data" yaml:"data"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

// DataConfig locates the fund files and the portfolio ledger
type DataConfig struct {
	FundsDir      string `json:"funds_dir" yaml:"funds_dir"`
	PortfolioFile string `json:"portfolio_file" yaml:"portfolio_file"`
	FundListFile  string `json:"fund_list_file,omitempty" yaml:"fund_list_file,omitempty"`
	ActionLog     string `json:"action_log,omitempty" yaml:"action_log,omitempty"`
}

// SimulationConfig contains simulation parameters.
// Start, End and TrainEnd are YYYY-MM-DD; when empty they are derived from
// the day offsets relative to the current date.
type SimulationConfig struct {
	StartingMoney float64 `json:"starting_money" yaml:"starting_money"`
	Strategy      string  `json:"strategy" yaml:"strategy"` // "predictor" or "rsi"
	Start         string  `json:"start,omitempty" yaml:"start,omitempty"`
	End           string  `json:"end,omitempty" yaml:"end,omitempty"`
	TrainEnd      string  `json:"train_end,omitempty" yaml:"train_end,omitempty"`
	LookbackDays  int     `json:"lookback_days" yaml:"lookback_days"`
	TrainDays     int     `json:"train_days" yaml:"train_days"`
	EndOffsetDays int     `json:"end_offset_days" yaml:"end_offset_days"`
	RSIPeriod     int     `json:"rsi_period" yaml:"rsi_period"`
	Window        int     `json:"window" yaml:"window"`
	Model         string  `json:"model" yaml:"model"`
	RidgeLambda   float64 `json:"ridge_lambda" yaml:"ridge_lambda"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	ResultsFile string `json:"results_file,omitempty" yaml:"results_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// FetchConfig configures the TEFAS fetcher
type FetchConfig struct {
	BaseURL           string   `json:"base_url" yaml:"base_url"`
	LookbackDays      int      `json:"lookback_days" yaml:"lookback_days"`
	ChunkDays         int      `json:"chunk_days" yaml:"chunk_days"`
	RequestsPerSecond float64  `json:"requests_per_second" yaml:"requests_per_second"`
	Timeout           string   `json:"timeout" yaml:"timeout"` // e.g. "30s"
	Symbols           []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	AllowedOrigins    []string `json:"allowed_origins" yaml:"allowed_origins"`
	RequestsPerSecond float64  `json:"requests_per_second" yaml:"requests_per_second"`
}

// LoadFromFile loads configuration from a file (YAML or JSON). Fields the
// file leaves out keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data.FundsDir == "" {
		return fmt.Errorf("data.funds_dir is required")
	}
	if c.Data.PortfolioFile == "" {
		return fmt.Errorf("data.portfolio_file is required")
	}

	s := c.Simulation
	if s.StartingMoney < 0 {
		return fmt.Errorf("simulation.starting_money must not be negative")
	}
	if s.Strategy != "predictor" && s.Strategy != "rsi" {
		return fmt.Errorf("simulation.strategy must be 'predictor' or 'rsi'")
	}
	for name, v := range map[string]string{"start": s.Start, "end": s.End, "train_end": s.TrainEnd} {
		if v == "" {
			continue
		}
		if _, err := market.ParseDate(v); err != nil {
			return fmt.Errorf("simulation.%s: %w", name, err)
		}
	}
	if s.LookbackDays <= 0 || s.TrainDays <= 0 || s.EndOffsetDays < 0 {
		return fmt.Errorf("simulation day offsets must be positive")
	}
	if s.RSIPeriod <= 0 {
		return fmt.Errorf("simulation.rsi_period must be positive")
	}
	if s.Window <= 0 {
		return fmt.Errorf("simulation.window must be positive")
	}
	if _, err := predictor.New(s.Model, s.RidgeLambda); err != nil {
		return fmt.Errorf("simulation.model: %w", err)
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.ResultsFile == "" {
			return fmt.Errorf("journal trades_file and results_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if c.Fetch.LookbackDays <= 0 || c.Fetch.ChunkDays <= 0 {
		return fmt.Errorf("fetch lookback_days and chunk_days must be positive")
	}
	if c.Fetch.Timeout != "" {
		if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
			return fmt.Errorf("fetch.timeout: %w", err)
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// FetchTimeout returns the parsed fetch timeout, 30s when unset.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Range resolves the simulation dates relative to now. By default the
// model trains on the first TrainDays of the lookback period, trading
// starts where training ends and stops EndOffsetDays before now.
func (c *Config) Range(now time.Time) (start, trainEnd, end time.Time, err error) {
	s := c.Simulation
	today := market.Day(now)

	trainEnd = today.AddDate(0, 0, -s.LookbackDays+s.TrainDays)
	if s.TrainEnd != "" {
		if trainEnd, err = market.ParseDate(s.TrainEnd); err != nil {
			return
		}
	}

	start = trainEnd
	if s.Start != "" {
		if start, err = market.ParseDate(s.Start); err != nil {
			return
		}
	}

	end = today.AddDate(0, 0, -s.EndOffsetDays)
	if s.End != "" {
		if end, err = market.ParseDate(s.End); err != nil {
			return
		}
	}

	if end.Before(start) {
		err = fmt.Errorf("simulation end %s is before start %s", market.FormatDate(end), market.FormatDate(start))
	}
	return
}

// ApplyEnv loads the given .env files and lets the FUNDTRADER_* environment
// variables override the loaded values. With no files it reads ".env" if
// present; a named file that cannot be read is an error.
func (c *Config) ApplyEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	c.Data.FundsDir = getEnv("FUNDTRADER_FUNDS_DIR", c.Data.FundsDir)
	c.Data.PortfolioFile = getEnv("FUNDTRADER_PORTFOLIO", c.Data.PortfolioFile)
	c.Journal.DBPath = getEnv("FUNDTRADER_DB", c.Journal.DBPath)
	c.Server.Addr = getEnv("FUNDTRADER_ADDR", c.Server.Addr)
	c.Fetch.BaseURL = getEnv("FUNDTRADER_TEFAS_URL", c.Fetch.BaseURL)
	c.Simulation.StartingMoney = getEnvFloat("FUNDTRADER_STARTING_MONEY", c.Simulation.StartingMoney)
	if v := os.Getenv("FUNDTRADER_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitAndTrim(v)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			FundsDir:      "funds",
			PortfolioFile: "portfolios/my_portfolio_1.json",
			FundListFile:  "extra_funds_for_fund_list.json",
			ActionLog:     "portfolio_log.txt",
		},
		Simulation: SimulationConfig{
			StartingMoney: 10000,
			Strategy:      "predictor",
			LookbackDays:  5 * 365,
			TrainDays:     2 * 365,
			EndOffsetDays: 7,
			RSIPeriod:     14,
			Window:        predictor.DefaultWindow,
			Model:         "ridge",
			RidgeLambda:   predictor.DefaultLambda,
		},
		Journal: JournalConfig{
			Type:        "csv",
			TradesFile:  "./trades.csv",
			ResultsFile: "./results.csv",
		},
		Fetch: FetchConfig{
			BaseURL:           "https://www.tefas.gov.tr/api/DB/BindHistoryInfo",
			LookbackDays:      5 * 365,
			ChunkDays:         90,
			RequestsPerSecond: 2,
			Timeout:           "30s",
		},
		Server: ServerConfig{
			Addr:              ":8080",
			AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
			RequestsPerSecond: 20,
		},
	}
}
