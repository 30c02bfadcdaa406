package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rustyeddy/fundtrader/config"
	"github.com/rustyeddy/fundtrader/tefas"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fundtrader",
	Short: "Track, fetch and backtest TEFAS investment funds",
	Long: `Fundtrader keeps daily price histories of Turkish investment funds,
tracks a personal portfolio of them and backtests simple trading strategies.

It provides tools for:
  - Fetching fund prices from TEFAS
  - Recording buys and sells and summarizing the portfolio
  - Simulating predictor and RSI strategies over the stored histories
  - Querying the simulation journal
  - Serving histories and the portfolio to the web frontend`,
	SilenceUsage: true,
}

var (
	cfgFile string
	envFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "optional .env file (default .env)")
}

// loadConfig reads the config file if one was given, applies environment
// overrides and validates the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := cfg.ApplyEnv(files...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fundNames reads the optional fund list. A missing list is not an error.
func fundNames(cfg *config.Config) map[string]string {
	if cfg.Data.FundListFile == "" {
		return map[string]string{}
	}
	names, err := tefas.LoadFundList(cfg.Data.FundListFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("fund list: %v", err)
		}
		return map[string]string{}
	}
	return names
}

// openActionLog appends ledger actions to path; an empty path discards them.
func openActionLog(path string) (*log.Logger, func() error, error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open action log: %w", err)
	}
	return log.New(f, "", log.LstdFlags), f.Close, nil
}

// closeInto closes c and reports its error through err unless err is
// already set.
func closeInto(c io.Closer, what string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", what, cerr)
	}
}
