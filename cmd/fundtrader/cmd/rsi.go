package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/fundtrader/indicators"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/spf13/cobra"
)

var rsiCmd = &cobra.Command{
	Use:   "rsi <SYMBOL>",
	Short: "Print the RSI of a fund",
	Long: `Print the Relative Strength Index of a fund on a day, or on every day
of a range when --days is given.

Examples:
  fundtrader rsi AFT
  fundtrader rsi AFT --date 2024-03-01 --period 7
  fundtrader rsi AFT --days 30`,
	Args: cobra.ExactArgs(1),
	RunE: runRSI,
}

var (
	rsiDate   string
	rsiPeriod int
	rsiDays   int
)

func init() {
	rootCmd.AddCommand(rsiCmd)

	rsiCmd.Flags().StringVar(&rsiDate, "date", "", "day to compute (YYYY-MM-DD, default newest on file)")
	rsiCmd.Flags().IntVarP(&rsiPeriod, "period", "p", 0, "RSI period (default from config)")
	rsiCmd.Flags().IntVar(&rsiDays, "days", 1, "number of days ending at --date to print")
}

func runRSI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	period := cfg.Simulation.RSIPeriod
	if rsiPeriod > 0 {
		period = rsiPeriod
	}

	h, err := store.New(cfg.Data.FundsDir).Load(strings.ToUpper(args[0]))
	if err != nil {
		return err
	}

	var asOf time.Time
	if rsiDate != "" {
		if asOf, err = market.ParseDate(rsiDate); err != nil {
			return err
		}
	} else {
		latest, ok := h.Latest()
		if !ok {
			return fmt.Errorf("%s has no prices", h.Symbol())
		}
		asOf = latest.Date
	}

	out := cmd.OutOrStdout()
	for d := asOf.AddDate(0, 0, -(rsiDays - 1)); !d.After(asOf); d = d.AddDate(0, 0, 1) {
		if _, ok := h.Lookup(d); !ok && rsiDays > 1 {
			continue
		}
		v, err := indicators.RSI(h, d, period)
		if err != nil {
			fmt.Fprintf(out, "Unable to calculate RSI for %s on %s\n", h.Symbol(), market.FormatDate(d))
			continue
		}
		fmt.Fprintf(out, "%s %s RSI: %.2f\n", market.FormatDate(d), h.Symbol(), v)
	}
	return nil
}
