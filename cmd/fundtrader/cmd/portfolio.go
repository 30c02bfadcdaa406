package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/fundtrader/config"
	"github.com/rustyeddy/fundtrader/ledger"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Record fund transactions and summarize holdings",
	Long: `Manage the portfolio ledger.

Subcommands:
  add      - Record a buy or sell
  list     - List every transaction
  summary  - Value the current holdings

Examples:
  fundtrader portfolio add AFT buy 100 --date 2024-03-01
  fundtrader portfolio summary`,
}

var portfolioAddCmd = &cobra.Command{
	Use:   "add <SYMBOL> <buy|sell> <QUANTITY>",
	Short: "Record a buy or sell",
	Args:  cobra.ExactArgs(3),
	RunE:  runPortfolioAdd,
}

var portfolioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every transaction",
	Args:  cobra.NoArgs,
	RunE:  runPortfolioList,
}

var portfolioSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Value the current holdings",
	Args:  cobra.NoArgs,
	RunE:  runPortfolioSummary,
}

var (
	portfolioFile string
	portfolioDate string
)

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioAddCmd)
	portfolioCmd.AddCommand(portfolioListCmd)
	portfolioCmd.AddCommand(portfolioSummaryCmd)

	portfolioCmd.PersistentFlags().StringVarP(&portfolioFile, "file", "f", "", "portfolio ledger file (default from config)")
	portfolioAddCmd.Flags().StringVar(&portfolioDate, "date", "", "transaction date (YYYY-MM-DD, default today)")
}

func openLedger(cfg *config.Config) (*ledger.Ledger, error) {
	path := cfg.Data.PortfolioFile
	if portfolioFile != "" {
		path = portfolioFile
	}
	return ledger.Open(path)
}

func runPortfolioAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	actions, closeLog, err := openActionLog(cfg.Data.ActionLog)
	if err != nil {
		return err
	}
	defer closeLog()
	l.SetActionLog(actions)

	qty, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("bad quantity %q: %w", args[2], err)
	}
	date := market.Day(time.Now())
	if portfolioDate != "" {
		if date, err = market.ParseDate(portfolioDate); err != nil {
			return err
		}
	}

	tx, err := l.Add(args[0], date, ledger.TxType(args[1]), qty)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ #%d %s %v %s on %s\n", tx.ID, tx.Type, tx.Quantity, tx.Symbol, tx.Date)
	return nil
}

func runPortfolioList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tSYMBOL\tQUANTITY")
	for _, tx := range l.Transactions() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\n", tx.ID, tx.Date, tx.Type, tx.Symbol, tx.Quantity)
	}
	return w.Flush()
}

func runPortfolioSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	all, err := store.New(cfg.Data.FundsDir).LoadAll()
	if err != nil {
		return err
	}

	sum := l.Summarize(all, fundNames(cfg), time.Now())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tQUANTITY\tAVG BUY\tPRICE\tVALUE\tCHANGE\tCHANGE %\tAVG DAYS\t%/DAY\t")
	for _, h := range sum.Holdings {
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\t%s\t%.2f\t%.1f\t%.3f\t\n",
			h.Symbol, h.Quantity,
			h.AvgBuyPrice.StringFixed(4), h.LatestPrice.StringFixed(4),
			h.Value.StringFixed(2), h.ChangeMoney.StringFixed(2),
			h.ChangePct, h.AvgHoldingDays, h.ChangePctPerDay)
	}
	t := sum.Totals
	fmt.Fprintf(w, "TOTAL\t\t\t\t%s\t%s\t%.2f\t%.1f\t%.3f\t\n",
		t.Value.StringFixed(2), t.Change.StringFixed(2), t.ChangePct, t.AvgHoldingDays, t.ChangePctPerDay)
	return w.Flush()
}
