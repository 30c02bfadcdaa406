package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rustyeddy/fundtrader/internal/id"
	"github.com/rustyeddy/fundtrader/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the simulation journal",
	Long: `Query and display simulation records from the SQLite journal.

Subcommands:
  runs     - List recorded runs
  results  - Show the per-fund results of a run as Org-mode entries
  trades   - List the trades of a run
  trade    - Get details of a specific trade by ID

Examples:
  fundtrader journal runs
  fundtrader journal results <run-id> --org-dir reports/
  fundtrader journal trade <trade-id>`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalResultsCmd = &cobra.Command{
	Use:   "results <run-id>",
	Short: "Show the per-fund results of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalResults,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var (
	journalDBPath string
	journalOrgDir string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalResultsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default from config)")
	journalResultsCmd.Flags().StringVar(&journalOrgDir, "org-dir", "", "also write one .org file per fund into this directory")
}

func openJournalDB() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no journal DB: pass --db or set journal.db_path")
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tCREATED\tSTRATEGY\tFUNDS\tSKIPPED\tSTART $\tEND $")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.RunID, runStarted(r.RunID), r.Created.Format("2006-01-02 15:04"), r.Strategy, r.Funds, r.Skipped,
			r.StartingCash.StringFixed(2), r.EndingCash.StringFixed(2))
	}
	return w.Flush()
}

// runStarted is the start time carried in a run ID, or "-" for IDs that
// were not generated by the engine.
func runStarted(runID string) string {
	t, err := id.Time(runID)
	if err != nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func runJournalResults(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	runID := args[0]
	results, err := j.ListResults(runID)
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("run %q: %w", runID, journal.ErrNotFound)
	}
	trades, err := j.ListTradesByRun(runID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	bySymbol := map[string][]journal.TradeRecord{}
	for _, t := range trades {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	if journalOrgDir != "" {
		if err := os.MkdirAll(journalOrgDir, 0o755); err != nil {
			return err
		}
	}

	for _, r := range results {
		s, err := journal.FormatResultOrg(r, bySymbol[r.Symbol])
		if err != nil {
			return fmt.Errorf("format %s: %w", r.Symbol, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)

		if journalOrgDir != "" {
			path := filepath.Join(journalOrgDir, fmt.Sprintf("%s-%s.org", runID, r.Symbol))
			if err := journal.WriteResultOrg(path, r, bySymbol[r.Symbol]); err != nil {
				return err
			}
		}
	}
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesByRun(args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}
