package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/rustyeddy/fundtrader/tefas"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [SYMBOL...]",
	Short: "Download new fund prices from TEFAS",
	Long: `Fetch brings fund files up to date. Each fund resumes from the day after
its newest stored price; a fund without a file is fetched over the lookback
period.

Without arguments the symbols come from the config, then the fund list,
then the funds already stored.

Examples:
  fundtrader fetch AFT TCD
  fundtrader fetch --lookback 365`,
	RunE: runFetch,
}

var (
	fetchLookback int
	fetchRate     float64
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchLookback, "lookback", 0, "days to fetch for new funds (default from config)")
	fetchCmd.Flags().Float64Var(&fetchRate, "rate", 0, "requests per second (default from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := store.New(cfg.Data.FundsDir)

	symbols, err := fetchSymbols(args, cfg.Fetch.Symbols, fundNames(cfg), st)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no funds to fetch")
	}

	rps := cfg.Fetch.RequestsPerSecond
	if fetchRate > 0 {
		rps = fetchRate
	}
	lookback := cfg.Fetch.LookbackDays
	if fetchLookback > 0 {
		lookback = fetchLookback
	}

	client := tefas.NewClient(
		tefas.WithBaseURL(cfg.Fetch.BaseURL),
		tefas.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout()}),
		tefas.WithRate(rps),
		tefas.WithChunkDays(cfg.Fetch.ChunkDays),
	)
	u := &tefas.Updater{Store: st, Client: client, LookbackDays: lookback}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	updates, err := u.UpdateAll(ctx, symbols, time.Now())
	out := cmd.OutOrStdout()
	for _, up := range updates {
		fmt.Fprintf(out, "%-6s %s..%s fetched %d, %d days stored\n",
			up.Symbol, market.FormatDate(up.From), market.FormatDate(up.To), up.Fetched, up.Total)
	}
	return err
}

// fetchSymbols picks the funds to update: arguments first, then the
// configured list, then the fund list file, then the stored funds.
func fetchSymbols(args, configured []string, listed map[string]string, st *store.Store) ([]string, error) {
	pick := args
	if len(pick) == 0 {
		pick = configured
	}
	if len(pick) == 0 && len(listed) > 0 {
		for sym := range listed {
			pick = append(pick, sym)
		}
		sort.Strings(pick)
	}
	if len(pick) == 0 {
		return st.Symbols()
	}

	out := make([]string, 0, len(pick))
	for _, s := range pick {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out, nil
}
