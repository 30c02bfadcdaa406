package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rustyeddy/fundtrader/config"
	"github.com/rustyeddy/fundtrader/journal"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/predictor"
	"github.com/rustyeddy/fundtrader/sim"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [SYMBOL...]",
	Short: "Backtest a strategy over the stored fund histories",
	Long: `Simulate runs an independent all-in/all-out simulation for every fund
(or only the given symbols) and prints the per-fund and total results.

Strategies:
  - predictor: buys when the model expects a rise, sells when it expects a fall
  - rsi: logs the daily RSI without trading

By default the model trains on the start of the lookback period and trading
starts where training ends.

Examples:
  fundtrader simulate
  fundtrader simulate --strategy rsi --start 2024-01-01 --end 2024-06-30 AFT
  fundtrader simulate --journal sqlite --db runs.sqlite --quiet`,
	RunE: runSimulate,
}

var (
	simStrategy string
	simModel    string
	simStart    string
	simEnd      string
	simTrainEnd string
	simCash     float64
	simJournal  string
	simDBPath   string
	simQuiet    bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simStrategy, "strategy", "s", "", "strategy name (predictor, rsi)")
	simulateCmd.Flags().StringVarP(&simModel, "model", "m", "", "predictor model ("+strings.Join(predictor.Names(), ", ")+")")
	simulateCmd.Flags().StringVar(&simStart, "start", "", "first trading day (YYYY-MM-DD)")
	simulateCmd.Flags().StringVar(&simEnd, "end", "", "last trading day (YYYY-MM-DD)")
	simulateCmd.Flags().StringVar(&simTrainEnd, "train-end", "", "last day of model training data (YYYY-MM-DD)")
	simulateCmd.Flags().Float64VarP(&simCash, "cash", "b", 0, "starting cash per fund")
	simulateCmd.Flags().StringVarP(&simJournal, "journal", "j", "", "journal type (csv, sqlite, none)")
	simulateCmd.Flags().StringVarP(&simDBPath, "db", "d", "", "path to SQLite journal DB")
	simulateCmd.Flags().BoolVarP(&simQuiet, "quiet", "q", false, "do not log daily signals and trades")
}

// applySimulateFlags lets explicitly set flags win over the config.
func applySimulateFlags(cmd *cobra.Command, cfg *config.Config) error {
	s := &cfg.Simulation
	f := cmd.Flags()
	if f.Changed("strategy") {
		s.Strategy = simStrategy
	}
	if f.Changed("model") {
		s.Model = simModel
	}
	if f.Changed("start") {
		s.Start = simStart
	}
	if f.Changed("end") {
		s.End = simEnd
	}
	if f.Changed("train-end") {
		s.TrainEnd = simTrainEnd
	}
	if f.Changed("cash") {
		s.StartingMoney = simCash
	}
	if f.Changed("journal") {
		cfg.Journal.Type = simJournal
	}
	if f.Changed("db") {
		cfg.Journal.DBPath = simDBPath
	}
	return cfg.Validate()
}

func newStrategy(cfg *config.Config, trainEnd time.Time) (sim.Strategy, error) {
	s := cfg.Simulation
	switch s.Strategy {
	case "rsi":
		return &sim.RSIWatch{Period: s.RSIPeriod}, nil
	case "predictor":
		model, err := predictor.New(s.Model, s.RidgeLambda)
		if err != nil {
			return nil, err
		}
		return &sim.PredictorStrategy{Model: model, Window: s.Window, TrainEnd: trainEnd}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (supported: predictor, rsi)", s.Strategy)
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.TradesFile, cfg.ResultsFile)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "none", "":
		return journal.Discard, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}

func runSimulate(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applySimulateFlags(cmd, cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	start, trainEnd, end, err := cfg.Range(time.Now())
	if err != nil {
		return err
	}

	strat, err := newStrategy(cfg, trainEnd)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	funds, err := loadFunds(store.New(cfg.Data.FundsDir), args, log.New(cmd.ErrOrStderr(), "", 0))
	if err != nil {
		return err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer closeInto(j, "journal", &err)

	var out io.Writer = cmd.OutOrStdout()
	logger := log.New(out, "", 0)
	if simQuiet {
		logger = log.New(io.Discard, "", 0)
	}

	engine := sim.NewEngine(sim.Config{
		StartingCash: decimal.NewFromFloat(cfg.Simulation.StartingMoney),
		Start:        start,
		End:          end,
	}, strat, sim.WithJournal(j), sim.WithLogger(logger))

	fmt.Fprintf(out, "Running %s simulation over %d funds\n", strat.Name(), len(funds))
	fmt.Fprintf(out, "  Training: up to %s\n", market.FormatDate(trainEnd))
	fmt.Fprintf(out, "  Trading:  %s to %s\n", market.FormatDate(start), market.FormatDate(end))
	fmt.Fprintf(out, "  Journal:  %s\n\n", cfg.Journal.Type)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep, err := engine.Run(ctx, funds)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	return sim.WriteReport(out, rep)
}

// loadFunds loads every stored fund, or only the given symbols. A symbol
// that cannot be loaded gets an empty history so the run reports it as
// skipped instead of stopping.
func loadFunds(st *store.Store, symbols []string, logger *log.Logger) (map[string]*market.FundHistory, error) {
	if len(symbols) == 0 {
		return st.LoadAll()
	}
	out := make(map[string]*market.FundHistory, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		h, err := st.Load(sym)
		if err != nil {
			logger.Printf("Skipping %s: %v", sym, err)
			h = market.NewFundHistory(sym, nil)
		}
		out[sym] = h
	}
	return out, nil
}
