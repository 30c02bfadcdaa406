// Package sim replays fund price histories through a trading strategy.
//
// Every fund is simulated independently with its own portfolio. A fund that
// cannot be simulated is skipped and reported; it never aborts the run.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/rustyeddy/fundtrader/internal/id"
	"github.com/rustyeddy/fundtrader/journal"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingHistory is returned for a fund with no price records.
	ErrMissingHistory = store.ErrMissingHistory

	// ErrJournal wraps failures to record trades or results. They stop a run.
	ErrJournal = errors.New("journal")
)

// Config is the cash and the inclusive date range of a simulation.
type Config struct {
	StartingCash decimal.Decimal
	Start        time.Time
	End          time.Time
}

func (c Config) Validate() error {
	if c.StartingCash.IsNegative() {
		return fmt.Errorf("starting cash must not be negative, got %s", c.StartingCash)
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return errors.New("start and end dates are required")
	}
	if market.Day(c.End).Before(market.Day(c.Start)) {
		return fmt.Errorf("end %s is before start %s", market.FormatDate(c.End), market.FormatDate(c.Start))
	}
	return nil
}

type Engine struct {
	cfg      Config
	strategy Strategy
	journal  journal.Journal
	logger   *log.Logger
	runID    string
	ids      *id.Generator
	now      func() time.Time
}

type Option func(*Engine)

func WithJournal(j journal.Journal) Option {
	return func(e *Engine) {
		if j != nil {
			e.journal = j
		}
	}
}

// WithLogger sets the per-day log. A nil logger silences it.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		e.logger = l
	}
}

func WithRunID(runID string) Option {
	return func(e *Engine) {
		if runID != "" {
			e.runID = runID
		}
	}
}

// WithClock overrides the time used for trade IDs and result timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
			e.ids = id.NewGenerator(now)
		}
	}
}

func NewEngine(cfg Config, s Strategy, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		strategy: s,
		journal:  journal.Discard,
		logger:   log.Default(),
		ids:      id.NewGenerator(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = e.ids.New()
	}
	return e
}

func (e *Engine) RunID() string { return e.runID }

// RunFund simulates one fund from Start to End with a fresh portfolio.
// When the fund cannot be simulated the returned Result carries the reason
// in Skipped alongside the error.
func (e *Engine) RunFund(ctx context.Context, h *market.FundHistory) (Result, error) {
	res, err := e.runFund(ctx, h)
	if err != nil && res.Skipped == "" && !fatal(err) {
		res.Skipped = err.Error()
	}
	return res, err
}

// fatal errors abort a whole run rather than skipping one fund.
func fatal(err error) bool {
	return errors.Is(err, ErrJournal) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (e *Engine) runFund(ctx context.Context, h *market.FundHistory) (Result, error) {
	res := e.newResult(h.Symbol())

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := e.cfg.Validate(); err != nil {
		return res, err
	}
	if h.Len() == 0 {
		res.Skipped = "no data"
		return res, fmt.Errorf("%s: %w", h.Symbol(), ErrMissingHistory)
	}
	if err := e.strategy.Prepare(h); err != nil {
		res.Skipped = err.Error()
		return res, fmt.Errorf("prepare %s: %w", h.Symbol(), err)
	}

	p := NewPortfolio(e.cfg.StartingCash)
	start, end := market.Day(e.cfg.Start), market.Day(e.cfg.End)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rec, ok := h.Lookup(d)
		if !ok {
			continue
		}

		sig := e.strategy.Decide(Day{Date: d, Price: rec.Price, History: h, Portfolio: p})
		if sig.Reason != "" && sig.Action == Hold {
			e.logger.Printf("Date: %s, Fund: %s, %s", market.FormatDate(d), h.Symbol(), sig.Reason)
		}

		switch {
		case sig.Action == Buy && p.Cash.IsPositive():
			n, err := p.Buy(h.Symbol(), rec.Price)
			if err != nil {
				return res, err
			}
			if n > 0 {
				res.Trades++
				if err := e.recordTrade(journal.SideBuy, h.Symbol(), d, n, rec.Price, p, sig.Reason); err != nil {
					return res, err
				}
			}
		case sig.Action == Sell && p.Holding():
			n, err := p.Sell(rec.Price)
			if err != nil {
				return res, err
			}
			res.Trades++
			if err := e.recordTrade(journal.SideSell, h.Symbol(), d, n, rec.Price, p, sig.Reason); err != nil {
				return res, err
			}
		}

		if err := p.Check(); err != nil {
			return res, fmt.Errorf("%s on %s: %w", h.Symbol(), market.FormatDate(d), err)
		}
	}

	if p.Holding() {
		rec, ok := h.LatestOnOrBefore(end)
		if !ok {
			return res, fmt.Errorf("%s: no price to liquidate on %s", h.Symbol(), market.FormatDate(end))
		}
		n, err := p.Sell(rec.Price)
		if err != nil {
			return res, err
		}
		res.Trades++
		if err := e.recordTrade(journal.SideSell, h.Symbol(), end, n, rec.Price, p, "end of simulation"); err != nil {
			return res, err
		}
		if err := p.Check(); err != nil {
			return res, err
		}
	}

	res.finish(p)
	return res, nil
}

// Run simulates every fund in funds, in symbol order. Funds that cannot be
// simulated are listed in Report.Skipped. Only a cancelled context or a
// journal failure stops the run early.
func (e *Engine) Run(ctx context.Context, funds map[string]*market.FundHistory) (Report, error) {
	rep := Report{RunID: e.runID, Strategy: e.strategy.Name()}
	if err := e.cfg.Validate(); err != nil {
		return rep, err
	}

	symbols := make([]string, 0, len(funds))
	for sym := range funds {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		h := funds[sym]
		if h == nil {
			h = market.NewFundHistory(sym, nil)
		}
		e.logger.Printf("Simulating strategy for fund: %s", sym)

		res, err := e.RunFund(ctx, h)
		if err != nil {
			if fatal(err) {
				return rep, err
			}
			e.logger.Printf("Skipping %s: %v", sym, err)
			rep.Skipped = append(rep.Skipped, Skip{Symbol: sym, Reason: res.Skipped})
		} else {
			rep.Results = append(rep.Results, res)
		}

		if err := e.journal.RecordResult(res.Record(e.runID)); err != nil {
			return rep, fmt.Errorf("%w: result %s: %v", ErrJournal, sym, err)
		}
	}

	rep.total()
	return rep, nil
}

func (e *Engine) newResult(symbol string) Result {
	return Result{
		Symbol:       symbol,
		Strategy:     e.strategy.Name(),
		Start:        market.Day(e.cfg.Start),
		End:          market.Day(e.cfg.End),
		StartingCash: e.cfg.StartingCash,
		EndingCash:   e.cfg.StartingCash,
		Created:      e.now().UTC(),
	}
}

func (e *Engine) recordTrade(side journal.Side, symbol string, d time.Time, shares int64, price decimal.Decimal, p Portfolio, reason string) error {
	action := "Bought"
	if side == journal.SideSell {
		action = "Sold"
	}
	e.logger.Printf("Date: %s, Fund: %s, Action: %s %d shares at %s, %s",
		market.FormatDate(d), symbol, action, shares, price, reason)

	rec := journal.TradeRecord{
		TradeID:   e.ids.New(),
		RunID:     e.runID,
		Symbol:    symbol,
		Side:      side,
		Date:      d,
		Shares:    shares,
		Price:     price,
		Amount:    price.Mul(decimal.NewFromInt(shares)),
		CashAfter: p.Cash,
		Reason:    reason,
	}
	if err := e.journal.RecordTrade(rec); err != nil {
		return fmt.Errorf("%w: trade %s: %v", ErrJournal, symbol, err)
	}
	return nil
}
