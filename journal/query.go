package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/shopspring/decimal"
)

const tradeColumns = `trade_id, run_id, symbol, side, date, shares, price, amount, cash_after, reason`

const resultColumns = `run_id, created, strategy, symbol, start_date, end_date,
	starting_cash, ending_cash, gain_loss, gain_loss_pct, trades, skipped`

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// RunSummary aggregates the results of one simulation run.
type RunSummary struct {
	RunID        string
	Strategy     string
	Created      time.Time
	Funds        int
	Skipped      int
	StartingCash decimal.Decimal
	EndingCash   decimal.Decimal
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec  TradeRecord
		side string
		date string
	)
	err := s.Scan(
		&rec.TradeID,
		&rec.RunID,
		&rec.Symbol,
		&side,
		&date,
		&rec.Shares,
		&rec.Price,
		&rec.Amount,
		&rec.CashAfter,
		&rec.Reason,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	rec.Side = Side(side)
	if rec.Date, err = market.ParseDate(date); err != nil {
		return TradeRecord{}, err
	}
	return rec, nil
}

func scanResult(s scanner) (ResultRecord, error) {
	var (
		rec        ResultRecord
		start, end string
	)
	err := s.Scan(
		&rec.RunID,
		&rec.Created,
		&rec.Strategy,
		&rec.Symbol,
		&start,
		&end,
		&rec.StartingCash,
		&rec.EndingCash,
		&rec.GainLoss,
		&rec.GainLossPct,
		&rec.Trades,
		&rec.Skipped,
	)
	if err != nil {
		return ResultRecord{}, err
	}
	if rec.Start, err = market.ParseDate(start); err != nil {
		return ResultRecord{}, err
	}
	if rec.End, err = market.ParseDate(end); err != nil {
		return ResultRecord{}, err
	}
	return rec, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesByRun returns the trades of a run ordered by date.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY symbol ASC, date ASC, rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResults returns the per-fund results of a run ordered by symbol.
func (j *SQLite) ListResults(runID string) ([]ResultRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+resultColumns+`
		FROM results
		WHERE run_id = ?
		ORDER BY symbol ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns summarizes every recorded run, oldest first.
func (j *SQLite) ListRuns() ([]RunSummary, error) {
	rows, err := j.db.Query(`
		SELECT ` + resultColumns + `
		FROM results
		ORDER BY created ASC, run_id ASC, symbol ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []RunSummary
		index = map[string]int{}
	)
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		i, ok := index[rec.RunID]
		if !ok {
			i = len(out)
			index[rec.RunID] = i
			out = append(out, RunSummary{
				RunID:    rec.RunID,
				Strategy: rec.Strategy,
				Created:  rec.Created,
			})
		}
		s := &out[i]
		if rec.Skipped != "" {
			s.Skipped++
			continue
		}
		s.Funds++
		s.StartingCash = s.StartingCash.Add(rec.StartingCash)
		s.EndingCash = s.EndingCash.Add(rec.EndingCash)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
