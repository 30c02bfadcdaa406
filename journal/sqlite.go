package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/fundtrader/market"
)

// SQLite stores trades and results in a SQLite database. Money columns are
// decimal strings so values round-trip exactly.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, side, date, shares, price, amount, cash_after, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Symbol, string(t.Side), market.FormatDate(t.Date),
		t.Shares, t.Price, t.Amount, t.CashAfter, t.Reason,
	)
	return err
}

func (j *SQLite) RecordResult(r ResultRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO results
		(run_id, created, strategy, symbol, start_date, end_date,
		 starting_cash, ending_cash, gain_loss, gain_loss_pct, trades, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Strategy, r.Symbol,
		market.FormatDate(r.Start), market.FormatDate(r.End),
		r.StartingCash, r.EndingCash, r.GainLoss, r.GainLossPct, r.Trades, r.Skipped,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
