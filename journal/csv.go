package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/fundtrader/market"
)

var (
	tradeHeader  = []string{"trade_id", "run_id", "symbol", "side", "date", "shares", "price", "amount", "cash_after", "reason"}
	resultHeader = []string{"run_id", "created", "strategy", "symbol", "start", "end", "starting_cash", "ending_cash", "gain_loss", "gain_loss_pct", "trades", "skipped"}
)

type CSVJournal struct {
	trades  *csv.Writer
	results *csv.Writer
	tf, rf  *os.File
}

func NewCSV(tradesPath, resultsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	rf, err := os.Create(resultsPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	rw := csv.NewWriter(rf)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := rw.Write(resultHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, rw, tf, rf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.RunID,
		t.Symbol,
		string(t.Side),
		market.FormatDate(t.Date),
		strconv.FormatInt(t.Shares, 10),
		t.Price.String(),
		t.Amount.StringFixed(2),
		t.CashAfter.StringFixed(2),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordResult(r ResultRecord) error {
	err := j.results.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Strategy,
		r.Symbol,
		market.FormatDate(r.Start),
		market.FormatDate(r.End),
		r.StartingCash.StringFixed(2),
		r.EndingCash.StringFixed(2),
		r.GainLoss.StringFixed(2),
		r.GainLossPct.StringFixed(2),
		strconv.Itoa(r.Trades),
		r.Skipped,
	})
	if err != nil {
		return err
	}
	j.results.Flush()
	return j.results.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.results.Flush()
	if err := j.results.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.rf.Close(); err != nil {
		return err
	}
	return nil
}
