package sim

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/fundtrader/journal"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Result is the outcome of simulating one fund.
type Result struct {
	Symbol       string
	Strategy     string
	Start        time.Time
	End          time.Time
	Created      time.Time
	StartingCash decimal.Decimal
	EndingCash   decimal.Decimal
	GainLoss     decimal.Decimal
	GainLossPct  decimal.Decimal
	Trades       int
	Final        Portfolio
	Skipped      string
}

func (r *Result) finish(p Portfolio) {
	r.Final = p
	r.EndingCash = p.Cash
	r.GainLoss, r.GainLossPct = gain(r.StartingCash, r.EndingCash)
}

// gain returns ending-starting and its percentage of starting, which is 0
// when starting is 0.
func gain(starting, ending decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	gl := ending.Sub(starting)
	if starting.IsZero() {
		return gl, decimal.Zero
	}
	return gl, gl.Div(starting).Mul(hundred)
}

// Record converts the result into a journal row.
func (r Result) Record(runID string) journal.ResultRecord {
	return journal.ResultRecord{
		RunID:        runID,
		Created:      r.Created,
		Strategy:     r.Strategy,
		Symbol:       r.Symbol,
		Start:        r.Start,
		End:          r.End,
		StartingCash: r.StartingCash,
		EndingCash:   r.EndingCash,
		GainLoss:     r.GainLoss,
		GainLossPct:  r.GainLossPct,
		Trades:       r.Trades,
		Skipped:      r.Skipped,
	}
}

type Skip struct {
	Symbol string
	Reason string
}

// Totals aggregates the completed funds of a run.
type Totals struct {
	Funds        int
	StartingCash decimal.Decimal
	EndingCash   decimal.Decimal
	GainLoss     decimal.Decimal
	GainLossPct  decimal.Decimal
	Trades       int
}

type Report struct {
	RunID    string
	Strategy string
	Results  []Result
	Skipped  []Skip
	Total    Totals
}

func (r *Report) total() {
	t := Totals{Funds: len(r.Results)}
	for _, res := range r.Results {
		t.StartingCash = t.StartingCash.Add(res.StartingCash)
		t.EndingCash = t.EndingCash.Add(res.EndingCash)
		t.Trades += res.Trades
	}
	t.GainLoss, t.GainLossPct = gain(t.StartingCash, t.EndingCash)
	r.Total = t
}

// WriteSummary prints the final figures of one fund.
func WriteSummary(w io.Writer, r Result) error {
	_, err := fmt.Fprintf(w, "\nFinal Results:\nStarting Amount: $%s\nEnding Amount: $%s\nTotal Gain/Loss: $%s\nTotal Percentage: %s%%\n",
		r.StartingCash.StringFixed(2),
		r.EndingCash.StringFixed(2),
		r.GainLoss.StringFixed(2),
		r.GainLossPct.StringFixed(2),
	)
	return err
}

// WriteReport prints every fund of a run, the skipped funds and the totals.
func WriteReport(w io.Writer, rep Report) error {
	for _, res := range rep.Results {
		if _, err := fmt.Fprintf(w, "\n%s (%d trades)", res.Symbol, res.Trades); err != nil {
			return err
		}
		if err := WriteSummary(w, res); err != nil {
			return err
		}
	}
	for _, s := range rep.Skipped {
		if _, err := fmt.Fprintf(w, "\nskipped %s: %s", s.Symbol, s.Reason); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n\nRun %s (%s): %d funds, %d skipped, %d trades\nStarting Amount: $%s\nEnding Amount: $%s\nTotal Gain/Loss: $%s\nTotal Percentage: %s%%\n",
		rep.RunID, rep.Strategy, rep.Total.Funds, len(rep.Skipped), rep.Total.Trades,
		rep.Total.StartingCash.StringFixed(2),
		rep.Total.EndingCash.StringFixed(2),
		rep.Total.GainLoss.StringFixed(2),
		rep.Total.GainLossPct.StringFixed(2),
	)
	return err
}
