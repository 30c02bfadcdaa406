package ledger

import (
	"sort"
	"time"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Holding is one fund currently held, valued at its latest price.
type Holding struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name,omitempty"`
	Quantity        float64         `json:"quantity"`
	LatestPrice     decimal.Decimal `json:"latest_price"`
	Value           decimal.Decimal `json:"value"`
	Cost            decimal.Decimal `json:"cost"`
	AvgBuyPrice     decimal.Decimal `json:"avg_buy_price"`
	ChangePct       float64         `json:"change_pct"`
	ChangeMoney     decimal.Decimal `json:"change_money"`
	AvgHoldingDays  float64         `json:"avg_holding_days"`
	ChangePctPerDay float64         `json:"change_pct_per_day"`
}

type Totals struct {
	Cost            decimal.Decimal `json:"cost"`
	Value           decimal.Decimal `json:"value"`
	Change          decimal.Decimal `json:"change"`
	ChangePct       float64         `json:"change_pct"`
	AvgHoldingDays  float64         `json:"avg_holding_days"`
	ChangePctPerDay float64         `json:"change_pct_per_day"`
}

type Summary struct {
	Holdings []Holding `json:"holdings"`
	Totals   Totals    `json:"totals"`
}

// Summarize values every holding against its fund history as of now.
//
// The buy price of a purchase is the first price on or after its date. The
// average holding days weight each purchase by its quantity. A fund without
// history reports zero for every metric. names is optional.
func (l *Ledger) Summarize(histories map[string]*market.FundHistory, names map[string]string, now time.Time) Summary {
	held := l.Holdings()
	symbols := make([]string, 0, len(held))
	for sym := range held {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	sum := Summary{Holdings: make([]Holding, 0, len(symbols))}
	var weightedDays, totalQty float64

	for _, sym := range symbols {
		h := l.holding(sym, held[sym], histories[sym], market.Day(now))
		h.Name = names[sym]

		sum.Totals.Cost = sum.Totals.Cost.Add(h.Cost)
		sum.Totals.Value = sum.Totals.Value.Add(h.Value)
		sum.Totals.Change = sum.Totals.Change.Add(h.ChangeMoney)
		weightedDays += h.AvgHoldingDays * h.Quantity
		totalQty += h.Quantity

		sum.Holdings = append(sum.Holdings, h)
	}

	t := &sum.Totals
	if t.Cost.IsPositive() {
		t.ChangePct = t.Change.Div(t.Cost).Mul(hundred).InexactFloat64()
	}
	if totalQty > 0 {
		t.AvgHoldingDays = weightedDays / totalQty
	}
	if t.AvgHoldingDays > 0 {
		t.ChangePctPerDay = t.ChangePct / t.AvgHoldingDays
	}
	return sum
}

func (l *Ledger) holding(symbol string, qty float64, h *market.FundHistory, today time.Time) Holding {
	out := Holding{Symbol: symbol, Quantity: qty}

	latest, ok := h.Latest()
	if !ok {
		return out
	}
	out.LatestPrice = latest.Price
	out.Value = latest.Price.Mul(decimal.NewFromFloat(qty))

	var weightedDays, boughtQty float64
	for _, tx := range l.txs {
		if tx.Symbol != symbol || tx.Type != Buy {
			continue
		}
		d, err := market.ParseDate(tx.Date)
		if err != nil {
			continue
		}
		days := today.Sub(d).Hours() / 24
		weightedDays += tx.Quantity * float64(int(days))
		boughtQty += tx.Quantity

		if rec, ok := h.FirstOnOrAfter(d); ok {
			out.Cost = out.Cost.Add(rec.Price.Mul(decimal.NewFromFloat(tx.Quantity)))
		}
	}
	if boughtQty == 0 {
		return out
	}

	out.AvgHoldingDays = weightedDays / boughtQty
	out.AvgBuyPrice = out.Cost.Div(decimal.NewFromFloat(boughtQty))

	if out.AvgBuyPrice.IsPositive() {
		diff := latest.Price.Sub(out.AvgBuyPrice)
		out.ChangePct = diff.Div(out.AvgBuyPrice).Mul(hundred).InexactFloat64()
		out.ChangeMoney = diff.Mul(decimal.NewFromFloat(qty))
	}
	if out.AvgHoldingDays > 0 {
		out.ChangePctPerDay = out.ChangePct / out.AvgHoldingDays
	}
	return out
}
