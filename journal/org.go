package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/shopspring/decimal"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts go in a PROPERTIES drawer for easy search.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", strings.ToUpper(string(t.Side)), t.Symbol, shortID(t.TradeID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":DATE: %s\n", market.FormatDate(t.Date)))
	b.WriteString(fmt.Sprintf(":SHARES: %d\n", t.Shares))
	b.WriteString(fmt.Sprintf(":PRICE: %s\n", t.Price.String()))
	b.WriteString(fmt.Sprintf(":AMOUNT: %s\n", t.Amount.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":CASH_AFTER: %s\n", t.CashAfter.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

var resultOrgFuncs = template.FuncMap{
	"date":   market.FormatDate,
	"money":  func(d decimal.Decimal) string { return d.StringFixed(2) },
	"orTime": orTime,
}

func orTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

var resultOrg = template.Must(template.New("result").Funcs(resultOrgFuncs).Parse(ResultOrgTemplate))

// FormatResultOrg renders a fund result, and its trades, as an Org-mode entry.
func FormatResultOrg(r ResultRecord, trades []TradeRecord) (string, error) {
	buf := new(bytes.Buffer)
	err := resultOrg.Execute(buf, struct {
		ResultRecord
		TradeBlocks string
	}{r, FormatTradesOrg(trades)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteResultOrg writes FormatResultOrg output to path.
func WriteResultOrg(path string, r ResultRecord, trades []TradeRecord) error {
	s, err := FormatResultOrg(r, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const ResultOrgTemplate = `* SIMULATION: {{.Strategy}} {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:SYMBOL:      {{.Symbol}}
:START_DATE:  {{date .Start}}
:END_DATE:    {{date .End}}
:START_CASH:  {{money .StartingCash}}
:END_CASH:    {{money .EndingCash}}
:GAIN_LOSS:   {{money .GainLoss}}
:RETURN_PCT:  {{money .GainLossPct}}
:TRADES:      {{.Trades}}
{{- if .Skipped}}
:SKIPPED:     {{.Skipped}}
{{- end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Starting Amount:  *${{money .StartingCash}}*
- Ending Amount:    *${{money .EndingCash}}*
- Total Gain/Loss:  *${{money .GainLoss}}*
- Return:           *{{money .GainLossPct}}%*
{{- if .TradeBlocks}}

** Trades
{{.TradeBlocks}}
{{- end}}
`
