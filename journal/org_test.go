package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(sampleTrade())

	assert.Contains(t, result, "** Trade: BUY AFT (01HZX3T1)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HZX3T1ABCDEFGHJKMNPQRSTV")
	assert.Contains(t, result, ":DATE: 2024-03-15")
	assert.Contains(t, result, ":SHARES: 10")
	assert.Contains(t, result, ":PRICE: 100.123456")
	assert.Contains(t, result, ":AMOUNT: 1001.23")
	assert.Contains(t, result, ":CASH_AFTER: 8998.77")
	assert.Contains(t, result, ":END:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	a := sampleTrade()
	b := sampleTrade()
	b.TradeID = "short"
	b.Side = SideSell

	result := FormatTradesOrg([]TradeRecord{a, b})
	assert.Equal(t, 2, strings.Count(result, ":PROPERTIES:"))
	assert.Contains(t, result, "** Trade: SELL AFT (short)")
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestFormatResultOrg(t *testing.T) {
	t.Parallel()

	out, err := FormatResultOrg(sampleResult(), []TradeRecord{sampleTrade()})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* SIMULATION: predictor AFT\n"))
	assert.Contains(t, out, ":RUN_ID:      RUN1")
	assert.Contains(t, out, ":START_DATE:  2024-01-01")
	assert.Contains(t, out, ":RETURN_PCT:  50.00")
	assert.Contains(t, out, ":TRADES:      2\n:CREATED:")
	assert.Contains(t, out, "- Total Gain/Loss:  *$500.00*")
	assert.Contains(t, out, "** Trades\n** Trade: BUY AFT")
	assert.NotContains(t, out, ":SKIPPED:")
}

func TestFormatResultOrgSkipped(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	r.Skipped = "empty training set"
	r.RunID = ""

	out, err := FormatResultOrg(r, nil)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      (run-id?)")
	assert.Contains(t, out, ":SKIPPED:     empty training set\n")
	assert.NotContains(t, out, "** Trades")
}

func TestWriteResultOrg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, WriteResultOrg(path, sampleResult(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "* SIMULATION: predictor AFT")
}
