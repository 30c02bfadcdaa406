package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "AAA.json", `[
		{"Date": "2024-01-03", "Price": "1.30"},
		{"Date": "2024-01-01", "Price": 1.10},
		{"Date": "2024-01-02", "Price": "1.20", "Name": "Fund A"}
	]`)
	writeFile(t, dir, "BAD.json", `[{"Date": "03.01.2024", "Price": "1"}]`)
	writeFile(t, dir, "NOPRICE.json", `[{"Date": "2024-01-01"}]`)
	writeFile(t, dir, "BROKEN.json", `{not json`)
	writeFile(t, dir, "notes.txt", `ignored`)

	s := New(dir)
	all, err := s.LoadAll()
	require.NoError(t, err)

	require.Len(t, all, 4)
	assert.Equal(t, 3, all["AAA"].Len())
	assert.Equal(t, 0, all["BAD"].Len())
	assert.Equal(t, 0, all["NOPRICE"].Len())
	assert.Equal(t, 0, all["BROKEN"].Len())

	r, ok := all["AAA"].Lookup(market.Date(2024, 1, 1))
	require.True(t, ok)
	assert.True(t, r.Price.Equal(decimal.RequireFromString("1.1")))
}

func TestLoadKeepsPlaceholderFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "AFT.json", `[{"Date": "2024-01-02", "Price": "1.234", "Number_of_Shares": 1000,
		"Number_of_Investors": "-", "Portfolio_Size": 12345.67, "Stock_Market_Price": "-"}]`)

	s := New(dir)
	all, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, all["AFT"].Len())

	rows, err := s.ReadRows("AFT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `"-"`, string(rows[0].StockMarketPrice))

	// Rewriting carries the placeholders through unchanged.
	require.NoError(t, s.WriteRows("AFT", rows))
	rows, err = s.ReadRows("AFT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `"-"`, string(rows[0].NumberOfInvestors))
	assert.Equal(t, "12345.67", string(rows[0].PortfolioSize))
}

func TestLoadAllIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "AAA.json", `[{"Date": "2024-01-02", "Price": "2"}, {"Date": "2024-01-01", "Price": "1"}]`)
	writeFile(t, dir, "BBB.json", `[{"Date": "2024-01-01", "Price": "5"}]`)

	s := New(dir)
	first, err := s.LoadAll()
	require.NoError(t, err)
	second, err := s.LoadAll()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadAllMissingDir(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "nope")).LoadAll()
	assert.Error(t, err)
}

func TestLoadMissingFund(t *testing.T) {
	t.Parallel()

	_, err := New(t.TempDir()).Load("ZZZ")
	assert.ErrorIs(t, err, ErrMissingHistory)

	_, err = New(t.TempDir()).Load("../etc")
	assert.Error(t, err)
}

func TestWriteRowsSortsNewestFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := New(dir)

	rows := []Row{
		{Date: "2024-01-01", Price: decimal.NewNullDecimal(decimal.NewFromInt(1))},
		{Date: "2024-01-03", Price: decimal.NewNullDecimal(decimal.NewFromInt(3))},
		{Date: "2024-01-02", Price: decimal.NewNullDecimal(decimal.NewFromInt(2))},
		{Date: "2024-01-01", Price: decimal.NewNullDecimal(decimal.NewFromInt(9))},
	}
	require.NoError(t, s.WriteRows("AAA", rows))

	data, err := os.ReadFile(filepath.Join(dir, "AAA.json"))
	require.NoError(t, err)

	var got []Row
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-03", got[0].Date)
	assert.Equal(t, "2024-01-01", got[2].Date)
	assert.Equal(t, "9", got[2].Price.Decimal.String())
}

func TestCompressedHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = io.WriteString(xw, `[{"Date": "2024-01-01", "Price": "1.5"}]`)
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "XZF.json.xz"), buf.Bytes(), 0o644))

	s := New(dir)
	syms, err := s.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"XZF"}, syms)

	h, err := s.Load("XZF")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Len())

	// Rewriting keeps the fund compressed.
	rows, err := s.ReadRows("XZF")
	require.NoError(t, err)
	rows = append(rows, Row{Date: "2024-01-02", Price: decimal.NewNullDecimal(decimal.NewFromInt(2))})
	require.NoError(t, s.WriteRows("XZF", rows))

	_, err = os.Stat(filepath.Join(dir, "XZF.json"))
	assert.True(t, os.IsNotExist(err))

	h, err = s.Load("XZF")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
}
