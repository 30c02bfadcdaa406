// Package tefas fetches daily fund prices from the TEFAS history service and
// merges them into the local fund files.
package tefas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/fundtrader/store"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// DefaultURL is the TEFAS history endpoint.
	DefaultURL = "https://www.tefas.gov.tr/api/DB/BindHistoryInfo"

	// DefaultChunkDays is the longest date range the service answers in one call.
	DefaultChunkDays = 90

	formDate = "02.01.2006"
)

// trt is Turkey time, in which TEFAS timestamps are stamped.
var trt = time.FixedZone("TRT", 3*60*60)

// historyItem is one row of the BindHistoryInfo response.
// Only TARIH and FIYAT are parsed; the rest pass through untouched.
type historyItem struct {
	Date             json.Number     `json:"TARIH"`
	Symbol           string          `json:"FONKODU"`
	Name             string          `json:"FONUNVAN"`
	Price            json.Number     `json:"FIYAT"`
	NumberOfShares   json.RawMessage `json:"TEDPAYSAYISI"`
	NumberOfInvestor json.RawMessage `json:"KISISAYISI"`
	PortfolioSize    json.RawMessage `json:"PORTFOYBUYUKLUK"`
	StockMarketPrice json.RawMessage `json:"BORSABULTENFIYAT"`
}

type historyResponse struct {
	Data *[]historyItem `json:"data"`
}

// Client calls the TEFAS history service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	chunkDays  int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithRate limits requests to perSecond. Zero or less disables the limit.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithChunkDays(days int) Option {
	return func(c *Client) {
		if days > 0 {
			c.chunkDays = days
		}
	}
}

// NewClient creates a client for the public TEFAS service.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
		chunkDays: DefaultChunkDays,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History returns the rows of symbol between from and to inclusive, in the
// order the service returned them. The range is requested in chunks.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) ([]store.Row, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	var rows []store.Row
	for start := from; !start.After(to); {
		end := start.AddDate(0, 0, c.chunkDays)
		if end.After(to) {
			end = to
		}

		chunk, err := c.fetch(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		rows = append(rows, chunk...)

		start = end.AddDate(0, 0, 1)
	}
	return rows, nil
}

func (c *Client) fetch(ctx context.Context, symbol string, start, end time.Time) ([]store.Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("fontip", "YAT")
	form.Set("fonkod", symbol)
	form.Set("bastarih", start.Format(formDate))
	form.Set("bittarih", end.Format(formDate))
	form.Set("fonturkod", "")
	form.Set("fonunvantip", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("history %s: API error (status %d): %s", symbol, resp.StatusCode, string(body))
	}

	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if hr.Data == nil {
		return nil, fmt.Errorf("history %s: unexpected response format", symbol)
	}

	rows := make([]store.Row, 0, len(*hr.Data))
	for _, it := range *hr.Data {
		row, err := it.row()
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", symbol, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (it historyItem) row() (store.Row, error) {
	ms, err := strconv.ParseInt(it.Date.String(), 10, 64)
	if err != nil {
		return store.Row{}, fmt.Errorf("bad TARIH %q: %w", it.Date, err)
	}
	price, err := decimal.NewFromString(it.Price.String())
	if err != nil {
		return store.Row{}, fmt.Errorf("bad FIYAT %q: %w", it.Price, err)
	}
	return store.Row{
		Date:              time.UnixMilli(ms).In(trt).Format("2006-01-02"),
		Symbol:            it.Symbol,
		Name:              it.Name,
		Price:             decimal.NewNullDecimal(price),
		NumberOfShares:    it.NumberOfShares,
		NumberOfInvestors: it.NumberOfInvestor,
		PortfolioSize:     it.PortfolioSize,
		StockMarketPrice:  it.StockMarketPrice,
	}, nil
}
