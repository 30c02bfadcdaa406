package tefas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
)

// DefaultLookbackDays is how far back a fund without a file is fetched.
const DefaultLookbackDays = 5 * 365

// Updater brings fund files up to date.
type Updater struct {
	Store        *store.Store
	Client       *Client
	LookbackDays int
	Logger       *log.Logger
}

// Update is the outcome of updating one fund.
type Update struct {
	Symbol  string
	From    time.Time
	To      time.Time
	Fetched int
	Total   int
}

func (u *Updater) logger() *log.Logger {
	if u.Logger == nil {
		return log.Default()
	}
	return u.Logger
}

// Update fetches the days after the newest stored date of symbol, or the
// lookback period when nothing is stored, and writes the merged file.
func (u *Updater) Update(ctx context.Context, symbol string, now time.Time) (Update, error) {
	lg := u.logger()
	today := market.Day(now)
	res := Update{Symbol: symbol, To: today}

	existing, err := u.Store.ReadRows(symbol)
	if err != nil && !errors.Is(err, store.ErrMissingHistory) {
		return res, err
	}

	lookback := u.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	res.From = today.AddDate(0, 0, -lookback)

	if newest, ok := newestDate(existing); ok {
		res.From = newest.AddDate(0, 0, 1)
		lg.Printf("  Existing data found. Updating from %s to %s", market.FormatDate(res.From), market.FormatDate(today))
	} else if err == nil {
		lg.Printf("  Existing file is empty. Fetching all available data.")
	} else {
		lg.Printf("  No existing data. Fetching all available data.")
	}

	if res.From.After(today) {
		res.Total = len(existing)
		return res, nil
	}

	fetched, err := u.Client.History(ctx, symbol, res.From, today)
	if err != nil {
		return res, err
	}
	res.Fetched = len(fetched)
	if len(fetched) == 0 {
		res.Total = len(existing)
		lg.Printf("  No new data available for %s", symbol)
		return res, nil
	}

	merged := append(existing, fetched...)
	if err := u.Store.WriteRows(symbol, merged); err != nil {
		return res, err
	}

	rows, err := u.Store.ReadRows(symbol)
	if err != nil {
		return res, err
	}
	res.Total = len(rows)
	lg.Printf("  Data saved for %s", symbol)
	lg.Printf("  Number of records: %d", len(rows))
	if len(rows) > 0 {
		lg.Printf("  Date range: %s to %s", rows[len(rows)-1].Date, rows[0].Date)
	}
	return res, nil
}

// UpdateAll updates every symbol in order. A failing fund is logged and the
// rest still run; the failures are returned joined.
func (u *Updater) UpdateAll(ctx context.Context, symbols []string, now time.Time) ([]Update, error) {
	lg := u.logger()

	var (
		out  []Update
		errs []error
	)
	for i, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		lg.Printf("Processing fund %d/%d: %s", i+1, len(symbols), sym)

		res, err := u.Update(ctx, sym, now)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			lg.Printf("Error: Unable to fetch historical data for symbol %s: %v", sym, err)
			errs = append(errs, fmt.Errorf("%s: %w", sym, err))
			continue
		}
		out = append(out, res)
	}
	return out, errors.Join(errs...)
}

func newestDate(rows []store.Row) (time.Time, bool) {
	var newest time.Time
	for _, r := range rows {
		d, err := market.ParseDate(r.Date)
		if err != nil {
			continue
		}
		if d.After(newest) {
			newest = d
		}
	}
	return newest, !newest.IsZero()
}

// FundListEntry is one entry of the extra fund list file.
type FundListEntry struct {
	Name   string `json:"fund_name"`
	Symbol string `json:"fund_symbol"`
}

// LoadFundList reads a JSON list of {fund_name, fund_symbol} objects into a
// symbol to name map. Entries missing either field are ignored.
func LoadFundList(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fund list: %w", err)
	}

	var entries []FundListEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse fund list %s: %w", path, err)
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Symbol == "" {
			continue
		}
		out[e.Symbol] = e.Name
	}
	return out, nil
}
