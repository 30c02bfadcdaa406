// Package store reads and writes per-fund price history files.
//
// Each fund lives in <dir>/<SYMBOL>.json (or <SYMBOL>.json.xz), a JSON array
// of rows carrying at least a Date (YYYY-MM-DD) and a Price (string or number).
// Rows need not be sorted.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rustyeddy/fundtrader/market"
	"github.com/shopspring/decimal"
	"github.com/ulikunitz/xz"
)

const (
	extJSON = ".json"
	extXZ   = ".json.xz"
)

// ErrMissingHistory is returned when a fund has no history file.
var ErrMissingHistory = errors.New("missing history")

// Row is one entry of a fund history file. Only Date and Price are required;
// the remaining fields are carried through verbatim, since TEFAS fills them
// with placeholders such as "-" as often as with numbers.
type Row struct {
	Date              string              `json:"Date"`
	Symbol            string              `json:"Symbol,omitempty"`
	Name              string              `json:"Name,omitempty"`
	Price             decimal.NullDecimal `json:"Price"`
	NumberOfShares    json.RawMessage     `json:"Number_of_Shares,omitempty"`
	NumberOfInvestors json.RawMessage     `json:"Number_of_Investors,omitempty"`
	PortfolioSize     json.RawMessage     `json:"Portfolio_Size,omitempty"`
	StockMarketPrice  json.RawMessage     `json:"Stock_Market_Price,omitempty"`
}

// Store is a directory of fund history files.
type Store struct {
	dir    string
	logger *log.Logger
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir, logger: log.Default()}
}

// SetLogger replaces the logger used for skipped-file warnings.
func (s *Store) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Store) Dir() string { return s.dir }

// Symbols lists every fund with a history file, sorted.
func (s *Store) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}

	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		sym, ok := symbolOf(e.Name())
		if !ok || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

// LoadAll loads the history of every fund in the directory.
//
// A file that cannot be read or parsed yields an empty history for its
// symbol; only failing to list the directory is an error.
func (s *Store) LoadAll() (map[string]*market.FundHistory, error) {
	symbols, err := s.Symbols()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*market.FundHistory, len(symbols))
	for _, sym := range symbols {
		h, err := s.Load(sym)
		if err != nil {
			s.logger.Printf("store: skipping %s: %v", sym, err)
			h = market.NewFundHistory(sym, nil)
		}
		out[sym] = h
	}
	return out, nil
}

// Load reads one fund's history.
func (s *Store) Load(symbol string) (*market.FundHistory, error) {
	rows, err := s.ReadRows(symbol)
	if err != nil {
		return nil, err
	}
	recs, err := Records(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return market.NewFundHistory(symbol, recs), nil
}

// Records converts file rows into price records. Any row without a valid
// date or price fails the whole conversion.
func Records(rows []Row) ([]market.PriceRecord, error) {
	recs := make([]market.PriceRecord, 0, len(rows))
	for i, r := range rows {
		d, err := market.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !r.Price.Valid {
			return nil, fmt.Errorf("row %d (%s): missing price", i, r.Date)
		}
		recs = append(recs, market.PriceRecord{Date: d, Price: r.Price.Decimal})
	}
	return recs, nil
}

// ReadRows returns the raw rows of a fund file in file order.
func (s *Store) ReadRows(symbol string) ([]Row, error) {
	path, compressed, err := s.find(symbol)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if compressed {
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		if data, err = io.ReadAll(xr); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// WriteRows replaces a fund file with rows, newest first and one row per
// date. Funds already stored as .json.xz stay compressed.
func (s *Store) WriteRows(symbol string, rows []Row) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	rows = normalizeRows(rows)

	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", symbol, err)
	}

	path, compressed, err := s.find(symbol)
	if errors.Is(err, ErrMissingHistory) {
		path, compressed = filepath.Join(s.dir, symbol+extJSON), false
	} else if err != nil {
		return err
	}

	if compressed {
		var buf bytes.Buffer
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
		if _, err := xw.Write(data); err != nil {
			return fmt.Errorf("compress %s: %w", symbol, err)
		}
		if err := xw.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", symbol, err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// normalizeRows keeps the last row seen for each date and sorts newest first.
func normalizeRows(rows []Row) []Row {
	byDate := make(map[string]Row, len(rows))
	for _, r := range rows {
		byDate[strings.TrimSpace(r.Date)] = r
	}
	out := make([]Row, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// find resolves the file of a symbol, preferring the plain JSON file.
func (s *Store) find(symbol string) (path string, compressed bool, err error) {
	if symbol == "" || strings.ContainsAny(symbol, `/\`) {
		return "", false, fmt.Errorf("invalid symbol %q", symbol)
	}
	for _, ext := range []string{extJSON, extXZ} {
		p := filepath.Join(s.dir, symbol+ext)
		if _, err := os.Stat(p); err == nil {
			return p, ext == extXZ, nil
		}
	}
	return "", false, fmt.Errorf("%s: %w", symbol, ErrMissingHistory)
}

func symbolOf(name string) (string, bool) {
	switch {
	case strings.HasSuffix(name, extXZ):
		return strings.TrimSuffix(name, extXZ), true
	case strings.HasSuffix(name, extJSON):
		return strings.TrimSuffix(name, extJSON), true
	}
	return "", false
}
