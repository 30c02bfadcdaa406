// Package ledger keeps the hand-entered portfolio transactions and derives
// the current holdings and their performance from the fund histories.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/fundtrader/market"
)

// DefaultPortfolioID is used for transactions of a new ledger.
const DefaultPortfolioID = 1

var ErrInsufficientHoldings = errors.New("not enough funds to sell")

type TxType string

const (
	Buy  TxType = "buy"
	Sell TxType = "sell"
)

// Transaction is one ledger entry. The JSON shape is shared with the web
// frontend.
type Transaction struct {
	ID          int     `json:"id"`
	PortfolioID int     `json:"portfolio_id"`
	Symbol      string  `json:"symbol"`
	Date        string  `json:"date"`
	Type        TxType  `json:"type"`
	Quantity    float64 `json:"quantity"`
}

// Ledger is a portfolio file held in memory. Every change rewrites the
// whole file.
type Ledger struct {
	path        string
	portfolioID int
	txs         []Transaction
	actions     *log.Logger
}

// Open loads the ledger at path, creating an empty one when the file does
// not exist. A file that exists but cannot be parsed is an error.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path:        path,
		portfolioID: DefaultPortfolioID,
		actions:     log.New(io.Discard, "", 0),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := l.Save(); err != nil {
			return nil, err
		}
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &l.txs); err != nil {
			return nil, fmt.Errorf("parse ledger %s: %w", path, err)
		}
	}
	if len(l.txs) > 0 && l.txs[0].PortfolioID != 0 {
		l.portfolioID = l.txs[0].PortfolioID
	}
	return l, nil
}

func (l *Ledger) Path() string { return l.path }

// SetActionLog sets where a line is written for every added transaction.
func (l *Ledger) SetActionLog(lg *log.Logger) {
	if lg != nil {
		l.actions = lg
	}
}

// Transactions returns a copy of the entries in file order.
func (l *Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Holdings returns the net quantity held per symbol. A sell of a symbol not
// held is ignored and symbols at or below zero are dropped.
func (l *Ledger) Holdings() map[string]float64 {
	return holdings(l.txs)
}

func holdings(txs []Transaction) map[string]float64 {
	out := map[string]float64{}
	for _, tx := range txs {
		switch tx.Type {
		case Buy:
			out[tx.Symbol] += tx.Quantity
		case Sell:
			if _, ok := out[tx.Symbol]; !ok {
				continue
			}
			out[tx.Symbol] -= tx.Quantity
			if out[tx.Symbol] <= 0 {
				delete(out, tx.Symbol)
			}
		}
	}
	return out
}

// Add appends a transaction and saves the ledger.
func (l *Ledger) Add(symbol string, date time.Time, typ TxType, qty float64) (Transaction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Transaction{}, errors.New("symbol is required")
	}
	if typ != Buy && typ != Sell {
		return Transaction{}, fmt.Errorf("unknown transaction type %q", typ)
	}
	if qty <= 0 {
		return Transaction{}, fmt.Errorf("quantity must be positive, got %v", qty)
	}
	if date.IsZero() {
		return Transaction{}, errors.New("date is required")
	}
	if typ == Sell {
		if held := l.Holdings()[symbol]; held < qty {
			return Transaction{}, fmt.Errorf("sell %v %s, hold %v: %w", qty, symbol, held, ErrInsufficientHoldings)
		}
	}

	tx := Transaction{
		ID:          len(l.txs) + 1,
		PortfolioID: l.portfolioID,
		Symbol:      symbol,
		Date:        market.FormatDate(date),
		Type:        typ,
		Quantity:    qty,
	}
	l.txs = append(l.txs, tx)
	if err := l.Save(); err != nil {
		l.txs = l.txs[:len(l.txs)-1]
		return Transaction{}, err
	}

	action := "Buy Fund"
	if typ == Sell {
		action = "Sell Fund"
	}
	l.actions.Printf("%s %v of %s on %s", action, qty, symbol, tx.Date)
	return tx, nil
}

// Save writes the whole ledger back to its file.
func (l *Ledger) Save() error {
	txs := l.txs
	if txs == nil {
		txs = []Transaction{}
	}
	data, err := json.MarshalIndent(txs, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
