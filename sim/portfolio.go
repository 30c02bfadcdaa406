package sim

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvariant reports a portfolio whose fund and share count disagree.
var ErrInvariant = errors.New("portfolio invariant violated")

// Portfolio is the cash and the single fund position of a simulation.
// Fund is empty exactly when Shares is zero.
type Portfolio struct {
	Cash   decimal.Decimal
	Fund   string
	Shares int64
}

func NewPortfolio(cash decimal.Decimal) Portfolio {
	return Portfolio{Cash: cash}
}

// Holding reports whether a fund position is open.
func (p Portfolio) Holding() bool { return p.Shares > 0 }

// Buy spends as much cash as possible on whole shares of symbol.
// It returns the shares bought, zero when the cash does not cover one share.
func (p *Portfolio) Buy(symbol string, price decimal.Decimal) (int64, error) {
	if !price.IsPositive() {
		return 0, fmt.Errorf("buy %s: invalid price %s", symbol, price)
	}
	if p.Fund != "" && p.Fund != symbol {
		return 0, fmt.Errorf("buy %s: already holding %s", symbol, p.Fund)
	}
	if !p.Cash.IsPositive() {
		return 0, nil
	}

	shares := p.Cash.Div(price).Floor().IntPart()
	if shares <= 0 {
		return 0, nil
	}
	p.Cash = p.Cash.Sub(price.Mul(decimal.NewFromInt(shares)))
	p.Shares += shares
	p.Fund = symbol
	return shares, nil
}

// Sell liquidates the whole position at price and returns the shares sold.
func (p *Portfolio) Sell(price decimal.Decimal) (int64, error) {
	if p.Shares <= 0 {
		return 0, nil
	}
	if price.IsNegative() {
		return 0, fmt.Errorf("sell %s: invalid price %s", p.Fund, price)
	}
	shares := p.Shares
	p.Cash = p.Cash.Add(price.Mul(decimal.NewFromInt(shares)))
	p.Shares = 0
	p.Fund = ""
	return shares, nil
}

// Check verifies the portfolio invariants.
func (p Portfolio) Check() error {
	switch {
	case p.Cash.IsNegative():
		return fmt.Errorf("%w: negative cash %s", ErrInvariant, p.Cash)
	case p.Shares < 0:
		return fmt.Errorf("%w: negative shares %d", ErrInvariant, p.Shares)
	case (p.Fund == "") != (p.Shares == 0):
		return fmt.Errorf("%w: fund %q with %d shares", ErrInvariant, p.Fund, p.Shares)
	}
	return nil
}
