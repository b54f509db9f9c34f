package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used in persisted state
// (first_entry, transaction dates, action files).
const DateLayout = "2006-01-02"

// SchemaVersion is the current portfolio file schema.
const SchemaVersion = "1.1"

// Position represents one held symbol in the portfolio.
type Position struct {
	Shares         int64           `json:"shares"`                     // Number of shares held, always > 0
	AvgPrice       decimal.Decimal `json:"avg_price"`                  // Cost basis per share
	CostBasis      decimal.Decimal `json:"cost_basis"`                 // AvgPrice * Shares, kept in sync on every mutation
	FirstEntry     string          `json:"first_entry"`                // Date of the first confirmed ADD (YYYY-MM-DD)
	Core           bool            `json:"core"`                       // Exempt from all exit and rotation rules
	Favorite       bool            `json:"favorite,omitempty"`         // Exempt from rotation only, stop rules still apply
	HighSinceEntry decimal.Decimal `json:"high_since_entry,omitempty"` // Highest observed price since entry, never decreases while held
}

// Validate rejects positions that indicate a corrupted store. A zero-share
// position is invalid because confirmed exits must delete it instead.
func (p Position) Validate(symbol string) error {
	if p.Shares < 0 {
		return fmt.Errorf("position %s: negative shares (%d)", symbol, p.Shares)
	}
	if p.Shares == 0 {
		return fmt.Errorf("position %s: zero shares, should have been deleted", symbol)
	}
	if !p.AvgPrice.IsPositive() {
		return fmt.Errorf("position %s: non-positive avg price (%s)", symbol, p.AvgPrice)
	}
	return nil
}

// PnLPct returns the unrealized percentage gain/loss against cost basis.
// The second return is false when no price is available.
func (p Position) PnLPct(price decimal.Decimal) (float64, bool) {
	if price.IsZero() || !p.AvgPrice.IsPositive() {
		return 0, false
	}
	pct, _ := price.Sub(p.AvgPrice).Div(p.AvgPrice).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct, true
}

// MarketValue returns Shares * price.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.Shares))
}

// HoldingDays returns whole days since FirstEntry. An unparseable or missing
// entry date counts as held forever so it never blocks rotation.
func (p Position) HoldingDays(asOf time.Time) int {
	entry, err := time.Parse(DateLayout, p.FirstEntry)
	if err != nil {
		return 999
	}
	return int(asOf.Sub(entry).Hours() / 24)
}

// Transaction is one confirmed trade in the append-only log.
type Transaction struct {
	Date   string          `json:"date"`
	Symbol string          `json:"symbol"`
	Action string          `json:"action"` // ADD or EXIT
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
}

// Portfolio is the authoritative snapshot of cash, positions and history.
// It matches the structure of the JSON state file.
type Portfolio struct {
	Version      string              `json:"version"`
	Updated      string              `json:"updated"`
	Cash         decimal.Decimal     `json:"cash"`
	Positions    map[string]Position `json:"positions"`
	Transactions []Transaction       `json:"transactions"`
}

// NewPortfolio returns an empty portfolio at the current schema version.
func NewPortfolio() Portfolio {
	return Portfolio{
		Version:      SchemaVersion,
		Positions:    map[string]Position{},
		Transactions: []Transaction{},
	}
}

// IndividualCount returns the number of non-core positions, the figure the
// position limit applies to.
func (pf Portfolio) IndividualCount() int {
	n := 0
	for _, pos := range pf.Positions {
		if !pos.Core {
			n++
		}
	}
	return n
}

// TotalValue prices every position with the given quote map, falling back to
// cost basis for symbols without a quote, and adds cash.
func (pf Portfolio) TotalValue(prices map[string]decimal.Decimal) decimal.Decimal {
	total := pf.Cash
	for symbol, pos := range pf.Positions {
		price, ok := prices[symbol]
		if !ok || price.IsZero() {
			price = pos.AvgPrice
		}
		total = total.Add(pos.MarketValue(price))
	}
	return total
}

// Watchlist is the set of symbols always included in the candidate universe.
type Watchlist struct {
	Symbols []string `json:"symbols"`
	Updated string   `json:"updated"`
}

// Add appends symbols not already present, upper-cased. Returns how many were new.
func (w *Watchlist) Add(symbols ...string) int {
	seen := make(map[string]bool, len(w.Symbols))
	for _, s := range w.Symbols {
		seen[s] = true
	}
	added := 0
	for _, s := range symbols {
		s = NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		w.Symbols = append(w.Symbols, s)
		seen[s] = true
		added++
	}
	return added
}

// NormalizeSymbol upper-cases a ticker and maps share-class dots to dashes
// (BRK.B -> BRK-B), the spelling most quote APIs expect.
func NormalizeSymbol(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		case c == '.':
			c = '-'
		case c == ' ':
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// MomentumRank is a per-symbol momentum signal, recomputed every run and never
// persisted as authoritative state.
type MomentumRank struct {
	Symbol   string   `json:"symbol"`
	Momentum float64  `json:"momentum"` // Percent return over the lookback window
	Rank     int      `json:"rank"`     // 1 = strongest
	RSI      *float64 `json:"rsi,omitempty"`
}
