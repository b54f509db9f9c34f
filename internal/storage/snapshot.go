package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

// SnapshotPosition freezes one position's valuation at snapshot time.
type SnapshotPosition struct {
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// YearSnapshot records portfolio value at the start of a year, the baseline
// for yearly P&L.
type YearSnapshot struct {
	Year       int                         `json:"year"`
	Date       string                      `json:"date"`
	CreatedAt  string                      `json:"created_at"`
	Cash       decimal.Decimal             `json:"cash"`
	TotalValue decimal.Decimal             `json:"total_value"`
	Positions  map[string]SnapshotPosition `json:"positions"`
}

func (r *Repository) snapshotPath(year int) string {
	return filepath.Join(r.dir, fmt.Sprintf("snapshot_%d.json", year))
}

// LoadSnapshot returns the snapshot for a year, or nil when none exists.
func (r *Repository) LoadSnapshot(year int) (*YearSnapshot, error) {
	b, err := os.ReadFile(r.snapshotPath(year))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s YearSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %d: %w", year, err)
	}
	return &s, nil
}

// SaveSnapshot persists a year snapshot.
func (r *Repository) SaveSnapshot(s YearSnapshot) error {
	return writeJSONAtomic(r.snapshotPath(s.Year), s)
}

// BuildYearSnapshot values every position with the given prices (cost basis
// when a price is missing) and freezes the result for the year.
func BuildYearSnapshot(pf models.Portfolio, prices map[string]decimal.Decimal, year int) YearSnapshot {
	snap := YearSnapshot{
		Year:      year,
		Date:      fmt.Sprintf("%d-01-02", year),
		CreatedAt: time.Now().Format(models.DateLayout),
		Cash:      pf.Cash,
		Positions: map[string]SnapshotPosition{},
	}

	total := pf.Cash
	symbols := make([]string, 0, len(pf.Positions))
	for symbol := range pf.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		pos := pf.Positions[symbol]
		price, ok := prices[symbol]
		if !ok || price.IsZero() {
			price = pos.AvgPrice
		}
		value := pos.MarketValue(price).Round(2)
		total = total.Add(value)
		snap.Positions[symbol] = SnapshotPosition{Shares: pos.Shares, Price: price, Value: value}
	}
	snap.TotalValue = total.Round(2)
	return snap
}

// YearlyPnL compares the current portfolio value against a year snapshot.
type YearlyPnL struct {
	StartValue   decimal.Decimal `json:"start_value"`
	CurrentValue decimal.Decimal `json:"current_value"`
	PnLAmount    decimal.Decimal `json:"pnl_amount"`
	PnLPct       float64         `json:"pnl_pct"`
}

// CalcYearlyPnL returns nil when there is no usable baseline.
func CalcYearlyPnL(currentValue decimal.Decimal, snap *YearSnapshot) *YearlyPnL {
	if snap == nil || !snap.TotalValue.IsPositive() {
		return nil
	}
	amount := currentValue.Sub(snap.TotalValue)
	pct, _ := amount.Div(snap.TotalValue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return &YearlyPnL{
		StartValue:   snap.TotalValue,
		CurrentValue: currentValue.Round(2),
		PnLAmount:    amount.Round(2),
		PnLPct:       pct,
	}
}
