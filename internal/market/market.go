package market

import (
	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

// MarketProvider defines the market-data behavior the run depends on. Any
// struct implementing these methods satisfies it, so the Alpaca client can be
// swapped for a mock in tests without touching the callers.
type MarketProvider interface {
	// GetPrice returns the latest trade price for a symbol.
	GetPrice(symbol string) (decimal.Decimal, error)
	// GetBars returns up to `days` daily bars, oldest first.
	GetBars(symbol string, days int) ([]models.Bar, error)
	// GetClock returns the market session status.
	GetClock() (*models.Clock, error)
}
