package engine

import (
	"errors"
	"fmt"
	"time"

	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidState marks corruption of the authoritative store (negative
// shares, non-positive cost basis). Nothing derived from such a portfolio may
// be persisted.
var ErrInvalidState = errors.New("invalid portfolio state")

// ErrInsufficientCash marks a confirmed ADD that would overdraw cash even
// after the exits confirmed in the same batch.
var ErrInsufficientCash = errors.New("insufficient cash")

// Apply commits the confirmed subset of a run's actions into the portfolio:
// the only place portfolio state mutates. Actions are applied in their
// emission order, so exits (emitted first) fund later adds. Skipped and
// pending actions are ignored.
//
// Apply does not enforce exactly-once: callers must track which action IDs
// were already applied via the status field in the run file. On error the
// portfolio may be partially mutated and must not be saved.
func Apply(pf *models.Portfolio, actions []models.Action, asOf time.Time) error {
	for _, a := range actions {
		if a.Status != models.StatusConfirmed {
			continue
		}
		txDate := a.ConfirmDate
		if txDate == "" {
			txDate = asOf.Format(models.DateLayout)
		}

		switch a.Kind {
		case models.ActionAdd:
			shares, price := overrides(a, a.Add.SuggestedShares, a.Add.CurrentPrice)
			if err := applyAdd(pf, a.Add.Symbol, shares, price, txDate); err != nil {
				return fmt.Errorf("action %d: %w", a.ID, err)
			}
		case models.ActionExit:
			shares, price := overrides(a, a.Exit.Shares, a.Exit.CurrentPrice)
			applyExit(pf, a.Exit.Symbol, shares, price, txDate)
		case models.ActionRotate:
			// A rotation is its own sell-then-buy batch: the sell leg funds
			// the buy leg. Overrides do not apply to the paired legs.
			applyExit(pf, a.Rotate.SellSymbol, a.Rotate.SellShares, a.Rotate.SellPrice, txDate)
			if err := applyAdd(pf, a.Rotate.BuySymbol, a.Rotate.BuyShares, a.Rotate.BuyPrice, txDate); err != nil {
				return fmt.Errorf("action %d: %w", a.ID, err)
			}
		}
	}
	return nil
}

func overrides(a models.Action, shares int64, price decimal.Decimal) (int64, decimal.Decimal) {
	if a.ActualShares != nil {
		shares = *a.ActualShares
	}
	if a.ActualPrice != nil {
		price = *a.ActualPrice
	}
	return shares, price
}

func applyAdd(pf *models.Portfolio, symbol string, shares int64, price decimal.Decimal, txDate string) error {
	if shares <= 0 {
		return nil
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: confirmed ADD %s has no price", ErrInvalidState, symbol)
	}

	cost := price.Mul(decimal.NewFromInt(shares))
	if cost.GreaterThan(pf.Cash) {
		return fmt.Errorf("%w: ADD %s needs $%s, cash $%s",
			ErrInsufficientCash, symbol, cost.StringFixed(2), pf.Cash.StringFixed(2))
	}

	if pos, held := pf.Positions[symbol]; held {
		oldShares := decimal.NewFromInt(pos.Shares)
		newShares := decimal.NewFromInt(shares)
		totalShares := pos.Shares + shares
		pos.AvgPrice = pos.AvgPrice.Mul(oldShares).Add(price.Mul(newShares)).
			Div(decimal.NewFromInt(totalShares))
		pos.Shares = totalShares
		pos.CostBasis = pos.AvgPrice.Mul(decimal.NewFromInt(totalShares))
		if price.GreaterThan(pos.HighSinceEntry) {
			pos.HighSinceEntry = price
		}
		pf.Positions[symbol] = pos
	} else {
		pf.Positions[symbol] = models.Position{
			Shares:         shares,
			AvgPrice:       price,
			CostBasis:      cost,
			FirstEntry:     txDate,
			HighSinceEntry: price,
		}
	}

	pf.Cash = pf.Cash.Sub(cost)
	pf.Transactions = append(pf.Transactions, models.Transaction{
		Date: txDate, Symbol: symbol, Action: "ADD", Shares: shares, Price: price,
	})
	return nil
}

func applyExit(pf *models.Portfolio, symbol string, shares int64, price decimal.Decimal, txDate string) {
	if shares <= 0 {
		return
	}

	if pos, held := pf.Positions[symbol]; held {
		if shares >= pos.Shares {
			delete(pf.Positions, symbol)
		} else {
			pos.Shares -= shares
			pos.CostBasis = pos.AvgPrice.Mul(decimal.NewFromInt(pos.Shares))
			pf.Positions[symbol] = pos
		}
	}

	pf.Cash = pf.Cash.Add(price.Mul(decimal.NewFromInt(shares)))
	pf.Transactions = append(pf.Transactions, models.Transaction{
		Date: txDate, Symbol: symbol, Action: "EXIT", Shares: shares, Price: price,
	})
}

// ObserveHighs raises each held position's high-water mark to the day's
// price. This is store maintenance, not a decision: it runs once per run
// alongside the single save, and never lowers a mark.
func ObserveHighs(pf *models.Portfolio, prices map[string]decimal.Decimal) bool {
	changed := false
	for symbol, pos := range pf.Positions {
		price, ok := prices[symbol]
		if !ok || price.IsZero() {
			continue
		}
		if pos.HighSinceEntry.IsZero() || price.GreaterThan(pos.HighSinceEntry) {
			pos.HighSinceEntry = price
			pf.Positions[symbol] = pos
			changed = true
		}
	}
	return changed
}
