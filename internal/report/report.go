// Package report renders a generated action run as plain text, shared by
// the console output and the Telegram notification.
package report

import (
	"fmt"
	"strings"

	"alpha_premarket/internal/ai"
	"alpha_premarket/internal/models"
	"alpha_premarket/internal/storage"
)

// Options carries the optional extras a run report can include.
type Options struct {
	MaxPositions int
	YearlyPnL    *storage.YearlyPnL
	Sentiment    map[string]ai.Sentiment
}

// Render formats the run for humans. Sections with nothing to say are
// dropped rather than printed empty.
func Render(run *models.ActionRun, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Premarket Report %s\n", run.Date)
	fmt.Fprintf(&b, "Version %s\n", run.Version)
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	fmt.Fprintf(&b, "Total value: $%s\n", run.Snapshot.TotalValue.StringFixed(2))
	fmt.Fprintf(&b, "Cash:        $%s\n", run.Snapshot.Cash.StringFixed(2))
	if opts.MaxPositions > 0 {
		fmt.Fprintf(&b, "Stocks:      %d/%d\n", run.Snapshot.IndividualCount, opts.MaxPositions)
	} else {
		fmt.Fprintf(&b, "Stocks:      %d\n", run.Snapshot.IndividualCount)
	}

	if y := opts.YearlyPnL; y != nil {
		fmt.Fprintf(&b, "YTD P&L:     $%s (%+.1f%%)\n", y.PnLAmount.StringFixed(2), y.PnLPct)
	}
	b.WriteString("\n")

	var exits, holds, adds, rotates []models.Action
	for _, a := range run.Actions {
		switch a.Kind {
		case models.ActionExit:
			exits = append(exits, a)
		case models.ActionHold:
			holds = append(holds, a)
		case models.ActionAdd:
			adds = append(adds, a)
		case models.ActionRotate:
			rotates = append(rotates, a)
		}
	}

	if len(exits) > 0 {
		fmt.Fprintf(&b, "EXIT suggestions (%d):\n", len(exits))
		for _, a := range exits {
			pnl := "N/A"
			if a.Exit.PnLPct != nil {
				pnl = fmt.Sprintf("%+.1f%%", *a.Exit.PnLPct)
			}
			fmt.Fprintf(&b, "  %-6s %4d sh  %-8s %s\n", a.Exit.Symbol, a.Exit.Shares, pnl, a.Reason)
		}
		b.WriteString("\n")
	}

	if len(holds) > 0 {
		symbols := make([]string, 0, len(holds))
		for _, a := range holds {
			symbols = append(symbols, a.Hold.Symbol)
		}
		fmt.Fprintf(&b, "HOLD (%d): %s\n\n", len(holds), strings.Join(symbols, ", "))
	}

	if len(adds) > 0 {
		fmt.Fprintf(&b, "ADD suggestions (%d):\n", len(adds))
		for _, a := range adds {
			fmt.Fprintf(&b, "  #%-2d %-6s %+.1f%%  %d sh @ $%s\n",
				a.Add.MomentumRank, a.Add.Symbol, a.Add.Momentum,
				a.Add.SuggestedShares, a.Add.CurrentPrice.StringFixed(2))
			if s, ok := opts.Sentiment[a.Add.Symbol]; ok {
				fmt.Fprintf(&b, "      sentiment %+.1f: %s\n", s.Score, s.Reason)
			}
		}
		b.WriteString("\n")
	}

	if len(rotates) > 0 {
		fmt.Fprintf(&b, "ROTATE suggestions (%d):\n", len(rotates))
		for _, a := range rotates {
			fmt.Fprintf(&b, "  %s -> %s  gap %+.1f%%\n",
				a.Rotate.SellSymbol, a.Rotate.BuySymbol, a.Rotate.MomentumDiff)
			fmt.Fprintf(&b, "      sell %d sh @ $%s, buy %d sh @ $%s\n",
				a.Rotate.SellShares, a.Rotate.SellPrice.StringFixed(2),
				a.Rotate.BuyShares, a.Rotate.BuyPrice.StringFixed(2))
		}
		b.WriteString("\n")
	}

	pending := run.Pending()
	if len(pending) > 0 {
		fmt.Fprintf(&b, "%d action(s) awaiting confirmation. Run 'confirm' after market open.\n", len(pending))
	} else {
		b.WriteString("No actions need confirmation today.\n")
	}

	return b.String()
}

// RenderConfirmation summarizes what a confirm session actually did.
func RenderConfirmation(run *models.ActionRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confirmation results %s\n", run.Date)
	b.WriteString(strings.Repeat("-", 40) + "\n")

	var confirmed, skipped int
	for _, a := range run.Actions {
		switch a.Status {
		case models.StatusConfirmed:
			confirmed++
			fmt.Fprintf(&b, "  [ok] %-6s %s\n", a.Symbol(), a.Kind)
		case models.StatusSkipped:
			skipped++
			fmt.Fprintf(&b, "  [--] %-6s %s\n", a.Symbol(), a.Kind)
		}
	}
	fmt.Fprintf(&b, "%d confirmed, %d skipped\n", confirmed, skipped)
	return b.String()
}
