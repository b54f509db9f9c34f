package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/engine"
	"alpha_premarket/internal/models"
	"alpha_premarket/internal/notify"
	"alpha_premarket/internal/report"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	confirmDate   string
	confirmNotify bool
)

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Walk through pending actions and apply the ones you executed",
	Long: `Interactively confirm or skip each pending action from a run. Confirmed
actions update cash, positions and the transaction log. 'm' lets you record
the shares and fill price you actually got.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseRunDate(confirmDate)
		if err != nil {
			return err
		}

		run, err := repo.LoadRun(date)
		if err != nil {
			return fmt.Errorf("no action file for %s: %w", date.Format(models.DateLayout), err)
		}

		pending := run.Pending()
		if len(pending) == 0 {
			fmt.Println("No pending actions.")
			return nil
		}

		fmt.Printf("=== Confirming actions for %s ===\n\n", run.Date)
		fmt.Printf("%d pending:\n\n", len(pending))

		scanner := bufio.NewScanner(os.Stdin)
		today := time.Now().In(config.NYLoc).Format(models.DateLayout)

		for i := range run.Actions {
			a := &run.Actions[i]
			if a.Status != models.StatusPending {
				continue
			}

			printAction(a)
			switch prompt(scanner, "    Execute? (y=confirm / n=skip / m=modify shares & price): ") {
			case "y":
				a.Status = models.StatusConfirmed
				a.ConfirmDate = today
				fmt.Println("    -> confirmed")

			case "m":
				if err := recordFill(scanner, a); err != nil {
					fmt.Printf("    -> %v, skipped\n", err)
					a.Status = models.StatusSkipped
					break
				}
				a.Status = models.StatusConfirmed
				a.ConfirmDate = today
				fmt.Println("    -> confirmed (modified)")

			default:
				a.Status = models.StatusSkipped
				fmt.Println("    -> skipped")
			}
			fmt.Println()
		}

		pf, err := repo.LoadPortfolio()
		if err != nil {
			return fmt.Errorf("loading portfolio: %w", err)
		}

		asOf := time.Now().In(config.NYLoc)
		if err := engine.Apply(&pf, run.Actions, asOf); err != nil {
			// Nothing was saved: fix the problem and confirm again.
			return fmt.Errorf("applying confirmed actions: %w", err)
		}

		if err := repo.SaveRun(run); err != nil {
			return fmt.Errorf("saving action statuses: %w", err)
		}
		if err := repo.SavePortfolio(pf); err != nil {
			return fmt.Errorf("saving portfolio: %w", err)
		}

		summary := report.RenderConfirmation(&run)
		fmt.Print(summary)
		fmt.Printf("\nPortfolio updated:\n")
		fmt.Printf("  Cash:         $%s\n", pf.Cash.StringFixed(2))
		fmt.Printf("  Positions:    %d\n", len(pf.Positions))
		fmt.Printf("  Transactions: %d\n", len(pf.Transactions))

		if confirmNotify {
			notify.Notify(summary)
		}
		return nil
	},
}

func init() {
	confirmCmd.Flags().StringVar(&confirmDate, "date", "", "run date to confirm (YYYY-MM-DD, default today)")
	confirmCmd.Flags().BoolVar(&confirmNotify, "notify", false, "send the confirmation summary to Telegram")
}

func parseRunDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().In(config.NYLoc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.NYLoc), nil
	}
	t, err := time.ParseInLocation(models.DateLayout, s, config.NYLoc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func printAction(a *models.Action) {
	switch a.Kind {
	case models.ActionExit:
		pnl := "N/A"
		if a.Exit.PnLPct != nil {
			pnl = fmt.Sprintf("%+.2f%%", *a.Exit.PnLPct)
		}
		fmt.Printf("[%d] EXIT %s | %d sh | P&L: %s\n", a.ID, a.Exit.Symbol, a.Exit.Shares, pnl)
	case models.ActionAdd:
		fmt.Printf("[%d] ADD  %s | suggested %d sh @ $%s\n",
			a.ID, a.Add.Symbol, a.Add.SuggestedShares, a.Add.CurrentPrice.StringFixed(2))
	case models.ActionRotate:
		fmt.Printf("[%d] ROTATE %s -> %s | sell %d sh, buy %d sh\n",
			a.ID, a.Rotate.SellSymbol, a.Rotate.BuySymbol,
			a.Rotate.SellShares, a.Rotate.BuyShares)
	}
	fmt.Printf("    Reason: %s\n", a.Reason)
}

// recordFill asks for the actual fill and stores it on the action. Rotations
// stay at their suggested legs; fills there would need per-leg prompts.
func recordFill(scanner *bufio.Scanner, a *models.Action) error {
	var defShares int64
	var defPrice decimal.Decimal
	var verb string

	switch a.Kind {
	case models.ActionAdd:
		defShares, defPrice, verb = a.Add.SuggestedShares, a.Add.CurrentPrice, "bought"
	case models.ActionExit:
		defShares, defPrice, verb = a.Exit.Shares, a.Exit.CurrentPrice, "sold"
	default:
		return fmt.Errorf("modify not supported for %s", a.Kind)
	}

	sharesIn := prompt(scanner, fmt.Sprintf("    Shares %s (default %d): ", verb, defShares))
	priceIn := prompt(scanner, fmt.Sprintf("    Fill price (default %s): ", defPrice.StringFixed(2)))

	shares := defShares
	if sharesIn != "" {
		v, err := strconv.ParseInt(sharesIn, 10, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid share count %q", sharesIn)
		}
		shares = v
	}

	price := defPrice
	if priceIn != "" {
		v, err := decimal.NewFromString(priceIn)
		if err != nil || !v.IsPositive() {
			return fmt.Errorf("invalid price %q", priceIn)
		}
		price = v
	}

	a.ActualShares = &shares
	a.ActualPrice = &price
	return nil
}

func prompt(scanner *bufio.Scanner, msg string) string {
	fmt.Print(msg)
	if !scanner.Scan() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(scanner.Text()))
}
