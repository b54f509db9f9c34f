package watch

import (
	"testing"
	"time"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/models"
	"alpha_premarket/internal/storage"

	"github.com/shopspring/decimal"
)

type stubProvider struct {
	prices map[string]decimal.Decimal
	open   bool
}

func (s *stubProvider) GetPrice(symbol string) (decimal.Decimal, error) {
	return s.prices[symbol], nil
}
func (s *stubProvider) GetBars(symbol string, days int) ([]models.Bar, error) { return nil, nil }
func (s *stubProvider) GetClock() (*models.Clock, error) {
	return &models.Clock{IsOpen: s.open}, nil
}

func watchFixture(t *testing.T, open bool, price float64) (*Monitor, *storage.Repository) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	repo, err := storage.NewRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	pf := models.NewPortfolio()
	pf.Positions["AAA"] = models.Position{
		Shares: 10, AvgPrice: decimal.NewFromInt(100),
		CostBasis: decimal.NewFromInt(1000), FirstEntry: "2026-01-05",
		HighSinceEntry: decimal.NewFromInt(100),
	}
	if err := repo.SavePortfolio(pf); err != nil {
		t.Fatalf("SavePortfolio failed: %v", err)
	}

	provider := &stubProvider{
		open:   open,
		prices: map[string]decimal.Decimal{"AAA": decimal.NewFromFloat(price)},
	}
	return NewMonitor(provider, repo, config.DefaultPolicy(), time.Minute), repo
}

func TestPollAlertsOnStopBreach(t *testing.T) {
	m, _ := watchFixture(t, true, 80) // -20%, through the -15% stop

	m.poll()
	if _, alerted := m.lastAlerts["AAA"]; !alerted {
		t.Error("expected an alert for the breached stop")
	}

	// A second poll inside the cooldown must not refresh the alert time.
	first := m.lastAlerts["AAA"]
	m.poll()
	if !m.lastAlerts["AAA"].Equal(first) {
		t.Error("alert repeated inside the cooldown window")
	}
}

func TestPollQuietWhenHealthy(t *testing.T) {
	m, _ := watchFixture(t, true, 105)

	m.poll()
	if len(m.lastAlerts) != 0 {
		t.Errorf("no alert expected at +5%%, got %v", m.lastAlerts)
	}
}

func TestPollRaisesStoredHighs(t *testing.T) {
	m, repo := watchFixture(t, true, 112)

	m.poll()
	pf, err := repo.LoadPortfolio()
	if err != nil {
		t.Fatalf("LoadPortfolio failed: %v", err)
	}
	if !pf.Positions["AAA"].HighSinceEntry.Equal(decimal.NewFromInt(112)) {
		t.Errorf("high not persisted, got %s", pf.Positions["AAA"].HighSinceEntry)
	}
}

func TestPollSkipsClosedMarket(t *testing.T) {
	m, _ := watchFixture(t, false, 80)

	m.poll()
	if len(m.lastAlerts) != 0 {
		t.Errorf("closed market must not alert, got %v", m.lastAlerts)
	}
}
