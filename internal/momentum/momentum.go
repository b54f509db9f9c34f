// Package momentum computes the trailing-return signals the decision engine
// ranks candidates by. Everything here is pure math over already-fetched bars.
package momentum

import (
	"math"
	"sort"

	"alpha_premarket/internal/models"
)

// Score returns the percent price change over the trailing period, computed
// from the last period+1 closes. ok is false when history is too short.
func Score(closes []float64, period int) (score float64, ok bool) {
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}
	window := closes[len(closes)-period-1:]
	first, last := window[0], window[len(window)-1]
	if first == 0 {
		return 0, false
	}
	return round2((last/first - 1) * 100), true
}

// Rank scores each symbol and produces a 1-indexed total order, strongest
// first. Symbols with insufficient history are dropped, not ranked. Ties keep
// the relative order of the symbols slice, so identical inputs always yield
// identical ranks.
func Rank(symbols []string, history map[string][]models.Bar, period, rsiPeriod int) []models.MomentumRank {
	ranked := make([]models.MomentumRank, 0, len(symbols))
	for _, symbol := range symbols {
		closes := Closes(history[symbol])
		score, ok := Score(closes, period)
		if !ok {
			continue
		}
		entry := models.MomentumRank{Symbol: symbol, Momentum: score}
		if rsi, ok := RSI(closes, rsiPeriod); ok {
			entry.RSI = &rsi
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Momentum > ranked[j].Momentum
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Alpha1Y returns the symbol's trailing return minus the benchmark's over the
// same window (up to 252 trading days). Advisory only; ok is false when
// either side lacks a year of history.
func Alpha1Y(closes, benchmark []float64) (alpha float64, ok bool) {
	const yearBars = 252
	const minBars = 200 // Tolerate recent listings and data gaps

	n := min(len(closes), len(benchmark))
	if n < minBars {
		return 0, false
	}
	if n > yearBars {
		n = yearBars
	}

	ret := func(series []float64) (float64, bool) {
		window := series[len(series)-n:]
		if window[0] == 0 {
			return 0, false
		}
		return (window[len(window)-1]/window[0] - 1) * 100, true
	}

	symRet, ok1 := ret(closes)
	benchRet, ok2 := ret(benchmark)
	if !ok1 || !ok2 {
		return 0, false
	}
	return round2(symRet - benchRet), true
}

// Closes extracts the close series from bars.
func Closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i], _ = b.Close.Float64()
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
