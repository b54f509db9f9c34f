package momentum

// SMA returns the simple moving average of the last length closes.
func SMA(closes []float64, length int) (float64, bool) {
	if length < 1 || len(closes) < length {
		return 0, false
	}
	window := closes[len(closes)-length:]
	sum := 0.0
	for _, c := range window {
		sum += c
	}
	return sum / float64(length), true
}

// RSI computes Wilder's relative strength index over the last period changes.
// Used only to annotate overbought candidates; it never gates a decision.
func RSI(closes []float64, period int) (float64, bool) {
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}

	// Seed with the average gain/loss over the first period.
	gains, losses := 0.0, 0.0
	start := len(closes) - period - 1
	for i := start + 1; i <= start+period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return round2(100 - 100/(1+rs)), true
}
