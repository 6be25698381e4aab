package strategy

const msPerDay = 24 * 60 * 60 * 1000

// HoldDays returns the fractional number of days between entry and now.
func HoldDays(entryMs, nowMs int64) float64 {
	if nowMs <= entryMs {
		return 0
	}
	return float64(nowMs-entryMs) / msPerDay
}

// TriggerPrices computes stop and take-profit prices as offsets of the execution price.
// StopLossPct is negative (-20 for a 20% stop).
func TriggerPrices(executionPrice float64, cfg Config) (stopLoss, takeProfit1, takeProfit2 float64) {
	stopLoss = executionPrice * (1 + cfg.StopLossPct/100)
	takeProfit1 = executionPrice * (1 + cfg.TakeProfit1Pct/100)
	takeProfit2 = executionPrice * (1 + cfg.TakeProfit2Pct/100)
	return
}
