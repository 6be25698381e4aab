package scoring

import (
	"math"

	"solana-revival-lab/internal/domain"
)

// priceIncrement is the score awarded per satisfied price criterion.
const priceIncrement = 0.25

// validSeries extracts the usable closes and their paired volumes.
// Invalid volumes are counted as zero.
func validSeries(points []domain.PricePoint) (prices, volumes []float64) {
	prices = make([]float64, 0, len(points))
	volumes = make([]float64, 0, len(points))
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		v := p.Volume
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		prices = append(prices, p.Close)
		volumes = append(volumes, v)
	}
	return prices, volumes
}

// scorePrice returns the price sub-score and its analysis.
// ok is false when fewer than MinPricePoints valid points exist.
func (e *Engine) scorePrice(points []domain.PricePoint) (score float64, analysis *domain.PriceAnalysis, ok bool) {
	prices, volumes := validSeries(points)
	if len(prices) < e.cfg.MinPricePoints {
		return 0, &domain.PriceAnalysis{ValidPoints: len(prices)}, false
	}

	analysis = e.analyzePricePattern(prices, volumes)

	if analysis.DumpSeverity >= e.cfg.DumpSeverityMin && analysis.DumpSeverity <= e.cfg.DumpSeverityMax {
		score += priceIncrement
	}
	if analysis.RecoveryRatio >= e.cfg.MinRecoveryRatio {
		score += priceIncrement
	}
	if analysis.HigherLows {
		score += priceIncrement
	}
	if analysis.VolumeIncrease >= e.cfg.MinVolumeIncrease {
		score += priceIncrement
	}
	return score, analysis, true
}

// analyzePricePattern computes ATH, post-ATH floor and the revival ratios.
// prices must be non-empty and positive. No minimum length is enforced here.
func (e *Engine) analyzePricePattern(prices, volumes []float64) *domain.PriceAnalysis {
	n := len(prices)

	// First occurrence of the maximum.
	athIdx := 0
	for i := 1; i < n; i++ {
		if prices[i] > prices[athIdx] {
			athIdx = i
		}
	}
	ath := prices[athIdx]
	current := prices[n-1]

	// Floor is searched only after the ATH.
	floorIdx := n - 1
	if athIdx < n-1 {
		floorIdx = athIdx
		for i := athIdx + 1; i < n; i++ {
			if prices[i] < prices[floorIdx] {
				floorIdx = i
			}
		}
	}
	floor := prices[floorIdx]

	a := &domain.PriceAnalysis{
		ValidPoints:  n,
		ATH:          ath,
		ATHIndex:     athIdx,
		Floor:        floor,
		FloorIndex:   floorIdx,
		CurrentPrice: current,
	}

	a.DumpSeverity = 1
	if ath > 0 {
		a.DumpSeverity = floor / ath
	}
	a.RecoveryRatio = 1
	if floor > 0 {
		a.RecoveryRatio = current / floor
	}

	window := e.cfg.HigherLowsWindow
	if window > n {
		window = n
	}
	a.HigherLows = hasHigherLows(prices[n-window:])
	a.VolumeIncrease = volumeIncrease(volumes, floorIdx, e.cfg.VolumeWindow)

	return a
}

// hasHigherLows reports whether interior local minima are strictly ascending.
// At least two minima are required.
func hasHigherLows(prices []float64) bool {
	if len(prices) < 3 {
		return false
	}

	var lows []float64
	for i := 1; i < len(prices)-1; i++ {
		if prices[i] < prices[i-1] && prices[i] < prices[i+1] {
			lows = append(lows, prices[i])
		}
	}
	if len(lows) < 2 {
		return false
	}

	for i := 1; i < len(lows); i++ {
		if lows[i] <= lows[i-1] {
			return false
		}
	}
	return true
}

// volumeIncrease compares trailing volume with volume around the floor.
// The floor window has the given width centred on floorIdx and is clamped to the series.
// Returns 1 when the floor window has no volume.
func volumeIncrease(volumes []float64, floorIdx, width int) float64 {
	n := len(volumes)
	if n < width {
		return 0
	}
	recent := mean(volumes[n-width:])

	start := floorIdx - width/2
	end := start + width
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	floorAvg := mean(volumes[start:end])
	if floorAvg <= 0 {
		return 1
	}
	return recent / floorAvg
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
