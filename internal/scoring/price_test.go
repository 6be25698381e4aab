package scoring

import (
	"testing"

	"solana-revival-lab/internal/domain"
)

func TestAnalyzePricePattern_DumpAndRecovery(t *testing.T) {
	e, _ := NewEngine(DefaultConfig())

	prices := []float64{1.0, 1.0, 5.0, 0.5, 0.6, 0.7, 0.9, 1.3}
	volumes := make([]float64, len(prices))

	a := e.analyzePricePattern(prices, volumes)

	if a.ATHIndex != 2 || a.ATH != 5.0 {
		t.Fatalf("expected ATH 5.0 at index 2, got %f at %d", a.ATH, a.ATHIndex)
	}
	if a.FloorIndex != 3 || a.Floor != 0.5 {
		t.Fatalf("expected floor 0.5 at index 3, got %f at %d", a.Floor, a.FloorIndex)
	}
	if diff := a.DumpSeverity - 0.1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected dump severity 0.1, got %f", a.DumpSeverity)
	}
	if diff := a.RecoveryRatio - 2.6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected recovery ratio 2.6, got %f", a.RecoveryRatio)
	}
}

func TestScorePrice_DumpAndRecoveryEarnHalf(t *testing.T) {
	e, _ := NewEngine(DefaultConfig())

	// Same shape padded to the minimum history length.
	series := makeSeries([]float64{1.0, 1.0, 1.0, 1.0, 5.0, 0.5, 0.6, 0.7, 0.9, 1.3}, nil)

	score, a, ok := e.scorePrice(series)
	if !ok {
		t.Fatal("expected enough history")
	}
	if score < 0.5 {
		t.Errorf("expected price score >= 0.5, got %f", score)
	}
	if a.HigherLows {
		t.Error("single local minimum must not count as higher lows")
	}
}

func TestAnalyzePricePattern_ATHIsLastPoint(t *testing.T) {
	e, _ := NewEngine(DefaultConfig())

	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	a := e.analyzePricePattern(prices, make([]float64, len(prices)))

	if a.Floor != a.CurrentPrice {
		t.Errorf("floor should equal current price when ATH is last, got floor %f current %f", a.Floor, a.CurrentPrice)
	}
	if a.RecoveryRatio != 1 {
		t.Errorf("expected recovery ratio 1, got %f", a.RecoveryRatio)
	}
}

func TestAnalyzePricePattern_FirstATHWins(t *testing.T) {
	e, _ := NewEngine(DefaultConfig())

	prices := []float64{1, 5, 2, 5, 1, 2}
	a := e.analyzePricePattern(prices, make([]float64, len(prices)))

	if a.ATHIndex != 1 {
		t.Errorf("expected first ATH index 1, got %d", a.ATHIndex)
	}
	if a.FloorIndex != 4 {
		t.Errorf("expected floor index 4, got %d", a.FloorIndex)
	}
}

func TestAnalyzePricePattern_FloorIgnoresPrePumpDip(t *testing.T) {
	e, _ := NewEngine(DefaultConfig())

	prices := []float64{0.1, 1, 10, 4, 5}
	a := e.analyzePricePattern(prices, make([]float64, len(prices)))

	if a.Floor != 4 {
		t.Errorf("expected post-ATH floor 4, got %f", a.Floor)
	}
}

func TestHasHigherLows(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   bool
	}{
		{"too short", []float64{1, 2}, false},
		{"no minima", []float64{1, 2, 3, 4, 5}, false},
		{"single minimum", []float64{3, 1, 3}, false},
		{"ascending minima", []float64{5, 1, 4, 2, 5, 3, 6}, true},
		{"descending minima", []float64{5, 3, 6, 2, 5, 1, 6}, false},
		{"equal minima", []float64{5, 2, 6, 2, 6}, false},
		{"plateau is not a minimum", []float64{5, 2, 2, 6, 3, 7}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasHigherLows(tt.prices); got != tt.want {
				t.Errorf("hasHigherLows(%v) = %v, want %v", tt.prices, got, tt.want)
			}
		})
	}
}

func TestVolumeIncrease(t *testing.T) {
	volumes := []float64{10, 10, 10, 10, 10, 10, 10, 40, 40, 40, 40, 40}

	// Window centred on index 3 covers [0,6): all 10s. Trailing six average 35.
	got := volumeIncrease(volumes, 3, 6)
	if diff := got - 3.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected 3.5, got %f", got)
	}

	// Near the start the window is clamped to [0,3).
	got = volumeIncrease(volumes, 0, 6)
	if diff := got - 3.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected 3.5 with clamped window, got %f", got)
	}
}

func TestVolumeIncrease_ZeroFloorVolume(t *testing.T) {
	volumes := []float64{0, 0, 0, 0, 0, 0, 5, 5, 5, 5, 5, 5}
	if got := volumeIncrease(volumes, 2, 6); got != 1 {
		t.Errorf("expected neutral ratio 1 when floor volume is zero, got %f", got)
	}
}

func TestValidSeries_PairsVolumes(t *testing.T) {
	points := []domain.PricePoint{
		{Close: 1, Volume: 5},
		{Close: 0, Volume: 100},
		{Close: 2, Volume: -3},
	}
	prices, volumes := validSeries(points)
	if len(prices) != 2 || prices[1] != 2 {
		t.Fatalf("unexpected prices %v", prices)
	}
	if volumes[0] != 5 || volumes[1] != 0 {
		t.Errorf("unexpected volumes %v", volumes)
	}
}
