package domain

// FailureReason explains why a token did not pass scoring.
type FailureReason string

// Failure reason codes.
const (
	FailureNone              FailureReason = ""
	FailureDataUnavailable   FailureReason = "DATA_UNAVAILABLE"
	FailureDataFetchFailed   FailureReason = "DATA_FETCH_FAILED"
	FailureHighConcentration FailureReason = "HIGH_CONCENTRATION"
	FailureWeakPricePattern  FailureReason = "WEAK_PRICE_PATTERN"
	FailureNoSmartMoney      FailureReason = "NO_SMART_MONEY"
	FailureLowVolume         FailureReason = "LOW_VOLUME"
	FailureLowOverallScore   FailureReason = "LOW_OVERALL_SCORE"
	FailureException         FailureReason = "EXCEPTION"
	FailureInvalidAddress    FailureReason = "INVALID_ADDRESS"
	FailurePrefilter         FailureReason = "PREFILTER"
	FailureSecurity          FailureReason = "SECURITY"
)

// ComponentScores holds the four weighted sub-scores, each in [0,1].
type ComponentScores struct {
	Price      float64
	SmartMoney float64
	Volume     float64
	Social     float64
}

// PriceAnalysis carries the intermediate values of the price-pattern check.
type PriceAnalysis struct {
	ValidPoints    int
	ATH            float64
	ATHIndex       int
	Floor          float64
	FloorIndex     int
	CurrentPrice   float64
	DumpSeverity   float64
	RecoveryRatio  float64
	HigherLows     bool
	VolumeIncrease float64
}

// RevivalScoreResult is the output of one scoring call.
type RevivalScoreResult struct {
	Address        string
	CompositeScore float64
	Components     ComponentScores
	Passed         bool

	// FailureReason is empty when Passed.
	FailureReason FailureReason

	// PriceDataReason is DATA_FETCH_FAILED when the price history was too short,
	// independent of the final FailureReason.
	PriceDataReason FailureReason

	Price  *PriceAnalysis
	Detail string
}

// ScoreDecision is the persisted, exportable outcome for every evaluated token.
type ScoreDecision struct {
	DecisionID     string
	Address        string
	Symbol         string
	EvaluatedAt    int64 // ms
	CompositeScore float64
	Components     ComponentScores
	Passed         bool
	FailureReason  FailureReason
	Detail         string
	PositionID     string // empty unless a position was opened
}
