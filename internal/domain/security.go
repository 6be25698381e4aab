package domain

// Candidate is a token surfaced by discovery, before normalization.
type Candidate struct {
	Address      string
	Symbol       string
	Name         string
	LiquidityUSD float64
	Volume1hUSD  float64
	Volume24hUSD float64
	MarketCapUSD float64
	AgeHours     *float64
}

// SecurityReport is the outcome of the contract safety check.
type SecurityReport struct {
	Address          string
	Passed           bool
	Score            int
	IsHoneypot       bool
	IsMintable       bool
	HasBlacklist     bool
	CanTakeOwnership bool
	Warning          string
	Reason           string
}
