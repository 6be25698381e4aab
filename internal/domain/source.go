package domain

// Source names the provider that supplied a token's metrics.
type Source string

const (
	SourceBirdEye     Source = "BIRDEYE"
	SourceDexScreener Source = "DEXSCREENER"
	SourceHelius      Source = "HELIUS"
	SourceGoPlus      Source = "GOPLUS"
)
