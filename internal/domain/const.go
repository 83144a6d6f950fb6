package domain

const (
	// Royalty limits in basis points
	MaxRoyaltyShareBps = 10000
	MaxRoyaltyTotalBps = 5000

	// FirstTokenID is the identifier handed out by the first mint
	FirstTokenID uint64 = 1
)
