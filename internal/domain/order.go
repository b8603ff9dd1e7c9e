package domain

// DonorOrder represents a single order record returned by the donation platform.
type DonorOrder struct {
	TradeNo string
	DonorID string
	// Amount is kept exactly as the platform formats it, e.g. "5.00".
	Amount string
	Status int
}
