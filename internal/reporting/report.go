package reporting

import (
	"time"

	"solana-blog-pass/internal/address"
)

// Report is the treasury report over all known blogs.
type Report struct {
	GeneratedAt time.Time

	// Rows sorted by state address.
	Blogs []BlogRow

	Totals Totals
}

// BlogRow summarizes one blog.
type BlogRow struct {
	State     address.Pubkey
	Authority address.Pubkey
	URI       string
	Paused    bool

	PremiumFee     uint64
	StandardIssued uint64
	PremiumIssued  uint64

	Donations      uint64 // sum of fundsReceived
	PremiumRevenue uint64 // sum of premiumReceived
	Withdrawn      uint64 // sum of fundsWithdrawn

	// Surplus is received minus withdrawn: what the next withdrawal would move.
	Surplus uint64

	Notifications int
	LastSlot      uint64
}

// Totals sums every blog row.
type Totals struct {
	Blogs          int
	StandardIssued uint64
	PremiumIssued  uint64
	Donations      uint64
	PremiumRevenue uint64
	Withdrawn      uint64
	Surplus        uint64
}
