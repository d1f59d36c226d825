package domain

import "solana-blog-pass/internal/address"

// NotificationKind identifies the event emitted by a committed instruction.
type NotificationKind string

const (
	KindFundsReceived   NotificationKind = "fundsReceived"
	KindFundsWithdrawn  NotificationKind = "fundsWithdrawn"
	KindPremiumReceived NotificationKind = "premiumReceived"
)

// String returns the string representation of NotificationKind.
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k NotificationKind) IsValid() bool {
	switch k {
	case KindFundsReceived, KindFundsWithdrawn, KindPremiumReceived:
		return true
	}
	return false
}

// Notification is an externally observable event record.
//
// Account is the sender for fundsReceived/premiumReceived and the recipient
// for fundsWithdrawn. For premiumReceived Amount is the captured payment and
// TokenURI the caller-supplied token metadata.
// Corresponds to the notifications table in PostgreSQL and ClickHouse.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	State     address.Pubkey   `json:"state"`
	Account   address.Pubkey   `json:"account"`
	Amount    uint64           `json:"amount"`
	TokenURI  string           `json:"token_uri,omitempty"`
	Slot      uint64           `json:"slot"`
	EmittedAt int64            `json:"emitted_at"` // unix ms
}
