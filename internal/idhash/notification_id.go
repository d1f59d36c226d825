// Package idhash computes deterministic record identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

// ComputeNotificationID computes a deterministic notification ID using SHA256.
// Formula: SHA256(state|slot|index|kind), where index is the position of the
// notification within its transaction.
// Returns hex-encoded hash (64 characters).
func ComputeNotificationID(
	state address.Pubkey,
	slot uint64,
	index int,
	kind domain.NotificationKind,
) string {
	data := fmt.Sprintf("%s|%d|%d|%s",
		state.String(),
		slot,
		index,
		string(kind),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
