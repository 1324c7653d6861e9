package ledger

import (
	"bytes"

	"github.com/google/uuid"
)

// LockOrder returns the two account identifiers in the order their rows must
// be locked. Every multi-account operation acquires locks in ascending id
// order, so two transfers moving funds in opposite directions between the
// same pair of accounts can never wait on each other in a cycle.
//
// Bytewise comparison matches how PostgreSQL orders uuid columns, so the
// in-process order agrees with ORDER BY id ... FOR UPDATE.
func LockOrder(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
