package ledger

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestLockOrderIsDeterministic(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	first, second := LockOrder(a, b)
	if first != a || second != b {
		t.Fatalf("expected ascending order, got %s then %s", first, second)
	}

	// Swapping the arguments must not change the order.
	first, second = LockOrder(b, a)
	if first != a || second != b {
		t.Fatalf("expected ascending order regardless of argument order, got %s then %s", first, second)
	}
}

func TestLockOrderRandomPairsAscending(t *testing.T) {
	for i := 0; i < 100; i++ {
		a, b := uuid.New(), uuid.New()
		first, second := LockOrder(a, b)
		if bytes.Compare(first[:], second[:]) > 0 {
			t.Fatalf("lock order not ascending for %s, %s", a, b)
		}
	}
}
