package dispatch

import (
	"strconv"
	"testing"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

func numbered(n int) []domain.Contact {
	contacts := make([]domain.Contact, n)
	for i := range contacts {
		contacts[i] = domain.Contact{Phone: strconv.Itoa(i)}
	}
	return contacts
}

func TestSplit_PartitionLaw(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 10, 11} {
		even, odd := Split(numbered(n))

		if len(even) != (n+1)/2 {
			t.Fatalf("n=%d: |even|=%d, want %d", n, len(even), (n+1)/2)
		}
		if len(even)+len(odd) != n {
			t.Fatalf("n=%d: partition lost elements: %d + %d", n, len(even), len(odd))
		}
		for i, c := range even {
			if c.Phone != strconv.Itoa(2*i) {
				t.Fatalf("n=%d: even[%d]=%s, want %d", n, i, c.Phone, 2*i)
			}
		}
		for i, c := range odd {
			if c.Phone != strconv.Itoa(2*i+1) {
				t.Fatalf("n=%d: odd[%d]=%s, want %d", n, i, c.Phone, 2*i+1)
			}
		}
	}
}

func TestSplit_OrderPreserved(t *testing.T) {
	even, odd := Split(numbered(7))

	last := -1
	for _, c := range even {
		v, _ := strconv.Atoi(c.Phone)
		if v <= last {
			t.Fatalf("even subset out of order: %v", even)
		}
		last = v
	}
	last = -1
	for _, c := range odd {
		v, _ := strconv.Atoi(c.Phone)
		if v <= last {
			t.Fatalf("odd subset out of order: %v", odd)
		}
		last = v
	}
}
