package workbook

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	return NewStore(StoreConfig{
		Dir:           dir,
		Logger:        testLogger(),
		ProbeAttempts: 1,
		ProbeDelay:    time.Millisecond,
	})
}

func TestStore_UpdateStatusPersists(t *testing.T) {
	dir := writeFixture(t)
	store := newTestStore(t, dir)

	if err := store.UpdateStatus("60123456789", domain.StatusSent); err != nil {
		t.Fatalf("update: %v", err)
	}

	contacts, err := store.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if contacts[0].Status != domain.StatusSent {
		t.Fatalf("expected SENT after update, got %s", contacts[0].Status)
	}
	// neighbouring rows untouched
	if contacts[1].Status != domain.StatusRetry || contacts[2].Status != domain.StatusSent {
		t.Fatalf("other rows changed: %+v", contacts)
	}
}

func TestStore_UpdateMatchesNormalizedPhone(t *testing.T) {
	dir := writeFixture(t)
	store := newTestStore(t, dir)

	// the fixture stores this phone as "60198765432.0"
	if err := store.UpdateStatus("60198765432", domain.StatusInvalid); err != nil {
		t.Fatalf("update: %v", err)
	}

	contacts, err := store.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if contacts[1].Status != domain.StatusInvalid {
		t.Fatalf("float-formatted row not matched, got %s", contacts[1].Status)
	}
}

func TestStore_UpdateIsIdempotent(t *testing.T) {
	dir := writeFixture(t)
	store := newTestStore(t, dir)

	for i := 0; i < 3; i++ {
		if err := store.UpdateStatus("60123456789", domain.StatusRetry); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	contacts, err := store.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if contacts[0].Status != domain.StatusRetry {
		t.Fatalf("expected RETRY, got %s", contacts[0].Status)
	}
	if len(contacts) != 3 {
		t.Fatalf("row count changed: %d", len(contacts))
	}
}

func TestStore_UnknownPhoneIsNoOp(t *testing.T) {
	dir := writeFixture(t)
	store := newTestStore(t, dir)

	before, err := store.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if err := store.UpdateStatus("999999", domain.StatusSent); err != nil {
		t.Fatalf("unknown phone must not error: %v", err)
	}

	after, err := store.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("row %d changed on unknown-phone update", i)
		}
	}
}

func TestStore_ConcurrentUpdatesNoLostWrites(t *testing.T) {
	const n = 8
	dir := t.TempDir()

	rows := "Sender,Phone Number,Name,Course of Interest,Message Code,Document Code,Media Code,Status\n"
	for i := 0; i < n; i++ {
		rows += fmt.Sprintf("Amy,60%d,Contact%d,Physics,1,0,0,\n", i, i)
	}
	writeSheet(t, dir, SheetList, rows)

	store := newTestStore(t, dir)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.UpdateStatus(fmt.Sprintf("60%d", i), domain.StatusSent); err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	contacts, err := store.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(contacts) != n {
		t.Fatalf("expected %d rows, got %d", n, len(contacts))
	}
	for _, c := range contacts {
		if c.Status != domain.StatusSent {
			t.Fatalf("lost update for %s: status %s", c.Phone, c.Status)
		}
	}
}

func TestStore_StatusCellRoundTrip(t *testing.T) {
	dir := writeFixture(t)
	store := newTestStore(t, dir)

	for _, st := range []domain.Status{domain.StatusInvalid, domain.StatusSent, domain.StatusRetry} {
		if err := store.UpdateStatus("60111222333", st); err != nil {
			t.Fatalf("update to %s: %v", st, err)
		}
		contacts, err := store.Snapshot()
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if contacts[2].Status != st {
			t.Fatalf("round trip for %s gave %s", st, contacts[2].Status)
		}
	}
}
