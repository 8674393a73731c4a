package workbook

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

const (
	defaultProbeAttempts = 3
	defaultProbeDelay    = 2 * time.Second
)

// Store is the concurrency-safe status table over the LIST sheet. Both
// workers write through one Store instance; a single process-wide mutex
// spans the full locate-row, mutate, persist cycle so concurrent updates to
// different contacts never interleave their writes.
type Store struct {
	path   string
	logger *slog.Logger

	probeAttempts int
	probeDelay    time.Duration

	mu sync.Mutex
}

// StoreConfig configures a Store. Zero probe fields take the defaults
// (3 attempts, 2s apart).
type StoreConfig struct {
	Dir           string
	Logger        *slog.Logger
	ProbeAttempts int
	ProbeDelay    time.Duration
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.ProbeAttempts <= 0 {
		cfg.ProbeAttempts = defaultProbeAttempts
	}
	if cfg.ProbeDelay <= 0 {
		cfg.ProbeDelay = defaultProbeDelay
	}
	return &Store{
		path:          filepath.Join(cfg.Dir, SheetList),
		logger:        cfg.Logger,
		probeAttempts: cfg.ProbeAttempts,
		probeDelay:    cfg.ProbeDelay,
	}
}

// Snapshot re-reads the whole table. It takes no lock: readers may observe
// a state that is stale relative to writes in flight, which is acceptable
// because the coordinator only snapshots between passes.
func (s *Store) Snapshot() ([]domain.Contact, error) {
	sh, err := readSheet(s.path)
	if err != nil {
		return nil, err
	}
	return parseContacts(sh)
}

// UpdateStatus persists a new status for one contact. An unknown phone is
// a logged no-op: the row is left exactly as it was.
func (s *Store) UpdateStatus(phone string, st domain.Status) error {
	s.waitUnlocked(phone)

	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := readSheet(s.path)
	if err != nil {
		return err
	}
	phoneIdx, err := sh.col(colPhone)
	if err != nil {
		return err
	}
	statusIdx, err := sh.col(colStatus)
	if err != nil {
		return err
	}

	for i, row := range sh.rows {
		if domain.NormalizeValue(sh.cell(row, phoneIdx)) != phone {
			continue
		}
		for len(row) <= statusIdx {
			// pad short rows so the status cell exists
			row = append(row, "")
		}
		row[statusIdx] = st.Cell()
		sh.rows[i] = row

		if err := sh.write(); err != nil {
			return err
		}
		s.logger.Info("status updated", "phone", phone, "status", st.String())
		return nil
	}

	s.logger.Warn("phone not found in contact table, status not updated", "phone", phone)
	return nil
}

// waitUnlocked probes whether the sheet is held open for exclusive access
// by another program (a spreadsheet editor, typically). After the attempts
// are exhausted it proceeds anyway: best effort, not a guarantee, and the
// probe-then-write gap is an accepted race.
func (s *Store) waitUnlocked(phone string) {
	for attempt := 0; attempt < s.probeAttempts; attempt++ {
		if !s.fileLocked() {
			return
		}
		s.logger.Warn("contact table is locked, retrying",
			"phone", phone,
			"attempt", attempt+1,
			"delay", s.probeDelay,
		)
		time.Sleep(s.probeDelay)
	}
	s.logger.Warn("contact table still locked, proceeding anyway", "phone", phone)
}

func (s *Store) fileLocked() bool {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return true
	}
	f.Close()
	return false
}
