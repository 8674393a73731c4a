package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Kuruzyy/excelwablaster/internal/bus"
	"github.com/Kuruzyy/excelwablaster/internal/domain"
	"github.com/Kuruzyy/excelwablaster/internal/metrics"
)

// Coordinator owns the two dispatch workers and runs the campaign: one
// pass over every unresolved contact, then one pass over whatever was left
// in RETRY. Failures of the second pass are terminal.
type Coordinator struct {
	store    domain.ContactStore
	channels [2]domain.Channel
	contacts []domain.Contact
	tmpls    map[string]string
	docs     map[string][]string
	media    map[string][]string
	settings domain.RunSettings
	logger   *slog.Logger
	bus      *bus.Bus
	metrics  *metrics.Campaign
	recorder OutcomeRecorder

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Config wires a Coordinator. Contacts, Templates, Docs, Media, and
// Settings are the loaded workbook; Channels are the two open sessions.
type Config struct {
	Store     domain.ContactStore
	Channels  [2]domain.Channel
	Contacts  []domain.Contact
	Templates map[string]string
	Docs      map[string][]string
	Media     map[string][]string
	Settings  domain.RunSettings
	Logger    *slog.Logger
	Bus       *bus.Bus
	Metrics   *metrics.Campaign
	Recorder  OutcomeRecorder
}

func New(cfg Config) *Coordinator {
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewCampaign()
	}
	return &Coordinator{
		store:    cfg.Store,
		channels: cfg.Channels,
		contacts: cfg.Contacts,
		tmpls:    cfg.Templates,
		docs:     cfg.Docs,
		media:    cfg.Media,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		bus:      cfg.Bus,
		metrics:  m,
		recorder: cfg.Recorder,
	}
}

// Run executes the campaign and blocks until both passes have finished or
// a stop has propagated through both workers. Per-contact faults never
// reach the caller; only setup errors do.
func (c *Coordinator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	unresolved := filterUnresolved(c.contacts)
	c.announce("campaign started: %d of %d contacts unresolved", len(unresolved), len(c.contacts))

	c.runPass(ctx, unresolved, PassInitial)

	if ctx.Err() != nil {
		c.announce("campaign stopped before retry pass")
		return nil
	}

	snapshot, err := c.store.Snapshot()
	if err != nil {
		return fmt.Errorf("reload contact table: %w", err)
	}
	retry := filterStatus(snapshot, domain.StatusRetry)
	c.announce("%d contacts marked for retry", len(retry))

	if len(retry) > 0 {
		c.runPass(ctx, retry, PassRetry)
	}

	c.announce("campaign finished: %s", c.metrics.Summary())
	return nil
}

// Stop requests a cooperative stop. Each worker honors it at its next
// contact boundary. Safe to call at any time, any number of times.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// runPass splits the pass input and runs both workers to completion.
func (c *Coordinator) runPass(ctx context.Context, contacts []domain.Contact, pass Pass) {
	even, odd := Split(contacts)
	c.logger.Info("pass starting",
		"pass", int(pass), "total", len(contacts), "worker1", len(even), "worker2", len(odd))

	var wg sync.WaitGroup
	for i, part := range [][]domain.Contact{even, odd} {
		worker := NewWorker(WorkerConfig{
			ID:        i + 1,
			Channel:   c.channels[i],
			Store:     c.store,
			Templates: c.tmpls,
			Docs:      c.docs,
			Media:     c.media,
			Settings:  c.settings,
			Logger:    c.logger,
			Bus:       c.bus,
			Metrics:   c.metrics,
			Recorder:  c.recorder,
		})
		wg.Add(1)
		go func(w *Worker, assigned []domain.Contact) {
			defer wg.Done()
			w.Run(ctx, assigned, pass)
		}(worker, part)
	}
	wg.Wait()

	c.logger.Info("pass complete", "pass", int(pass))
}

// Summary returns the current counter values.
func (c *Coordinator) Summary() metrics.Summary {
	return c.metrics.Summary()
}

func (c *Coordinator) announce(format string, args ...any) {
	c.logger.Info(fmt.Sprintf(format, args...))
	if c.bus != nil {
		c.bus.Publish(bus.Event{Worker: bus.SystemWorker, Message: fmt.Sprintf(format, args...)})
	}
}

func filterUnresolved(contacts []domain.Contact) []domain.Contact {
	out := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		if !c.Status.Resolved() {
			out = append(out, c)
		}
	}
	return out
}

func filterStatus(contacts []domain.Contact, st domain.Status) []domain.Contact {
	var out []domain.Contact
	for _, c := range contacts {
		if c.Status == st {
			out = append(out, c)
		}
	}
	return out
}
