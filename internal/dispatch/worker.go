package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Kuruzyy/excelwablaster/internal/bus"
	"github.com/Kuruzyy/excelwablaster/internal/domain"
	"github.com/Kuruzyy/excelwablaster/internal/metrics"
	"github.com/Kuruzyy/excelwablaster/internal/template"
)

// Pass numbers a sweep over the contact list. The engine runs exactly two.
type Pass int

const (
	PassInitial Pass = 1
	PassRetry   Pass = 2
)

// failureStatus is the terminal outcome for a contact whose sends all
// failed in this pass. The retry pass has no third chance behind it, so
// its failures become INVALID instead of RETRY.
func (p Pass) failureStatus() domain.Status {
	if p == PassRetry {
		return domain.StatusInvalid
	}
	return domain.StatusRetry
}

// OutcomeRecorder receives every status the engine persists, for run
// history. Implementations must not block for long; they are called inside
// the per-contact loop.
type OutcomeRecorder interface {
	RecordOutcome(phone string, pass int, status domain.Status, detail string)
}

// Worker processes one partition of the contact list over its own channel
// session. Two workers share only the store, the metrics counters, the bus
// and the cancellation context.
type Worker struct {
	id        int
	channel   domain.Channel
	store     domain.ContactStore
	templates map[string]string
	docs      map[string][]string
	media     map[string][]string
	settings  domain.RunSettings
	logger    *slog.Logger
	bus       *bus.Bus
	metrics   *metrics.Campaign
	recorder  OutcomeRecorder
}

// WorkerConfig holds the dependencies of a Worker. Bus, Metrics, and
// Recorder are optional.
type WorkerConfig struct {
	ID        int
	Channel   domain.Channel
	Store     domain.ContactStore
	Templates map[string]string
	Docs      map[string][]string
	Media     map[string][]string
	Settings  domain.RunSettings
	Logger    *slog.Logger
	Bus       *bus.Bus
	Metrics   *metrics.Campaign
	Recorder  OutcomeRecorder
}

func NewWorker(cfg WorkerConfig) *Worker {
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewCampaign()
	}
	return &Worker{
		id:        cfg.ID,
		channel:   cfg.Channel,
		store:     cfg.Store,
		templates: cfg.Templates,
		docs:      cfg.Docs,
		media:     cfg.Media,
		settings:  cfg.Settings,
		logger:    cfg.Logger,
		bus:       cfg.Bus,
		metrics:   m,
		recorder:  cfg.Recorder,
	}
}

// Readier is implemented by channels that need a session warm-up (login
// page load) before a pass.
type Readier interface {
	WaitReady(ctx context.Context) error
}

// Run processes the worker's partition for one pass. Cancellation is
// polled only at contact boundaries: an in-flight contact is always
// drained, and the remaining contacts are left with their statuses
// untouched.
func (w *Worker) Run(ctx context.Context, contacts []domain.Contact, pass Pass) {
	if len(contacts) == 0 {
		w.announce("nothing to process in pass %d", pass)
		return
	}

	if r, ok := w.channel.(Readier); ok {
		if err := r.WaitReady(ctx); err != nil {
			w.logger.Error("channel session not ready, skipping pass",
				"worker", w.id, "pass", int(pass), "err", err)
			w.announce("channel not ready, pass %d skipped: %v", pass, err)
			return
		}
	}

	w.announce("starting pass %d with %d contacts", pass, len(contacts))

	for _, c := range contacts {
		if ctx.Err() != nil {
			w.logger.Info("stop requested, leaving remaining contacts untouched",
				"worker", w.id, "pass", int(pass))
			w.announce("stopping as requested")
			return
		}
		if c.Status.Resolved() {
			w.metrics.AddSkipped()
			continue
		}
		w.processContact(ctx, c, pass)
	}

	w.announce("pass %d complete", pass)
}

// processContact runs the per-contact decision procedure. Any fault inside
// it is isolated: logged, the contact forced to the pass's failure status,
// and the loop moves on. One bad contact never aborts the batch.
func (w *Worker) processContact(ctx context.Context, c domain.Contact, pass Pass) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("unhandled fault processing contact",
				"worker", w.id, "phone", c.Phone, "fault", r)
			w.persist(c, pass, pass.failureStatus(), fmt.Sprintf("unhandled fault: %v", r))
		}
	}()

	// Stop must never interrupt a contact mid-flight; channel operations
	// carry their own bounded waits.
	opCtx := context.WithoutCancel(ctx)

	if c.AllCodesZero() {
		w.announce("all codes zero for %s, marking SENT", c.Phone)
		w.persist(c, pass, domain.StatusSent, "no-op contact")
		return
	}

	attempted := false
	sent := false
	textSkipped := false

	if c.MsgCode != "0" {
		switch encoded, err := w.renderText(c); {
		case err != nil:
			textSkipped = true
			w.logger.Warn("text sub-step skipped", "worker", w.id, "phone", c.Phone, "err", err)
		default:
			attempted = true
			outcome, sendErr := w.channel.SendText(opCtx, c.Phone, encoded)
			switch outcome {
			case domain.SendInvalidRecipient:
				w.announce("invalid number %s", c.Phone)
				w.persist(c, pass, domain.StatusInvalid, "invalid recipient")
				return
			case domain.SendDelivered:
				w.announce("text sent to %s", c.Phone)
				sent = true
			default:
				w.metrics.AddChannelFailure()
				w.logger.Warn("text send failed", "worker", w.id, "phone", c.Phone, "err", sendErr)
			}
		}
	}

	for _, att := range []struct {
		code    string
		mapping map[string][]string
		kind    domain.AttachmentKind
	}{
		{c.DocCode, w.docs, domain.KindDocument},
		{c.MediaCode, w.media, domain.KindMedia},
	} {
		if att.code == "0" {
			continue
		}
		files, ok := att.mapping[att.code]
		if !ok || len(files) == 0 {
			continue
		}
		attempted = true
		delivered, err := w.channel.AttachFiles(opCtx, c.Phone, files, att.kind)
		if err != nil {
			w.metrics.AddChannelFailure()
			w.logger.Warn("attach failed", "worker", w.id, "phone", c.Phone, "kind", att.kind, "err", err)
		}
		if delivered {
			w.announce("%s files sent to %s", att.kind, c.Phone)
		}
		sent = sent || delivered
	}

	switch {
	case sent:
		w.persist(c, pass, domain.StatusSent, "")
	case !attempted && textSkipped:
		// The message template could not be looked up or rendered and
		// nothing else contributed: leave the status exactly as it was,
		// for the operator to fix. Any other empty outcome counts as a
		// failed pass.
		w.logger.Warn("no send attempted, leaving status untouched",
			"worker", w.id, "phone", c.Phone, "msg_code", c.MsgCode)
	default:
		w.persist(c, pass, pass.failureStatus(), "no delivery succeeded")
	}

	w.pace()
}

// renderText looks up and renders the contact's message template. A
// missing code or a render fault only skips the text sub-step.
func (w *Worker) renderText(c domain.Contact) (string, error) {
	tmpl, ok := w.templates[c.MsgCode]
	if !ok {
		return "", fmt.Errorf("unknown message code %q", c.MsgCode)
	}
	encoded, err := template.Render(tmpl, c)
	if err != nil {
		return "", err
	}
	return encoded, nil
}

// persist writes the terminal status for this contact and pass, and feeds
// the counters and the run history.
func (w *Worker) persist(c domain.Contact, pass Pass, st domain.Status, detail string) {
	if err := w.store.UpdateStatus(c.Phone, st); err != nil {
		w.logger.Error("status update failed", "worker", w.id, "phone", c.Phone, "err", err)
	}

	switch st {
	case domain.StatusSent:
		w.metrics.AddSent()
	case domain.StatusInvalid:
		w.metrics.AddInvalid()
	case domain.StatusRetry:
		w.metrics.AddRetried()
	}

	if w.recorder != nil {
		w.recorder.RecordOutcome(c.Phone, int(pass), st, detail)
	}
}

// pace sleeps a uniform random duration from the configured range, the
// engine's backpressure against the channel.
func (w *Worker) pace() {
	lo, hi := w.settings.MinDelaySec, w.settings.MaxDelaySec
	if hi <= 0 {
		return
	}
	delay := lo + rand.Float64()*(hi-lo)
	time.Sleep(time.Duration(delay * float64(time.Second)))
}

// announce publishes a user-facing progress line on this worker's stream.
func (w *Worker) announce(format string, args ...any) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(bus.Event{Worker: w.id, Message: fmt.Sprintf(format, args...)})
}
