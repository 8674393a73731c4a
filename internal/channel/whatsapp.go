// Package channel implements the outbound delivery channel the dispatch
// engine sends through: WhatsApp Web driven over chromedp, plus a dry-run
// stand-in.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

const (
	sendURL  = "https://web.whatsapp.com/send?phone=%s&text=%s"
	chatURL  = "https://web.whatsapp.com/send?phone=%s"
	paneSide = `//div[@id="pane-side"]`

	// every input accepts any file type in the attach preview
	fileInputXPath = `//input[@accept='*']`

	readyTimeout   = 120 * time.Second
	loadTimeout    = 10 * time.Second
	elementTimeout = 5 * time.Second
	pollInterval   = 500 * time.Millisecond
)

// WhatsAppWeb implements domain.Channel against one logged-in WhatsApp Web
// browser session. All waits are bounded; the engine interprets timeouts
// as soft failures.
type WhatsAppWeb struct {
	session  context.Context // chromedp task context from the bridge
	settings domain.RunSettings
	instance int
	logger   *slog.Logger
}

type WhatsAppWebConfig struct {
	Session  context.Context
	Settings domain.RunSettings
	Instance int
	Logger   *slog.Logger
}

func NewWhatsAppWeb(cfg WhatsAppWebConfig) *WhatsAppWeb {
	return &WhatsAppWeb{
		session:  cfg.Session,
		settings: cfg.Settings,
		instance: cfg.Instance,
		logger:   cfg.Logger,
	}
}

// WaitReady loads WhatsApp Web and waits for the chat pane, i.e. for the
// session to be logged in. Called once per pass before any sends.
func (w *WhatsAppWeb) WaitReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(w.session, readyTimeout)
	defer cancel()

	w.logger.Info("waiting for whatsapp web to load", "instance", w.instance)
	err := chromedp.Run(tctx,
		chromedp.Navigate("https://web.whatsapp.com"),
		chromedp.WaitVisible(paneSide, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("whatsapp web not ready: %w", err)
	}
	w.logger.Info("whatsapp web loaded", "instance", w.instance)
	return nil
}

// SendText opens the contact's chat with the rendered message prefilled
// and clicks send. The page either shows the invalid-number marker or the
// message input; whichever appears first decides the outcome.
func (w *WhatsAppWeb) SendText(ctx context.Context, phone, encoded string) (domain.SendOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.SendFailed, err
	}

	tctx, cancel := context.WithTimeout(w.session, loadTimeout+elementTimeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Navigate(fmt.Sprintf(sendURL, phone, encoded))); err != nil {
		return domain.SendFailed, fmt.Errorf("open chat: %w", err)
	}

	state, err := w.waitChatState(tctx)
	if err != nil {
		return domain.SendFailed, err
	}
	if state == chatInvalid {
		return domain.SendInvalidRecipient, nil
	}

	err = chromedp.Run(tctx,
		chromedp.Click(w.settings.TextBoxXPath, chromedp.BySearch),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(w.settings.SendButtonXPath, chromedp.BySearch),
	)
	if err != nil {
		return domain.SendFailed, fmt.Errorf("click send: %w", err)
	}

	w.logger.Info("text message sent", "instance", w.instance, "phone", phone)
	return domain.SendDelivered, nil
}

type chatState int

const (
	chatReady chatState = iota
	chatInvalid
)

// waitChatState polls until the invalid-number marker shows up in the page
// or the text input resolves, bounded by loadTimeout.
func (w *WhatsAppWeb) waitChatState(tctx context.Context) (chatState, error) {
	deadline := time.Now().Add(loadTimeout)
	markerJS := fmt.Sprintf(`document.body.innerText.includes(%q)`, w.settings.InvalidMarker)
	inputJS := fmt.Sprintf(
		`document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength > 0`,
		w.settings.TextBoxXPath,
	)

	for time.Now().Before(deadline) {
		var invalid, ready bool
		err := chromedp.Run(tctx,
			chromedp.Evaluate(markerJS, &invalid),
			chromedp.Evaluate(inputJS, &ready),
		)
		if err != nil {
			return chatReady, fmt.Errorf("probe chat state: %w", err)
		}
		if invalid && w.settings.InvalidMarker != "" {
			return chatInvalid, nil
		}
		if ready {
			return chatReady, nil
		}
		time.Sleep(pollInterval)
	}
	return chatReady, errors.New("timed out waiting for chat to load")
}

// AttachFiles sends files through the attach menu: paperclip, then the
// document or media affordance depending on kind, then the file input.
func (w *WhatsAppWeb) AttachFiles(ctx context.Context, phone string, paths []string, kind domain.AttachmentKind) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(paths) == 0 {
		return false, errors.New("no files to attach")
	}

	optionXPath := w.settings.DocsXPath
	if kind == domain.KindMedia {
		optionXPath = w.settings.MediaXPath
	}

	tctx, cancel := context.WithTimeout(w.session, loadTimeout+4*elementTimeout)
	defer cancel()

	err := chromedp.Run(tctx,
		chromedp.Navigate(fmt.Sprintf(chatURL, phone)),
		chromedp.WaitVisible(w.settings.AttachXPath, chromedp.BySearch),
		chromedp.Sleep(time.Second),
		chromedp.Click(w.settings.AttachXPath, chromedp.BySearch),
		chromedp.WaitVisible(optionXPath, chromedp.BySearch),
		chromedp.Click(optionXPath, chromedp.BySearch),
		chromedp.SetUploadFiles(fileInputXPath, paths, chromedp.BySearch),
		chromedp.Sleep(2*time.Second),
		chromedp.WaitVisible(w.settings.AttachSendXPath, chromedp.BySearch),
		chromedp.Click(w.settings.AttachSendXPath, chromedp.BySearch),
	)
	if err != nil {
		return false, fmt.Errorf("attach %s files: %w", kind, err)
	}

	w.logger.Info("files sent", "instance", w.instance, "phone", phone, "kind", kind, "count", len(paths))
	return true, nil
}
