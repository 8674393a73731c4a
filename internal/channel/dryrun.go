package channel

import (
	"context"
	"log/slog"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

// DryRun is a Channel that delivers nothing: every operation succeeds and
// is logged. Used by `run --dry-run` to rehearse a campaign (templates,
// partitioning, store writes) without a browser.
type DryRun struct {
	Instance int
	Logger   *slog.Logger
}

func (d *DryRun) SendText(ctx context.Context, phone, encoded string) (domain.SendOutcome, error) {
	d.Logger.Info("dry-run: text send", "instance", d.Instance, "phone", phone, "encoded_len", len(encoded))
	return domain.SendDelivered, nil
}

func (d *DryRun) AttachFiles(ctx context.Context, phone string, paths []string, kind domain.AttachmentKind) (bool, error) {
	d.Logger.Info("dry-run: attach", "instance", d.Instance, "phone", phone, "kind", kind, "files", len(paths))
	return true, nil
}
