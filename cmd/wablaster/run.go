package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kuruzyy/excelwablaster/internal/browser"
	"github.com/Kuruzyy/excelwablaster/internal/bus"
	"github.com/Kuruzyy/excelwablaster/internal/channel"
	"github.com/Kuruzyy/excelwablaster/internal/config"
	"github.com/Kuruzyy/excelwablaster/internal/dispatch"
	"github.com/Kuruzyy/excelwablaster/internal/domain"
	"github.com/Kuruzyy/excelwablaster/internal/history"
	"github.com/Kuruzyy/excelwablaster/internal/metrics"
	"github.com/Kuruzyy/excelwablaster/internal/notify"
	"github.com/Kuruzyy/excelwablaster/internal/workbook"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runCmd() *cobra.Command {
	var (
		workbookDir string
		headless    bool
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the campaign over the contact list",
		Long:  "Partitions the unresolved contacts across two worker sessions, dispatches\nmessages and attachments, then retries failures once. Ctrl+C stops cooperatively\nat the next contact boundary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if workbookDir != "" {
				cfg.Workbook = workbookDir
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			return runCampaign(cfg, dryRun)
		},
	}
	cmd.Flags().StringVarP(&workbookDir, "workbook", "w", "", "campaign workbook directory (overrides config)")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browsers headless")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "rehearse the campaign without a browser; every send succeeds")
	return cmd
}

func runCampaign(cfg config.Config, dryRun bool) error {
	log := setupLogger(cfg.Logging)

	wb, err := workbook.NewLoader(cfg.Workbook, log).Load()
	if err != nil {
		return fmt.Errorf("load workbook: %w", err)
	}

	store := workbook.NewStore(workbook.StoreConfig{Dir: cfg.Workbook, Logger: log})

	histStore, err := history.NewStore(cfg.History.DBPath, log)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer histStore.Close()

	// Stop signal: cooperative, honored at contact boundaries only.
	ctx, stop := signalContext()
	defer stop()

	runID, err := histStore.StartRun(ctx, cfg.Workbook)
	if err != nil {
		return err
	}

	// Progress stream: the one consumer prints worker lines to stdout.
	events := bus.New(cfg.Bus.Buffer, log)
	var printerWG sync.WaitGroup
	printerWG.Add(1)
	go func() {
		defer printerWG.Done()
		for evt := range events.Subscribe() {
			tag := "SYSTEM"
			if evt.Worker != bus.SystemWorker {
				tag = fmt.Sprintf("W%d", evt.Worker)
			}
			fmt.Printf("%s [%s] %s\n", evt.Time.Format("15:04:05"), tag, evt.Message)
		}
	}()

	channels, closeChannels, err := openChannels(ctx, cfg, wb.Settings, dryRun, log)
	if err != nil {
		events.Close()
		printerWG.Wait()
		return err
	}
	defer closeChannels()

	campaign := metrics.NewCampaign()
	coordinator := dispatch.New(dispatch.Config{
		Store:     store,
		Channels:  channels,
		Contacts:  wb.Contacts,
		Templates: wb.Templates,
		Docs:      wb.Docs,
		Media:     wb.Media,
		Settings:  wb.Settings,
		Logger:    log,
		Bus:       events,
		Metrics:   campaign,
		Recorder:  &history.Recorder{Store: histStore, RunID: runID, Logger: log},
	})

	runErr := coordinator.Run(ctx)

	summary := campaign.Summary()
	if err := histStore.FinishRun(context.Background(), runID, summary); err != nil {
		log.Warn("could not finalize run history", "err", err)
	}

	events.Close()
	printerWG.Wait()
	fmt.Printf("campaign summary: %s\n", summary)

	if cfg.Notify.Telegram.Enabled {
		sendCompletionNotice(cfg, summary, log)
	}

	return runErr
}

// openChannels builds the two delivery channels: dry-run stand-ins, or two
// chromedp sessions on separate profiles.
func openChannels(ctx context.Context, cfg config.Config, settings domain.RunSettings, dryRun bool, log *slog.Logger) ([2]domain.Channel, func(), error) {
	if dryRun {
		return [2]domain.Channel{
			&channel.DryRun{Instance: 1, Logger: log},
			&channel.DryRun{Instance: 2, Logger: log},
		}, func() {}, nil
	}

	var (
		channels [2]domain.Channel
		cancels  []context.CancelFunc
	)
	for i := 0; i < 2; i++ {
		bridge := browser.NewBridge(browser.BridgeConfig{
			Instance:    i + 1,
			ProfileRoot: cfg.Browser.ProfileRoot,
			Headless:    cfg.Browser.Headless,
			Logger:      log,
		})
		session, cancel := bridge.NewContext(ctx)
		cancels = append(cancels, cancel)
		channels[i] = channel.NewWhatsAppWeb(channel.WhatsAppWebConfig{
			Session:  session,
			Settings: settings,
			Instance: i + 1,
			Logger:   log,
		})
	}

	closeAll := func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
	return channels, closeAll, nil
}

func sendCompletionNotice(cfg config.Config, summary metrics.Summary, log *slog.Logger) {
	notifier, err := notify.NewTelegram(notify.TelegramConfig{
		Token:  cfg.Notify.Telegram.Token,
		ChatID: cfg.Notify.Telegram.ChatID,
		Logger: log,
	})
	if err != nil {
		log.Warn("telegram notifier unavailable", "err", err)
		return
	}
	if err := notifier.CampaignFinished(cfg.Workbook, summary); err != nil {
		log.Warn("completion notice not delivered", "err", err)
	}
}
