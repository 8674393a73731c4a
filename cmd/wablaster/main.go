package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kuruzyy/excelwablaster/internal/browser"
	"github.com/Kuruzyy/excelwablaster/internal/config"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "wablaster",
		Short:   "wablaster: bulk WhatsApp campaign dispatcher",
		Long:    "wablaster dispatches a personalized messaging campaign over two WhatsApp Web sessions,\ntracking per-contact delivery status in the campaign workbook and retrying failures once.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ~/.wablaster/config.yaml)")

	root.AddCommand(initCmd())
	root.AddCommand(loginCmd())
	root.AddCommand(runCmd())
	root.AddCommand(encodeCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(resetCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config file, falling back to defaults with a warning.
func loadConfig() config.Config {
	path := resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", path, "err", err)
		return config.Defaults()
	}
	return cfg
}

// setupLogger rebuilds the process logger from config: level, stderr, and
// optionally a log file.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr only", "path", cfg.File, "err", err)
		} else {
			w = io.MultiWriter(os.Stderr, f)
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config and create the working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			for _, dir := range []string{cfg.Workbook, cfg.Browser.ProfileRoot} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			logger.Info("initialized", "config", cfgPath, "workbook", cfg.Workbook)
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	var instance int
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open the browser sessions for QR-code login",
		Long:  "Opens a visible browser per worker instance on WhatsApp Web. Scan the QR code\nwith the matching account, then press Ctrl+C; the session persists in the profile dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := setupLogger(cfg.Logging)

			ctx, stop := signalContext()
			defer stop()

			instances := []int{1, 2}
			if instance == 1 || instance == 2 {
				instances = []int{instance}
			}

			errs := make(chan error, len(instances))
			for _, i := range instances {
				bridge := browser.NewBridge(browser.BridgeConfig{
					Instance:    i,
					ProfileRoot: cfg.Browser.ProfileRoot,
					Logger:      log,
				})
				go func() { errs <- bridge.Login(ctx) }()
			}
			for range instances {
				if err := <-errs; err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&instance, "instance", 0, "login a single instance (1 or 2); default both")
	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete both browser profiles (forces fresh QR logins)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := setupLogger(cfg.Logging)
			for _, i := range []int{1, 2} {
				bridge := browser.NewBridge(browser.BridgeConfig{
					Instance:    i,
					ProfileRoot: cfg.Browser.ProfileRoot,
					Logger:      log,
				})
				if err := bridge.Reset(); err != nil {
					return err
				}
				fmt.Printf("profile %d deleted\n", i)
			}
			return nil
		},
	}
}
