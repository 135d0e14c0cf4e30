package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/RakhmaMed/Downloader-Bot/internal/bot"
	"github.com/RakhmaMed/Downloader-Bot/internal/bus"
	"github.com/RakhmaMed/Downloader-Bot/internal/config"
	"github.com/RakhmaMed/Downloader-Bot/internal/domain"
	"github.com/RakhmaMed/Downloader-Bot/internal/extract"
	"github.com/RakhmaMed/Downloader-Bot/internal/history"
	"github.com/RakhmaMed/Downloader-Bot/internal/metrics"
	"github.com/RakhmaMed/Downloader-Bot/internal/storage"
	"github.com/RakhmaMed/Downloader-Bot/internal/transport"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "downloader-bot",
		Short:   "Telegram bot that downloads YouTube and Instagram videos",
		Long:    "Downloader-Bot receives video links over Telegram, fetches them with yt-dlp and sends the file back, subject to the Bot API upload limit.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (optional; environment variables override it)")

	root.AddCommand(runCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(statsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (polling or webhook mode, per configuration)",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	if err := extract.CheckBinary(); err != nil {
		logger.Warn("extraction engine unavailable, downloads will fail", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	collector := metrics.NewCollector()

	var hist domain.HistoryStore
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath(), logger)
		if err != nil {
			return fmt.Errorf("history store: %w", err)
		}
		defer store.Close()
		hist = store
	}

	tg, err := transport.NewTelegram(transport.Config{
		Token:     cfg.Telegram.Token,
		AllowFrom: cfg.Telegram.AllowFrom,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	controller := bot.New(bot.Config{
		Transport:       tg,
		Extractor:       extract.NewYtDlp(logger),
		Steward:         storage.NewSteward(cfg.Download.Dir),
		History:         hist,
		Bus:             messageBus,
		Metrics:         collector,
		Logger:          logger,
		DownloadTimeout: cfg.Download.Timeout,
		Concurrency:     cfg.Download.Concurrency,
	})

	go controller.Run(ctx)

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		url, err := cfg.WebhookURL()
		if err != nil {
			return err
		}
		server := transport.NewWebhookServer(tg, transport.WebhookServerConfig{
			PublicURL: url,
			Path:      cfg.Webhook.Path,
			Secret:    cfg.Webhook.Secret,
			Addr:      cfg.WebhookAddr(),
			Collector: collector,
			Logger:    logger,
		})
		return server.Start(ctx, messageBus)
	default:
		if cfg.Metrics.Enabled {
			go serveMetrics(ctx, cfg.Metrics.Port, collector)
		}
		logger.Info("bot running in polling mode")
		return tg.StartPolling(ctx, messageBus)
	}
}

// serveMetrics exposes /metrics and /healthz in polling mode, where no
// webhook server exists to carry them.
func serveMetrics(ctx context.Context, port int, collector *metrics.Collector) {
	r := chi.NewRouter()
	r.Get("/metrics", collector.Handler())
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "port", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics listener error", "err", err)
	}
}

func statsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request history and per-outcome totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled (set HISTORY_ENABLED=true)")
			}

			store, err := history.NewSQLiteStore(cfg.HistoryDBPath(), logger)
			if err != nil {
				return fmt.Errorf("history store: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()

			summary, err := store.Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Totals: delivered=%d too_large=%d failed=%d\n\n",
				summary[domain.OutcomeDelivered],
				summary[domain.OutcomeTooLarge],
				summary[domain.OutcomeFailed],
			)

			recent, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			for _, rec := range recent {
				line := fmt.Sprintf("%s  %-10s  %6.1f MB  %6.1fs  %s",
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
					rec.Outcome,
					float64(rec.Bytes)/(1024*1024),
					rec.Duration.Seconds(),
					rec.URL,
				)
				if rec.Error != "" {
					line += "  (" + truncate(rec.Error, 80) + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of recent requests to show")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
