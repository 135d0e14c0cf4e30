package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/RakhmaMed/Downloader-Bot/internal/config"
	"github.com/RakhmaMed/Downloader-Bot/internal/extract"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the bot installation",
		Long: `Verifies that the configuration, the yt-dlp binary, the downloads
directory and the history database are correctly set up. Reports pass/fail
for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Downloader-Bot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config loads and validates
			cfg, err := config.Load(configPath)
			if err != nil {
				printFail("Configuration", err.Error())
				failed++
				fmt.Printf("\nResults: %d passed, %d warnings, %d failed\n", passed, warned, failed)
				return fmt.Errorf("configuration invalid")
			}
			printPass("Configuration", fmt.Sprintf("mode=%s", cfg.Telegram.Mode))
			passed++

			// 2. yt-dlp available
			if err := extract.CheckBinary(); err != nil {
				printFail("yt-dlp binary", err.Error())
				failed++
			} else {
				printPass("yt-dlp binary", ytDlpVersion())
				passed++
			}

			// 3. Downloads directory writable
			if err := checkDirWritable(cfg.Download.Dir); err != nil {
				printFail("Downloads dir", err.Error())
				failed++
			} else {
				printPass("Downloads dir", cfg.Download.Dir)
				passed++
			}

			// 4. History database writable
			if cfg.History.Enabled {
				dbPath := cfg.HistoryDBPath()
				if err := checkDatabase(dbPath); err != nil {
					printFail("History database", err.Error())
					failed++
				} else {
					printPass("History database", dbPath)
					passed++
				}
			} else {
				printWarn("History database", "disabled")
				warned++
			}

			// 5. Webhook port available (webhook mode only)
			if cfg.Telegram.Mode == config.ModeWebhook {
				if err := checkPort(cfg.Webhook.Port); err != nil {
					printWarn("Webhook port", fmt.Sprintf("port %d may be in use: %v", cfg.Webhook.Port, err))
					warned++
				} else {
					printPass("Webhook port", fmt.Sprintf(":%d available", cfg.Webhook.Port))
					passed++
				}
				if !strings.HasPrefix(cfg.Webhook.Host, "https://") {
					printWarn("Webhook host", "Telegram requires an https:// public URL")
					warned++
				}
			}

			// 6. Metrics port (polling mode with metrics enabled)
			if cfg.Telegram.Mode == config.ModePolling && cfg.Metrics.Enabled {
				if err := checkPort(cfg.Metrics.Port); err != nil {
					printWarn("Metrics port", fmt.Sprintf("port %d may be in use: %v", cfg.Metrics.Port, err))
					warned++
				} else {
					printPass("Metrics port", fmt.Sprintf(":%d available", cfg.Metrics.Port))
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running the bot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nThe bot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! The bot is ready to run.\n")
			}
			return nil
		},
	}
}

func ytDlpVersion() string {
	out, err := exec.Command("yt-dlp", "--version").Output()
	if err != nil {
		return "found in PATH"
	}
	return "version " + strings.TrimSpace(string(out))
}

func checkDirWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create: %w", err)
	}
	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}

	// Try a write.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
