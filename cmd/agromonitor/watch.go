package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AgroMonitor/internal/notifier"
	"AgroMonitor/internal/scheduler"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run scheduled scans, answer Telegram commands and serve metrics",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().Int("min-score", 0, "Minimum technical score for scheduled digests")
	cmd.Flags().String("filter", "", "Only scan symbols containing this text")
	cmd.Flags().Bool("run-now", os.Getenv("RUN_ON_START") == "true", "Run one scan immediately on start")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	runNow, _ := cmd.Flags().GetBool("run-now")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.ValidateTelegram(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)

	sched := scheduler.NewScheduler(ctx, a.scanner, tn, a.scanOptions())
	if err := sched.RegisterAll(a.cfg.Schedule.ScanCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	server := &http.Server{
		Addr:         a.cfg.Metrics.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	if runNow {
		log.Info().Msg("running scan on start")
		go sched.RunScanNow()
	}

	log.Info().Str("cron", a.cfg.Schedule.ScanCron).Msg("AgroMonitor is running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
