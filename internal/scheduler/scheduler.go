package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"AgroMonitor/internal/model"
	"AgroMonitor/internal/notifier"
	"AgroMonitor/internal/scanner"
)

// Engine is the part of the scanner the scheduler drives.
type Engine interface {
	Scan(ctx context.Context, opts scanner.Options) (*model.ScanReport, error)
	Chart(ctx context.Context, symbol string) *model.ChartData
}

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs scans on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   Engine
	Notifier Sender
	Defaults scanner.Options
	Top      int // rows per category in digests
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, engine Engine, sender Sender, defaults scanner.Options) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Engine:   engine,
		Notifier: sender,
		Defaults: defaults,
		Top:      5,
		Ctx:      ctx,
	}
}

// RegisterAll registers the scheduled scan digest.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScanNow executes the scheduled scan immediately.
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	log.Info().Msg("running scheduled scan")
	report, err := s.Engine.Scan(s.Ctx, s.Defaults)
	if err != nil {
		log.Error().Err(err).Msg("scheduled scan")
		if report == nil || report.Total() == 0 {
			s.trySend(fmt.Sprintf("❌ Scheduled scan failed: %v", err))
			return
		}
	}
	s.trySend(notifier.FormatScanReport(report, s.Top))
}

// HandleCommand processes a user command and returns a reply.
//
//	/scan [min_score] [filter]
//	/chart SYMBOL
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats address commands as /scan@SomeBot.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/scan":
		opts, err := s.parseScanArgs(args)
		if err != nil {
			return err.Error()
		}
		report, err := s.Engine.Scan(ctx, opts)
		if err != nil && report == nil {
			return fmt.Sprintf("❌ Scan failed: %v", err)
		}
		return notifier.FormatScanReport(report, s.Top)
	case "/chart":
		if len(args) == 0 {
			return "Usage: /chart SYMBOL (e.g. /chart SLCE3)"
		}
		return notifier.FormatChart(s.Engine.Chart(ctx, args[0]))
	default:
		return notifier.FormatHelp()
	}
}

// parseScanArgs accepts an optional leading score followed by an optional filter.
func (s *Scheduler) parseScanArgs(args []string) (scanner.Options, error) {
	opts := s.Defaults
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			if n < 0 || n > 100 {
				return opts, fmt.Errorf("min_score must be within 0-100, got %d", n)
			}
			opts.MinScore = n
			args = args[1:]
		}
	}
	if len(args) > 0 {
		opts.Filter = args[0]
	}
	return opts, nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
