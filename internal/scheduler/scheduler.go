package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"TradeLens/internal/collector"
	"TradeLens/internal/config"
	"TradeLens/internal/notifier"
	"TradeLens/internal/pipeline"
	"TradeLens/internal/recorder"
	"TradeLens/internal/render"
)

// Sender delivers alert messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler re-renders watched trades on cron schedules and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Pipeline  *pipeline.Pipeline
	Notifier  Sender
	Recorder  recorder.Recorder
	Board     render.Board
	OutputDir string
	Logger    zerolog.Logger
	Ctx       context.Context

	watch map[string]config.WatchEntry
}

// NewScheduler creates a new Scheduler. Notifier may be nil. Board receives
// charts requested through chat commands.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, n Sender, rec recorder.Recorder, board render.Board, outputDir string, logger zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Pipeline:  p,
		Notifier:  n,
		Recorder:  rec,
		Board:     board,
		OutputDir: outputDir,
		Logger:    logger.With().Str("component", "scheduler").Logger(),
		Ctx:       ctx,
		watch:     make(map[string]config.WatchEntry),
	}
}

// RegisterAll registers one job per watch entry.
func (s *Scheduler) RegisterAll(entries []config.WatchEntry) error {
	for _, e := range entries {
		if _, err := collector.ParseQuerySource(e.Query); err != nil {
			return fmt.Errorf("watch %s: %w", e.Name, err)
		}
		entry := e
		if _, err := s.Cron.AddFunc(entry.Cron, func() { s.runWatch(entry) }); err != nil {
			return fmt.Errorf("register watch %s: %w", entry.Name, err)
		}
		s.watch[entry.Name] = entry
		s.Logger.Info().Str("watch", entry.Name).Str("cron", entry.Cron).Msg("watch registered")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("jobs", len(s.watch)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RunNow renders the named watch entry immediately.
func (s *Scheduler) RunNow(name string) (*pipeline.Cycle, error) {
	entry, ok := s.watch[name]
	if !ok {
		return nil, fmt.Errorf("unknown watch %q", name)
	}
	return s.runWatch(entry)
}

func (s *Scheduler) runWatch(entry config.WatchEntry) (*pipeline.Cycle, error) {
	logger := s.Logger.With().Str("watch", entry.Name).Logger()
	logger.Info().Msg("running watch")

	src, err := collector.ParseQuerySource(entry.Query)
	if err != nil {
		logger.Error().Err(err).Msg("bad watch query")
		return nil, err
	}
	board, err := render.NewDirBoard(filepath.Join(s.OutputDir, entry.Name))
	if err != nil {
		logger.Error().Err(err).Msg("open output dir")
		return nil, err
	}

	cycle, err := s.Pipeline.Run(s.Ctx, src, board, "schedule")
	if idxErr := board.WriteIndex(entry.Name); idxErr != nil {
		logger.Error().Err(idxErr).Msg("write index")
	}
	if err != nil {
		s.trySend(notifier.FormatCycle(cycle, err))
	}
	return cycle, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	name, arg, _ := strings.Cut(command, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/chart":
		src, err := collector.ParseQuerySource(arg)
		if err != nil {
			return fmt.Sprintf("Bad query: %v", err)
		}
		cycle, err := s.Pipeline.Run(ctx, src, s.Board, "telegram")
		return notifier.FormatCycle(cycle, err)
	case "/watch":
		cycle, err := s.RunNow(arg)
		if cycle == nil {
			return fmt.Sprintf("Watch failed: %v", err)
		}
		return notifier.FormatCycle(cycle, err)
	case "/history":
		cycles, err := s.Recorder.RecentCycles(10)
		if err != nil {
			return fmt.Sprintf("History unavailable: %v", err)
		}
		return notifier.FormatHistory(cycles)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Logger.Error().Err(err).Msg("send notification")
	}
}
