// Package pipeline runs one chart update cycle: collect the trade inputs,
// then fetch and render the daily, weekly, monthly and comparison charts in
// that order. The first failure aborts the rest of the cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"TradeLens/internal/collector"
	"TradeLens/internal/fetcher"
	"TradeLens/internal/logging"
	"TradeLens/internal/model"
	"TradeLens/internal/recorder"
	"TradeLens/internal/render"
)

// Pipeline wires the collector, fetcher and renderer together.
type Pipeline struct {
	Collector *collector.Collector
	Fetcher   fetcher.Fetcher
	Renderer  *render.Renderer
	Recorder  recorder.Recorder
	Logger    zerolog.Logger
}

// New creates a Pipeline. A nil recorder records nothing.
func New(col *collector.Collector, f fetcher.Fetcher, r *render.Renderer, rec recorder.Recorder, logger zerolog.Logger) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{Collector: col, Fetcher: f, Renderer: r, Recorder: rec, Logger: logger}
}

// Cycle is the outcome of one Run.
type Cycle struct {
	ID      string
	Inputs  model.Inputs
	Targets []model.Target
	// Rendered lists the containers updated before the cycle ended.
	Rendered []string
}

// StepError reports which container a cycle failed on.
type StepError struct {
	Container string
	Query     string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Container, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run executes one cycle. Each chart is fetched and rendered before the next
// is requested. On failure the charts not yet reached keep their previous
// content and the error is returned with the partial cycle.
func (p *Pipeline) Run(ctx context.Context, src collector.Source, board render.Board, trigger string) (*Cycle, error) {
	cycle := &Cycle{ID: uuid.NewString()}
	logger := logging.WithCycle(p.Logger, cycle.ID).With().
		Str("source", src.Name()).
		Str("trigger", trigger).
		Logger()

	rec := &recorder.CycleRecord{
		ID:        cycle.ID,
		Source:    src.Name(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}

	err := p.run(ctx, src, board, cycle, rec, logger)

	rec.FinishedAt = time.Now()
	rec.Symbol = cycle.Inputs.Symbol
	if err != nil {
		rec.Status = recorder.StatusFailed
		rec.Error = err.Error()
		logger.Error().Err(err).Strs("rendered", cycle.Rendered).Msg("update cycle aborted")
	} else {
		rec.Status = recorder.StatusOK
		logger.Info().
			Str("symbol", cycle.Inputs.Symbol).
			Dur("elapsed", rec.FinishedAt.Sub(rec.StartedAt)).
			Msg("update cycle complete")
	}
	if recErr := p.Recorder.RecordCycle(rec); recErr != nil {
		logger.Warn().Err(recErr).Msg("record cycle failed")
	}
	return cycle, err
}

func (p *Pipeline) run(ctx context.Context, src collector.Source, board render.Board, cycle *Cycle, rec *recorder.CycleRecord, logger zerolog.Logger) error {
	in, err := src.Inputs()
	if err != nil {
		return fmt.Errorf("%s source: %w", src.Name(), err)
	}
	cycle.Inputs = in

	targets, err := p.Collector.Targets(in)
	if err != nil {
		return err
	}
	cycle.Targets = targets
	logger = logging.WithSymbol(logger, targets[0].Request.Symbol)

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return &StepError{Container: t.Container, Query: t.Query, Err: err}
		}

		start := time.Now()
		resp, err := p.Fetcher.FetchChart(ctx, t.Query)
		logging.LogFetch(logger, t.Container, t.Query, time.Since(start), err)
		if err != nil {
			return &StepError{Container: t.Container, Query: t.Query, Err: err}
		}

		c, err := board.Container(t.Container)
		if err != nil {
			return &StepError{Container: t.Container, Query: t.Query, Err: err}
		}
		opts, err := p.Renderer.Render(c, resp)
		if err != nil {
			return &StepError{Container: t.Container, Query: t.Query, Err: err}
		}

		cycle.Rendered = append(cycle.Rendered, t.Container)
		rec.Charts = append(rec.Charts, recorder.ChartRecord{
			Container: t.Container,
			Symbol:    t.Request.Symbol,
			TimeFrame: string(t.Request.TimeFrame),
			Query:     t.Query,
			Candles:   len(opts.Series[0].Data),
			Points:    len(opts.Annotations.Points),
			Ranges:    len(opts.Annotations.XAxis),
		})
	}
	return nil
}
