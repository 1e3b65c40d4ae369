package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/billleddy/finapp/internal/common"
)

// Scheduler regenerates decks for the configured tickers on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	app     *App
	tickers []string
	logger  *common.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// ScheduledTickers returns the tickers a scheduled run covers:
// schedule.tickers, or every configured company when that is empty.
func (a *App) ScheduledTickers() []string {
	if len(a.Config.Schedule.Tickers) > 0 {
		return a.Config.Schedule.Tickers
	}
	tickers := make([]string, 0, len(a.Config.Companies))
	for _, c := range a.Config.Companies {
		tickers = append(tickers, c.Ticker)
	}
	return tickers
}

// StartScheduler registers the deck job and starts the cron loop.
func (a *App) StartScheduler(ctx context.Context) (*Scheduler, error) {
	tickers := a.ScheduledTickers()
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers to schedule: set schedule.tickers or [[companies]]")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		app:     a,
		tickers: tickers,
		logger:  a.Logger,
		ctx:     schedCtx,
		cancel:  cancel,
	}
	if _, err := s.cron.AddFunc(a.Config.Schedule.Cron, s.RunNow); err != nil {
		cancel()
		return nil, fmt.Errorf("register deck job %q: %w", a.Config.Schedule.Cron, err)
	}

	s.cron.Start()
	a.scheduler = s
	a.Logger.Info().
		Str("cron", a.Config.Schedule.Cron).
		Strs("tickers", tickers).
		Msg("Deck scheduler: started")
	return s, nil
}

// RunNow generates every scheduled deck immediately, one ticker at a time.
func (s *Scheduler) RunNow() {
	start := time.Now()
	failed := 0
	for _, ticker := range s.tickers {
		if s.ctx.Err() != nil {
			s.logger.Info().Msg("Deck scheduler: run cancelled")
			return
		}
		report, err := s.app.Generate(s.ctx, ticker, GenerateOptions{})
		if err != nil {
			failed++
			s.logger.Error().Str("ticker", ticker).Err(err).Msg("Deck scheduler: generation failed")
			continue
		}
		s.logger.Info().
			Str("ticker", ticker).
			Str("run_id", report.RunID).
			Str("status", report.Status()).
			Msg("Deck scheduler: deck generated")
	}

	s.logger.Info().
		Int("tickers", len(s.tickers)).
		Int("failed", failed).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("Deck scheduler: run complete")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Deck scheduler: stopped")
}
