package worker

import (
	"context"
	"sync"
	"time"

	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
)

// Decayer is a trending board whose scores can be scaled down.
type Decayer interface {
	Decay(ctx context.Context, factor float64) error
}

// TrendingDecayWorker periodically decays the trending board so it
// reflects recent activity rather than all-time totals.
type TrendingDecayWorker struct {
	board    Decayer
	interval time.Duration
	factor   float64
	logger   *logging.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// NewTrendingDecayWorker creates a decay worker.
func NewTrendingDecayWorker(board Decayer, interval time.Duration, factor float64, logger *logging.Logger) *TrendingDecayWorker {
	return &TrendingDecayWorker{
		board:    board,
		interval: interval,
		factor:   factor,
		logger:   logger.WithComponent("trending_decay_worker"),
		done:     make(chan struct{}),
	}
}

// Start runs the decay loop until ctx is cancelled or Stop is called.
func (w *TrendingDecayWorker) Start(ctx context.Context) {
	w.logger.Info("trending decay worker starting",
		"interval", w.interval.String(),
		"factor", w.factor,
	)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.board.Decay(ctx, w.factor); err != nil {
					w.logger.Error("trending decay failed", "error", err.Error())
				}
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for it to exit.
func (w *TrendingDecayWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		w.logger.Info("trending decay worker stopped")
	})
}
