package worker

import (
	"context"
	"sync"
	"time"

	"github.com/joacominatel/pulsefeed/internal/application"
	"github.com/joacominatel/pulsefeed/internal/domain"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
)

// MetricsRecorder abstracts prometheus metrics for the ingestion worker.
// keeps worker decoupled from metrics package.
type MetricsRecorder interface {
	RecordInteractionIngested(kind string)
	RecordIngestionFailure(count int)
	SetBufferSize(size int)
	RecordFlush(duration time.Duration)
}

// flushTimeout bounds a flush that runs after the worker context is gone.
const flushTimeout = 10 * time.Second

// IngestionConfig holds configuration for the ingestion worker.
type IngestionConfig struct {
	// BufferSize is the size of the interaction channel buffer.
	// a full buffer makes Enqueue fail instead of block.
	BufferSize int

	// BatchSize is the number of interactions to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time to wait before flushing a partial batch.
	FlushInterval time.Duration

	// WorkerCount is the number of concurrent workers writing batches.
	WorkerCount int
}

// DefaultIngestionConfig returns sensible defaults for the worker.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		BufferSize:    10000,
		BatchSize:     100,
		FlushInterval: 500 * time.Millisecond,
		WorkerCount:   4,
	}
}

// IngestionWorker persists interactions from a buffered channel.
// each batch is written and applied to post counters in one transaction,
// then added to the trending board.
// implements application.InteractionQueue.
type IngestionWorker struct {
	queue   chan *domain.Interaction
	repo    domain.InteractionRepository
	uow     application.UnitOfWork
	board   domain.TrendingBoard
	config  IngestionConfig
	logger  *logging.Logger
	metrics MetricsRecorder

	// mu guards closed so Enqueue never sends on a closed channel
	mu     sync.RWMutex
	closed bool

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewIngestionWorker creates a new interaction ingestion worker.
func NewIngestionWorker(
	repo domain.InteractionRepository,
	uow application.UnitOfWork,
	config IngestionConfig,
	logger *logging.Logger,
) *IngestionWorker {
	if config.BufferSize < 1 {
		config.BufferSize = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultIngestionConfig().FlushInterval
	}

	return &IngestionWorker{
		queue:   make(chan *domain.Interaction, config.BufferSize),
		repo:    repo,
		uow:     uow,
		config:  config,
		logger:  logger.WithComponent("ingestion_worker"),
		stopped: make(chan struct{}),
	}
}

// WithMetrics sets the metrics recorder for observability.
func (w *IngestionWorker) WithMetrics(m MetricsRecorder) *IngestionWorker {
	w.metrics = m
	return w
}

// WithTrendingBoard sets the board that receives trending deltas.
// without one, interactions only update post counters.
func (w *IngestionWorker) WithTrendingBoard(b domain.TrendingBoard) *IngestionWorker {
	w.board = b
	return w
}

// Enqueue hands an interaction to the workers without blocking.
func (w *IngestionWorker) Enqueue(i *domain.Interaction) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return application.ErrIngestionBacklog
	}

	select {
	case w.queue <- i:
		if w.metrics != nil {
			w.metrics.SetBufferSize(len(w.queue))
		}
		return nil
	default:
		w.logger.Warn("ingestion buffer full, rejecting interaction",
			"buffer_size", w.config.BufferSize,
		)
		return application.ErrIngestionBacklog
	}
}

// Start begins the worker goroutines.
// call this before accepting interactions.
func (w *IngestionWorker) Start(ctx context.Context) {
	w.logger.Info("ingestion worker starting",
		"buffer_size", w.config.BufferSize,
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval.String(),
		"worker_count", w.config.WorkerCount,
	)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
}

// Stop gracefully shuts down the worker, draining remaining interactions.
func (w *IngestionWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("ingestion worker stopping, draining buffer...")

		// close the channel to signal workers to drain and exit
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()

		// wait for all workers to finish
		w.wg.Wait()

		close(w.stopped)
		w.logger.Info("ingestion worker stopped")
	})
}

// Stopped returns a channel that closes when the worker has fully stopped.
func (w *IngestionWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// QueueSize returns the current number of interactions waiting in the buffer.
func (w *IngestionWorker) QueueSize() int {
	return len(w.queue)
}

// runWorker is the main worker loop.
func (w *IngestionWorker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	batch := make([]*domain.Interaction, 0, w.config.BatchSize)
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		w.flushBatch(ctx, batch, workerID)
		batch = batch[:0] // reset slice, keep capacity
	}

	// final flush outlives ctx so the batch in hand is still written
	finalFlush := func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
		flush(fctx)
	}

	for {
		select {
		case i, ok := <-w.queue:
			if !ok {
				// channel closed, flush remaining and exit
				finalFlush()
				w.logger.Debug("worker exiting after drain", "worker_id", workerID)
				return
			}

			batch = append(batch, i)
			if len(batch) >= w.config.BatchSize {
				flush(ctx)
			}

		case <-ticker.C:
			// flush partial batch on timeout
			flush(ctx)

		case <-ctx.Done():
			finalFlush()
			w.logger.Debug("worker exiting on context cancel", "worker_id", workerID)
			return
		}
	}
}

// flushBatch persists a batch and updates the post counters atomically.
func (w *IngestionWorker) flushBatch(ctx context.Context, batch []*domain.Interaction, workerID int) {
	start := time.Now()

	var written int64
	err := application.RunInTransaction(ctx, w.uow, func(txCtx context.Context) error {
		n, err := w.repo.SaveBatch(txCtx, batch)
		if err != nil {
			return err
		}
		written = n
		return w.repo.ApplyEngagement(txCtx, domain.TallyEngagement(batch))
	})
	duration := time.Since(start)

	if w.metrics != nil {
		w.metrics.RecordFlush(duration)
		w.metrics.SetBufferSize(len(w.queue))
	}

	if err != nil {
		w.logger.Error("batch save failed",
			"worker_id", workerID,
			"batch_size", len(batch),
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		if w.metrics != nil {
			w.metrics.RecordIngestionFailure(len(batch))
		}
		return
	}

	if w.metrics != nil {
		for _, i := range batch {
			w.metrics.RecordInteractionIngested(i.Kind().String())
		}
	}

	// the board is derived data, a failed update only costs trending accuracy
	if w.board != nil {
		if err := w.board.Increment(ctx, domain.TallyTrending(batch)); err != nil {
			w.logger.Warn("trending board update failed",
				"worker_id", workerID,
				"error", err.Error(),
			)
		}
	}

	w.logger.Debug("batch flushed",
		"worker_id", workerID,
		"batch_size", len(batch),
		"written", written,
		"duration_ms", duration.Milliseconds(),
	)
}

// IngestionStats holds current worker statistics.
type IngestionStats struct {
	QueueSize   int
	BufferSize  int
	WorkerCount int
}

// Stats returns current worker statistics.
func (w *IngestionWorker) Stats() IngestionStats {
	return IngestionStats{
		QueueSize:   len(w.queue),
		BufferSize:  w.config.BufferSize,
		WorkerCount: w.config.WorkerCount,
	}
}
