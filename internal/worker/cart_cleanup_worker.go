package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// usecase.CartCleanerが満たす
type DueProcessor interface {
	ProcessDue(ctx context.Context, batchSize int) (int, error)
}

// CartCleanupWorker は注文後に残ったカート掃除マーカーを定期的に処理する
type CartCleanupWorker struct {
	cleaner   DueProcessor
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// DI
func NewCartCleanupWorker(cleaner DueProcessor, interval time.Duration, batchSize int, logger zerolog.Logger) *CartCleanupWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &CartCleanupWorker{
		cleaner:   cleaner,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With().Str("worker", "cart_cleanup").Logger(),
		done:      make(chan struct{}),
	}
}

// fxのOnStartから呼ぶ。ループは別goroutine
func (w *CartCleanupWorker) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go w.run(ctx)
	w.logger.Info().Dur("interval", w.interval).Msg("cart cleanup worker started")
	return nil
}

// ループの終了を待つ
func (w *CartCleanupWorker) Stop(ctx context.Context) error {
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
	})
	if w.cancel == nil {
		return nil
	}

	select {
	case <-w.done:
		w.logger.Info().Msg("cart cleanup worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *CartCleanupWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// バッチが埋まっている間は続けて処理する
func (w *CartCleanupWorker) tick(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.cleaner.ProcessDue(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("cart cleanup batch failed")
			}
			return
		}
		if n > 0 {
			w.logger.Debug().Int("cleaned", n).Msg("cart cleanup batch done")
		}
		if n < w.batchSize {
			return
		}
	}
}
