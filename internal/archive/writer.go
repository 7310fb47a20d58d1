package archive

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweeplive/leaderboard-stream/internal/leaderboard"
)

// Writer batches archived events into the leaderboard_events table.
type Writer struct {
	cfg    Config
	logger *slog.Logger

	db *pgxpool.Pool

	input chan eventRow
	unsub []func()

	// Batching
	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewWriter creates an archive writer. A nil pool is allowed for
// transform-level testing; flushes then drop their rows.
func NewWriter(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan eventRow, cfg.BufferSize),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Attach subscribes the writer to a service's event stream. Call
// before Start; Stop removes the subscriptions.
func (w *Writer) Attach(svc *leaderboard.Service) {
	w.unsub = append(w.unsub,
		svc.OnLeaderboardUpdate(func(u leaderboard.Update) {
			w.enqueue(w.transformUpdate(u))
		}),
		svc.OnNewSolve(func(raw json.RawMessage) {
			w.enqueue(w.transformSolve(raw))
		}),
	)
}

// Start begins consuming and flushing.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop unsubscribes, drains, and flushes the remainder.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

	for _, u := range w.unsub {
		u()
	}
	w.unsub = nil

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("archive writer stopped")
	case <-ctx.Done():
		w.logger.Warn("archive writer stop timed out")
	}

	w.drain()
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// enqueue hands a row to the consume loop without ever blocking the
// event delivery goroutine.
func (w *Writer) enqueue(row eventRow) {
	select {
	case w.input <- row:
	default:
		w.batchMu.Lock()
		w.metrics.RowsDropped++
		w.batchMu.Unlock()
		w.logger.Warn("archive buffer full, dropping row", "kind", row.Kind)
	}
}

func (w *Writer) transformUpdate(u leaderboard.Update) eventRow {
	payload, err := json.Marshal(u)
	if err != nil {
		payload = []byte("null")
	}
	return eventRow{
		Kind:       KindLeaderboardUpdate,
		Difficulty: u.Difficulty,
		EntryCount: len(u.Data),
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
}

func (w *Writer) transformSolve(raw json.RawMessage) eventRow {
	payload := []byte("null")
	if len(raw) > 0 {
		payload = raw
	}
	return eventRow{
		Kind:       KindNewSolve,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
}

// consumeLoop accumulates rows and flushes full batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case row := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, row)
			full := len(w.batch) >= w.cfg.BatchSize
			w.batchMu.Unlock()

			if full {
				w.flush()
			}
		}
	}
}

// flushLoop flushes partial batches on the ticker.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// drain moves any rows still in the input channel into the batch.
func (w *Writer) drain() {
	for {
		select {
		case row := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, row)
			w.batchMu.Unlock()
		default:
			return
		}
	}
}

// flush writes the current batch via CopyFrom.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	rows := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	if w.db == nil {
		w.batchMu.Lock()
		w.metrics.RowsDropped += int64(len(rows))
		w.batchMu.Unlock()
		w.logger.Warn("no database, dropping batch", "rows", len(rows))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.Kind, r.Difficulty, r.EntryCount, r.Payload, r.ReceivedAt}
	}

	n, err := w.db.CopyFrom(
		ctx,
		pgx.Identifier{"leaderboard_events"},
		[]string{"kind", "difficulty", "entry_count", "payload", "received_at"},
		pgx.CopyFromRows(src),
	)

	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	if err != nil {
		w.metrics.WriteErrors++
		w.metrics.RowsDropped += int64(len(rows))
		w.logger.Error("archive flush failed", "rows", len(rows), "error", err)
		return
	}

	w.metrics.RowsWritten += n
	w.metrics.BatchesWritten++
	w.logger.Debug("archive batch written", "rows", n)
}
