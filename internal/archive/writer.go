package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/probablyprofit/dashsync/internal/history"
	"github.com/probablyprofit/dashsync/internal/metrics"
)

// DefaultBatchSize is the number of rows sent per batch.
const DefaultBatchSize = 500

const insertSQL = `
	INSERT INTO trades (trade_id, ts, market_id, market_name, side, outcome, size, price, realized_pnl)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (trade_id) DO NOTHING
`

// Result counts the outcome of one Write.
type Result struct {
	Inserted  int
	Conflicts int
	Skipped   int // records without an id
}

// Stats accumulates results across writes.
type Stats struct {
	Inserts   int64
	Conflicts int64
	Batches   int64
	Errors    int64
}

// Writer inserts trade records in batches.
type Writer struct {
	db        DB
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	stats Stats
}

// NewWriter creates a Writer. batchSize <= 0 selects DefaultBatchSize.
func NewWriter(db DB, batchSize int, logger *slog.Logger, m *metrics.Metrics) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
		metrics:   m,
	}
}

// Write archives records. Batches already sent stay written when a later
// batch fails.
func (w *Writer) Write(ctx context.Context, records []history.TradeRecord) (Result, error) {
	var res Result

	rows := make([]history.TradeRecord, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			res.Skipped++
			continue
		}
		rows = append(rows, r)
	}

	for start := 0; start < len(rows); start += w.batchSize {
		end := min(start+w.batchSize, len(rows))
		chunk := rows[start:end]

		began := time.Now()
		conflicts, err := w.batchInsert(ctx, chunk)
		if err != nil {
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.Error("batch insert failed", "error", err, "count", len(chunk))
			return res, fmt.Errorf("archive trades: %w", err)
		}

		inserted := len(chunk) - conflicts
		res.Inserted += inserted
		res.Conflicts += conflicts

		w.mu.Lock()
		w.stats.Inserts += int64(inserted)
		w.stats.Conflicts += int64(conflicts)
		w.stats.Batches++
		w.mu.Unlock()
		w.metrics.ObserveArchive(inserted, conflicts)

		w.logger.Debug("archived trades",
			"count", len(chunk),
			"conflicts", conflicts,
			"duration", time.Since(began),
		)
	}

	return res, nil
}

// Stats returns accumulated counts.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(ctx context.Context, rows []history.TradeRecord) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		var ts *time.Time
		if !r.Timestamp.IsZero() {
			t := r.Timestamp.UTC()
			ts = &t
		}
		batch.Queue(insertSQL, r.ID, ts, r.MarketID, r.MarketName, r.Side, r.Outcome, r.Size, r.Price, r.RealizedPnL)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
