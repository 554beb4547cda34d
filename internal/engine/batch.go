package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
)

// ProgressFunc is invoked after each chunk completes. It may be called from
// multiple goroutines.
type ProgressFunc func(completedChunks, totalChunks int)

// ClassifyBatch classifies a list of transactions, preserving input order in
// the results.
//
// Batches larger than the configured chunk size are partitioned into ordered
// chunks processed with bounded concurrency; chunks are reassembled by index
// so the output order always matches the input order exactly. A failure in
// any chunk fails the whole call: there is no partial-success contract at
// this level, so one malformed transaction aborts the batch. Callers needing
// partial-failure tolerance must dispatch chunks themselves.
func (e *ClassificationEngine) ClassifyBatch(ctx context.Context, txns []model.Transaction, userID, userLocation string) (*model.BatchResponse, error) {
	return e.ClassifyBatchWithProgress(ctx, txns, userID, userLocation, nil)
}

// ClassifyBatchWithProgress is ClassifyBatch with a per-chunk completion
// callback so callers can drive progress reporting.
func (e *ClassificationEngine) ClassifyBatchWithProgress(ctx context.Context, txns []model.Transaction, userID, userLocation string, progress ProgressFunc) (*model.BatchResponse, error) {
	if len(txns) == 0 {
		return &model.BatchResponse{Results: []model.ClassificationResult{}}, nil
	}

	results := make([]model.ClassificationResult, len(txns))
	chunks := chunkBounds(len(txns), e.config.BatchSize)

	var elapsedMs int64
	var completed int64

	if len(chunks) == 1 {
		ms, err := e.classifyChunk(ctx, txns, results, 0, userID, userLocation)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrBatchFailed, err)
		}
		elapsedMs = ms
		if progress != nil {
			progress(1, 1)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.config.MaxConcurrentChunks)

		for _, bounds := range chunks {
			bounds := bounds
			g.Go(func() error {
				ms, err := e.classifyChunk(gctx, txns[bounds.start:bounds.end], results, bounds.start, userID, userLocation)
				if err != nil {
					return fmt.Errorf("%w: chunk [%d:%d): %w", common.ErrBatchFailed, bounds.start, bounds.end, err)
				}
				atomic.AddInt64(&elapsedMs, ms)
				if progress != nil {
					progress(int(atomic.AddInt64(&completed, 1)), len(chunks))
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return &model.BatchResponse{
		Results: results,
		Stats:   computeStats(results, elapsedMs),
	}, nil
}

// classifyChunk classifies one chunk sequentially, writing each result at
// its original input offset, and returns the chunk's processing time in
// milliseconds.
func (e *ClassificationEngine) classifyChunk(ctx context.Context, chunk []model.Transaction, results []model.ClassificationResult, offset int, userID, userLocation string) (int64, error) {
	start := time.Now()

	for i, txn := range chunk {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		result, err := e.Classify(ctx, txn, userID, userLocation)
		if err != nil {
			return 0, fmt.Errorf("transaction %d: %w", offset+i, err)
		}
		results[offset+i] = result
	}

	return time.Since(start).Milliseconds(), nil
}

// computeStats buckets results by the engine confidence thresholds. The
// buckets partition the results exhaustively and disjointly.
func computeStats(results []model.ClassificationResult, elapsedMs int64) model.BatchStats {
	stats := model.BatchStats{
		Total:            len(results),
		ProcessingTimeMs: elapsedMs,
	}

	for _, r := range results {
		switch {
		case r.Confidence >= HighConfidenceMin:
			stats.HighConfidence++
		case r.Confidence >= MediumConfidenceMin:
			stats.MediumConfidence++
		default:
			stats.LowConfidence++
		}
	}

	return stats
}

type chunkRange struct {
	start, end int
}

// chunkBounds partitions n items into ordered ranges of at most size each.
func chunkBounds(n, size int) []chunkRange {
	if size < 1 {
		size = 1
	}

	chunks := make([]chunkRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, chunkRange{start: start, end: end})
	}
	return chunks
}
