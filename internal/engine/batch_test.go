package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
)

func makeBatch(n int) []model.Transaction {
	txns := make([]model.Transaction, n)
	for i := range txns {
		switch i % 3 {
		case 0:
			txns[i] = model.Transaction{Description: fmt.Sprintf("SUPERMERCADO PAO DE ACUCAR %d", 10000+i), Type: model.TypeExpense}
		case 1:
			txns[i] = model.Transaction{Description: fmt.Sprintf("LANCHONETE DO ZE PEDIDO %d", 10000+i), Type: model.TypeExpense}
		default:
			txns[i] = model.Transaction{Description: fmt.Sprintf("DESCONHECIDO XQZ%d", i%7), Type: model.TypeExpense}
		}
	}
	return txns
}

func TestClassifyBatch_Empty(t *testing.T) {
	eng, patterns := newTestEngine(t)

	response, err := eng.ClassifyBatch(context.Background(), nil, "user-1", "")
	require.NoError(t, err)

	assert.Empty(t, response.Results)
	assert.Equal(t, model.BatchStats{}, response.Stats)

	// No store access may happen for an empty batch.
	assert.Zero(t, patterns.CallCount("FindLearnedPattern"))
}

func TestClassifyBatch_OrderPreservation(t *testing.T) {
	dict := testDictionary(t)
	eng := NewWithConfig(NewMockPatternStore(), dict, Config{
		BatchSize:           100,
		MaxConcurrentChunks: 3,
	})

	txns := makeBatch(250)

	response, err := eng.ClassifyBatch(context.Background(), txns, "user-1", "")
	require.NoError(t, err)
	require.Len(t, response.Results, 250)

	for i, r := range response.Results {
		assert.Equal(t, txns[i].Description, r.Description, "result %d out of order", i)
	}
}

func TestClassifyBatch_OrderPreservedAcrossChunkSizes(t *testing.T) {
	dict := testDictionary(t)
	txns := makeBatch(41)

	for _, batchSize := range []int{1, 7, 41, 100} {
		eng := NewWithConfig(NewMockPatternStore(), dict, Config{BatchSize: batchSize})

		response, err := eng.ClassifyBatch(context.Background(), txns, "user-1", "")
		require.NoError(t, err, "batchSize=%d", batchSize)
		require.Len(t, response.Results, len(txns))

		for i, r := range response.Results {
			require.Equal(t, txns[i].Description, r.Description, "batchSize=%d result %d", batchSize, i)
		}
	}
}

func TestClassifyBatch_StatsPartition(t *testing.T) {
	eng, _ := newTestEngine(t)
	txns := makeBatch(90)

	response, err := eng.ClassifyBatch(context.Background(), txns, "user-1", "")
	require.NoError(t, err)

	stats := response.Stats
	assert.Equal(t, len(txns), stats.Total)
	assert.Equal(t, stats.Total, stats.HighConfidence+stats.MediumConfidence+stats.LowConfidence)

	// The synthetic batch mixes all three buckets: merchants at 90, keyword
	// hits at 70, unknowns at 0.
	assert.Equal(t, 30, stats.HighConfidence)
	assert.Equal(t, 30, stats.MediumConfidence)
	assert.Equal(t, 30, stats.LowConfidence)
}

func TestClassifyBatch_ChunkFailureFailsWholeBatch(t *testing.T) {
	dict := testDictionary(t)
	eng := NewWithConfig(NewMockPatternStore(), dict, Config{BatchSize: 100})

	txns := makeBatch(250)
	txns[237].Description = "   " // malformed: empty after trimming

	_, err := eng.ClassifyBatch(context.Background(), txns, "user-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBatchFailed)
	assert.ErrorIs(t, err, model.ErrMissingDescription)
}

func TestClassifyBatch_ProgressCallback(t *testing.T) {
	dict := testDictionary(t)
	eng := NewWithConfig(NewMockPatternStore(), dict, Config{
		BatchSize:           100,
		MaxConcurrentChunks: 3,
	})

	var mu sync.Mutex
	var totals []int
	progress := func(_, total int) {
		mu.Lock()
		defer mu.Unlock()
		totals = append(totals, total)
	}

	// 250 transactions with batchSize 100 means 3 chunks (100, 100, 50).
	_, err := eng.ClassifyBatchWithProgress(context.Background(), makeBatch(250), "user-1", "", progress)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, totals, 3)
	for _, total := range totals {
		assert.Equal(t, 3, total)
	}
}

func TestClassifyBatch_SingleChunkInline(t *testing.T) {
	eng, _ := newTestEngine(t)

	calls := 0
	progress := func(completed, total int) {
		calls++
		assert.Equal(t, 1, completed)
		assert.Equal(t, 1, total)
	}

	response, err := eng.ClassifyBatchWithProgress(context.Background(), makeBatch(5), "user-1", "", progress)
	require.NoError(t, err)
	assert.Len(t, response.Results, 5)
	assert.Equal(t, 1, calls)
}

func TestClassifyBatch_ContextCancellation(t *testing.T) {
	eng, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.ClassifyBatch(ctx, makeBatch(10), "user-1", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkBounds(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []chunkRange
	}{
		{
			name: "exact multiple",
			n:    200,
			size: 100,
			want: []chunkRange{{0, 100}, {100, 200}},
		},
		{
			name: "remainder chunk",
			n:    250,
			size: 100,
			want: []chunkRange{{0, 100}, {100, 200}, {200, 250}},
		},
		{
			name: "single chunk",
			n:    50,
			size: 100,
			want: []chunkRange{{0, 50}},
		},
		{
			name: "empty",
			n:    0,
			size: 100,
			want: []chunkRange{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkBounds(tt.n, tt.size))
		})
	}
}

func TestComputeStats_Thresholds(t *testing.T) {
	results := []model.ClassificationResult{
		{Confidence: 100},
		{Confidence: HighConfidenceMin},
		{Confidence: HighConfidenceMin - 1},
		{Confidence: MediumConfidenceMin},
		{Confidence: MediumConfidenceMin - 1},
		{Confidence: 0},
	}

	stats := computeStats(results, 42)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.HighConfidence)
	assert.Equal(t, 2, stats.MediumConfidence)
	assert.Equal(t, 2, stats.LowConfidence)
	assert.Equal(t, int64(42), stats.ProcessingTimeMs)
}
