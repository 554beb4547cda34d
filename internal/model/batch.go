package model

// BatchStats aggregates confidence buckets over a batch response.
// Bucket thresholds live in the engine package so every consumer shares
// one definition.
type BatchStats struct {
	Total            int   `json:"total"`
	HighConfidence   int   `json:"high_confidence"`
	MediumConfidence int   `json:"medium_confidence"`
	LowConfidence    int   `json:"low_confidence"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// BatchResponse carries one result per input transaction, in input order,
// plus aggregate statistics.
type BatchResponse struct {
	Results []ClassificationResult `json:"results"`
	Stats   BatchStats             `json:"stats"`
}
