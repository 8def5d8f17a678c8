package retrievalmetrics

import (
	"testing"
	"time"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/utils"
)

func TestNew_DisabledConfigReturnsNil(t *testing.T) {
	m, err := New(&Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Error("expected nil Metrics for disabled config")
	}
}

func TestNew_NilConfigReturnsNil(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Error("expected nil Metrics for nil config")
	}
}

func TestNilMetrics_RecordMethodsAreNoOps(t *testing.T) {
	var m *Metrics
	// None of these should panic on a nil receiver.
	m.RecordRetrieval(chunk.Semantic, time.Millisecond, 5, nil)
	m.RecordRerank(time.Millisecond, nil, nil, nil)
	m.RecordFilter(5, 3, nil)
	m.RecordPartialFailure(chunk.PartialFailure{Stage: "rerank", Reason: "test"})
}

func TestNew_EnabledConfigCollects(t *testing.T) {
	m, err := New(&Config{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil Metrics for enabled config")
	}
	m.RecordRetrieval(chunk.Hybrid, 10*time.Millisecond, 3, nil)
	m.RecordRerank(5*time.Millisecond, nil, [][]float64{{0.1, 0.5, 0.9}}, nil)
}

func TestNewChunkMetric_TruncatesContent(t *testing.T) {
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := &chunk.InferenceChunk{
		DocumentID: "doc1",
		ChunkID:    2,
		Content:    "this is a somewhat long passage used to exercise truncation",
	}
	c.SetScore(0.42)

	metric := NewChunkMetric(c, counter, 3)
	if counter.Count(metric.Content) > 3 {
		t.Errorf("expected content truncated to 3 tokens, got %q", metric.Content)
	}
	if metric.Score != 0.42 {
		t.Errorf("Score = %v, want 0.42", metric.Score)
	}
}

func TestNewChunkMetric_NilCounterLeavesContentUntruncated(t *testing.T) {
	c := &chunk.InferenceChunk{DocumentID: "doc1", Content: "untouched content"}
	metric := NewChunkMetric(c, nil, 3)
	if metric.Content != "untouched content" {
		t.Errorf("expected untruncated content with nil counter, got %q", metric.Content)
	}
}

func TestChunkMetricsFrom_MapsEveryChunk(t *testing.T) {
	chunks := []*chunk.InferenceChunk{
		{DocumentID: "doc1", Content: "a"},
		{DocumentID: "doc2", Content: "b"},
	}
	metrics := ChunkMetricsFrom(chunks, nil, 10)
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	if metrics[0].DocumentID != "doc1" || metrics[1].DocumentID != "doc2" {
		t.Errorf("expected metrics in input order, got %+v", metrics)
	}
}
