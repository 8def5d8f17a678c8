package relevance

import (
	"context"
	"errors"
	"testing"
)

type fakeJudge struct {
	verdicts []bool
	err      error
}

func (f *fakeJudge) Judge(ctx context.Context, query string, contents []string) ([]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.verdicts, nil
}

func TestFilter_Empty(t *testing.T) {
	f := New(&fakeJudge{})
	ids, err := f.Relevant(context.Background(), "q", nil, nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty result, got %v", ids)
	}
}

func TestFilter_ReturnsRelevantIDsInOrder(t *testing.T) {
	ids := []string{"a", "b", "c"}
	contents := []string{"ca", "cb", "cc"}
	f := New(&fakeJudge{verdicts: []bool{true, false, true}})

	result, err := f.Relevant(context.Background(), "q", ids, contents, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "c"}
	if len(result) != len(want) {
		t.Fatalf("got %v, want %v", result, want)
	}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, result[i], want[i])
		}
	}
}

func TestFilter_RespectsMaxChunks(t *testing.T) {
	ids := []string{"a", "b", "c"}
	contents := []string{"ca", "cb", "cc"}
	f := New(&fakeJudge{verdicts: []bool{true, true}})

	result, err := f.Relevant(context.Background(), "q", ids, contents, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected only the first 2 chunks judged, got %v", result)
	}
}

func TestFilter_JudgeFailureFailsOpen(t *testing.T) {
	ids := []string{"a", "b"}
	contents := []string{"ca", "cb"}
	f := New(&fakeJudge{err: errors.New("llm unavailable")})

	result, err := f.Relevant(context.Background(), "q", ids, contents, 10)
	if err == nil {
		t.Fatal("expected a JudgeError")
	}
	if len(result) != 2 {
		t.Errorf("expected fail-open mask covering both chunks, got %v", result)
	}
}

func TestFilter_DedupsRepeatedIDs(t *testing.T) {
	ids := []string{"a", "a", "b"}
	contents := []string{"ca1", "ca2", "cb"}
	f := New(&fakeJudge{verdicts: []bool{true, true, true}})

	result, err := f.Relevant(context.Background(), "q", ids, contents, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected duplicate IDs collapsed, got %v", result)
	}
}
