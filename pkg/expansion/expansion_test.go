package expansion

import (
	"context"
	"errors"
	"testing"
)

type fakeRephraser struct {
	rephrased []string
	err       error
}

func (f *fakeRephraser) Rephrase(ctx context.Context, query string, count int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rephrased, nil
}

func TestExpand_NilRephraserReturnsOriginalOnly(t *testing.T) {
	e := New(nil)
	result, err := e.Expand(context.Background(), "hello world", 3, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0] != "hello world" {
		t.Errorf("got %v, want [\"hello world\"]", result)
	}
}

func TestExpand_OriginalAlwaysFirst(t *testing.T) {
	e := New(&fakeRephraser{rephrased: []string{"greet the world", "say hi"}})
	result, err := e.Expand(context.Background(), "hello world", 3, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result[0] != "hello world" {
		t.Errorf("expected original query first, got %q", result[0])
	}
	if len(result) != 3 {
		t.Errorf("expected 3 distinct queries, got %v", result)
	}
}

func TestExpand_DedupsCanonicallyEquivalentRephrases(t *testing.T) {
	e := New(&fakeRephraser{rephrased: []string{"Hello, World!", "hello world"}})
	result, err := e.Expand(context.Background(), "hello world", 3, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected rephrases canonically equal to the original to be dropped, got %v", result)
	}
}

func TestExpand_MultiLineQueryNeverExpanded(t *testing.T) {
	e := New(&fakeRephraser{rephrased: []string{"should not appear"}})
	query := "line one\nline two"
	result, err := e.Expand(context.Background(), query, 3, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0] != query {
		t.Errorf("expected multi-line query to pass through unexpanded, got %v", result)
	}
}

func TestExpand_RephraserFailureFallsBackToOriginal(t *testing.T) {
	e := New(&fakeRephraser{err: errors.New("llm unavailable")})
	result, err := e.Expand(context.Background(), "hello world", 3, true)
	if err == nil {
		t.Fatal("expected an ExpansionError")
	}
	if len(result) != 1 || result[0] != "hello world" {
		t.Errorf("expected fallback to original query, got %v", result)
	}
}

func TestExpand_DisabledMultilingualExpansionNeverCallsRephraser(t *testing.T) {
	e := New(&fakeRephraser{err: errors.New("should not be called")})
	result, err := e.Expand(context.Background(), "hello world", 3, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("got %v, want single-element result", result)
	}
}

func TestExpand_CountOneNeverCallsRephraser(t *testing.T) {
	e := New(&fakeRephraser{err: errors.New("should not be called")})
	result, err := e.Expand(context.Background(), "hello world", 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("got %v, want single-element result", result)
	}
}
