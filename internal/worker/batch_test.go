package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/urd/internal/model"
)

// mockRunner implements Runner
type mockRunner struct {
	failFor string
	calls   int32
}

func (m *mockRunner) Run(ctx context.Context, method string) (*model.Report, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(5 * time.Millisecond)
	if method == m.failFor {
		return nil, errors.New("run error")
	}
	return &model.Report{Method: method}, nil
}

func TestBatchProcessor_ProcessMethods(t *testing.T) {
	runner := &mockRunner{}
	processor := NewBatchProcessor(runner, 2)

	methods := []string{"gk", "gk-table", "a1b", "window", "reasenberg"}
	results := processor.ProcessMethods(context.Background(), methods)

	if len(results) != len(methods) {
		t.Fatalf("expected %d results, got %d", len(methods), len(results))
	}

	for i, res := range results {
		if res.Method != methods[i] {
			t.Errorf("result %d: expected method %s, got %s", i, methods[i], res.Method)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Method, res.Error)
			continue
		}
		if res.Report == nil || res.Report.Method != methods[i] {
			t.Errorf("expected report for %s", methods[i])
		}
	}
}

func TestBatchProcessor_ProcessMethods_Error(t *testing.T) {
	runner := &mockRunner{failFor: "a1b"}
	processor := NewBatchProcessor(runner, 2)

	results := processor.ProcessMethods(context.Background(), []string{"gk", "a1b"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Error != nil {
		t.Errorf("unexpected error for gk: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error for a1b")
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessMethods_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2)

	results := processor.ProcessMethods(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessMethods_Dedupe(t *testing.T) {
	runner := &mockRunner{}
	processor := NewBatchProcessor(runner, 3)

	results := processor.ProcessMethods(context.Background(), []string{"gk", "", "gk", "reasenberg"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if calls := atomic.LoadInt32(&runner.calls); calls != 2 {
		t.Errorf("expected 2 runs, got %d", calls)
	}
}

func TestBatchProcessor_ProcessMethods_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockRunner{}, 2)
	results := processor.ProcessMethods(ctx, []string{"gk", "reasenberg"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", res.Method, res.Error)
		}
	}
}

func TestMethodResult_GetError(t *testing.T) {
	r1 := &MethodResult{Method: "gk"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("run failed")
	r2 := &MethodResult{Method: "gk", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
