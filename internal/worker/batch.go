package worker

import (
	"context"

	"github.com/ppiankov/urd/internal/model"
)

// Runner declusters a loaded catalog with one method
type Runner interface {
	Run(ctx context.Context, method string) (*model.Report, error)
}

// MethodJob runs a single method
type MethodJob struct {
	Method string
	Runner Runner
}

// Execute runs the method, honouring cancellation before it starts
func (j *MethodJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &MethodResult{Method: j.Method, Error: err}
	}
	report, err := j.Runner.Run(ctx, j.Method)
	return &MethodResult{Method: j.Method, Report: report, Error: err}
}

// MethodResult is the outcome of a MethodJob
type MethodResult struct {
	Method string
	Report *model.Report
	Error  error
}

// GetError returns the error from the run
func (r *MethodResult) GetError() error {
	return r.Error
}

// BatchProcessor runs several methods over the same catalog concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessMethods runs every method and returns one result per method, in
// the order given. Duplicate names are run once.
func (b *BatchProcessor) ProcessMethods(ctx context.Context, methods []string) []*MethodResult {
	methods = dedupe(methods)
	if len(methods) == 0 {
		return []*MethodResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	for _, m := range methods {
		if !pool.Submit(&MethodJob{Method: m, Runner: b.runner}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*MethodResult, len(methods))
	for i, m := range methods {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*MethodResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &MethodResult{Method: m, Error: err}
	}
	return out
}

func dedupe(methods []string) []string {
	seen := make(map[string]bool, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
