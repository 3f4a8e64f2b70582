package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/urd/internal/cache"
	"github.com/ppiankov/urd/internal/decluster"
	"github.com/ppiankov/urd/internal/logging"
	"github.com/ppiankov/urd/internal/metrics"
	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/summary"
	"github.com/ppiankov/urd/internal/validate"
	"github.com/ppiankov/urd/internal/worker"
)

// Pipeline orchestrates load, decluster, summarize and render
type Pipeline struct {
	validator  *validate.Validator
	summarizer *summary.Summarizer
	renderer   *Renderer
	results    *cache.ResultCache // Nil when caching is disabled
	recorder   *metrics.Recorder  // Nil when metrics are disabled
	config     *model.Config
	now        func() time.Time
}

// NewPipeline creates a pipeline for cfg. recorder may be nil.
func NewPipeline(cfg *model.Config, recorder *metrics.Recorder) *Pipeline {
	var results *cache.ResultCache
	if cfg.Cache.Enabled {
		results = cache.NewResultCache(cache.NewTieredCache(cfg.Cache), 0)
	}

	return &Pipeline{
		validator:  validate.NewValidator(),
		summarizer: summary.NewSummarizer(),
		renderer:   NewRenderer(cfg.Output.Pretty),
		results:    results,
		recorder:   recorder,
		config:     cfg,
		now:        time.Now,
	}
}

// Renderer returns the output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Decluster runs method over the loaded catalog and builds a report. A
// cached result is reused when the method, its parameters and the catalog
// all match.
func (p *Pipeline) Decluster(ctx context.Context, in *Input, method string) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine, err := decluster.New(method, p.config)
	if err != nil {
		return nil, err
	}

	params := engine.Params()
	key := cache.Key(engine.Name(), params, in.Catalog)

	start := p.now()
	res, cached := p.lookup(key, in.Catalog)
	if !cached {
		res = engine.Decluster(in.Catalog)
		p.store(key, in.Catalog, res)
	}
	elapsed := p.now().Sub(start)

	p.recorder.ObserveRun(engine.Name(), len(res.Mainshocks), len(res.Aftershocks), elapsed, cached)
	logging.Debug("decluster finished",
		"method", engine.Name(),
		"events", len(in.Catalog),
		"aftershocks", len(res.Aftershocks),
		"cached", cached,
		"elapsed", elapsed,
	)

	return &model.Report{
		Method:      engine.Name(),
		Params:      params,
		Source:      in.Source,
		GeneratedAt: p.now().UTC(),
		Cached:      cached,
		Mainshocks:  res.Mainshocks,
		Aftershocks: res.Aftershocks,
		Attributed:  res.Attributed,
		Summary:     p.summarizer.Summarize(res),
	}, nil
}

func (p *Pipeline) lookup(key string, catalog model.Catalog) (decluster.Result, bool) {
	if p.results == nil {
		return decluster.Result{}, false
	}
	res, ok := p.results.Load(key, catalog)
	if ok {
		logging.WithPrefix("cache").Debug("hit", "key", key)
	}
	return res, ok
}

func (p *Pipeline) store(key string, catalog model.Catalog, res decluster.Result) {
	if p.results == nil {
		return
	}
	if err := p.results.Store(key, catalog, res); err != nil {
		logging.WithPrefix("cache").Warn("store failed", "key", key, "err", err)
	}
}

// Runner binds the pipeline to one loaded catalog for the worker pool
func (p *Pipeline) Runner(in *Input) worker.Runner {
	return &boundRunner{pipeline: p, input: in}
}

type boundRunner struct {
	pipeline *Pipeline
	input    *Input
}

func (r *boundRunner) Run(ctx context.Context, method string) (*model.Report, error) {
	return r.pipeline.Decluster(ctx, r.input, method)
}

// Compare runs every method concurrently over the same catalog. Results
// follow the order of methods.
func (p *Pipeline) Compare(ctx context.Context, in *Input, methods []string) []*worker.MethodResult {
	processor := worker.NewBatchProcessor(p.Runner(in), p.config.Concurrency.Workers)
	return processor.ProcessMethods(ctx, methods)
}

// WriteMetrics flushes the metrics textfile if one is configured
func (p *Pipeline) WriteMetrics() error {
	if err := p.recorder.WriteTextfile(p.config.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
