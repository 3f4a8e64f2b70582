package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/urd/internal/decluster"
	"github.com/ppiankov/urd/internal/metrics"
	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/validate"
)

const catalogJSON = `[
  {"usgs_id": "main", "usgs_mag": 6.0, "event_at": "2011-03-11T05:46:24Z", "latitude": 38.3, "longitude": 142.4, "depth": 29},
  {"usgs_id": "fore", "usgs_mag": 4.5, "event_at": "2011-03-10T05:46:24Z", "latitude": 38.35, "longitude": 142.4, "depth": 10},
  {"usgs_id": "after", "usgs_mag": 4.0, "event_at": "2011-03-12T05:46:24Z", "latitude": 38.2, "longitude": 142.3, "depth": 12.5},
  {"usgs_id": "remote", "usgs_mag": 5.0, "event_at": "2011-03-11T06:00:00Z", "latitude": -20.0, "longitude": -70.0, "depth": 100}
]`

func testConfig(t *testing.T, cacheEnabled bool) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = cacheEnabled
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	cfg.Concurrency.Workers = 2
	return cfg
}

func ids(c model.Catalog) []string {
	out := make([]string, len(c))
	for i, e := range c {
		out[i] = e.ID
	}
	return out
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRecords(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(catalogJSON))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if _, ok := records[0]["depth"].(json.Number); !ok {
		t.Errorf("expected json.Number for depth, got %T", records[0]["depth"])
	}
}

func TestReadRecords_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		notList bool
	}{
		{"empty", "", true},
		{"object", `{"id": "a"}`, true},
		{"truncated", `[{"id": "a"`, false},
		{"scalars", `[1, 2]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.notList != errors.Is(err, ErrNotArray) {
				t.Errorf("unexpected error kind: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)

	in, err := p.Load(writeCatalog(t, catalogJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff([]string{"main", "fore", "after", "remote"}, ids(in.Catalog)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if in.Keys.ID != "usgs_id" || in.Keys.Magnitude != "usgs_mag" || in.Keys.Time != "event_at" {
		t.Errorf("expected alias keys, got %+v", in.Keys)
	}
}

func TestLoad_Invalid(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)

	_, err := p.Load(writeCatalog(t, `[{"id": "a", "magnitude": 5, "time": "yesterday", "latitude": 0, "longitude": 0}]`))
	if !errors.Is(err, validate.ErrBadTime) {
		t.Errorf("expected ErrBadTime, got %v", err)
	}

	if _, err := p.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecluster(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)
	in, err := p.Load(writeCatalog(t, catalogJSON))
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Decluster(context.Background(), in, decluster.MethodGardnerKnopoff)
	if err != nil {
		t.Fatalf("Decluster: %v", err)
	}

	if diff := cmp.Diff([]string{"main", "remote"}, ids(report.Mainshocks)); diff != "" {
		t.Errorf("mainshocks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"fore", "after"}, ids(report.Aftershocks)); diff != "" {
		t.Errorf("aftershocks mismatch (-want +got):\n%s", diff)
	}
	if report.Cached {
		t.Error("expected uncached run")
	}
	if report.Summary.Events != 4 || report.Summary.Aftershocks != 2 {
		t.Errorf("unexpected summary %+v", report.Summary)
	}
}

func TestDecluster_UnknownMethod(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)
	in := &Input{Catalog: model.Catalog{}}

	_, err := p.Decluster(context.Background(), in, "nearest-neighbour")
	if !errors.Is(err, decluster.ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestDecluster_Cancelled(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Decluster(ctx, &Input{}, decluster.MethodGardnerKnopoff)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDecluster_Cache(t *testing.T) {
	cfg := testConfig(t, true)
	recorder := metrics.NewRecorder()
	path := writeCatalog(t, catalogJSON)

	first := NewPipeline(cfg, recorder)
	in, err := first.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := first.Decluster(context.Background(), in, decluster.MethodWindow)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Cached {
		t.Fatal("first run should not be cached")
	}

	// A fresh pipeline shares only the disk layer
	second := NewPipeline(cfg, recorder)
	in2, err := second.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := second.Decluster(context.Background(), in2, decluster.MethodWindow)
	if err != nil {
		t.Fatal(err)
	}
	if !r2.Cached {
		t.Fatal("second run should come from the cache")
	}

	if diff := cmp.Diff(r1.Attributed, r2.Attributed); diff != "" {
		t.Errorf("attribution mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(r1.Summary, r2.Summary); diff != "" {
		t.Errorf("summary mismatch (-first +second):\n%s", diff)
	}

	// Different parameters miss
	cfg.GardnerKnopoff.WindowScale = 0.5
	r3, err := NewPipeline(cfg, recorder).Decluster(context.Background(), in2, decluster.MethodWindow)
	if err != nil {
		t.Fatal(err)
	}
	if r3.Cached {
		t.Error("changed window scale should miss the cache")
	}
}

func TestCompare(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)
	in, err := p.Load(writeCatalog(t, catalogJSON))
	if err != nil {
		t.Fatal(err)
	}

	methods := append(decluster.Methods(), "bogus")
	results := p.Compare(context.Background(), in, methods)

	if len(results) != len(methods) {
		t.Fatalf("expected %d results, got %d", len(methods), len(results))
	}
	for i, res := range results[:len(results)-1] {
		if res.Error != nil {
			t.Errorf("%s: unexpected error %v", methods[i], res.Error)
			continue
		}
		if res.Report.Method != methods[i] {
			t.Errorf("result %d: expected %s, got %s", i, methods[i], res.Report.Method)
		}
		if res.Report.Summary.Events != 4 {
			t.Errorf("%s: expected 4 events, got %d", methods[i], res.Report.Summary.Events)
		}
	}
	if !errors.Is(results[len(results)-1].Error, decluster.ErrUnknownMethod) {
		t.Errorf("expected unknown method error, got %v", results[len(results)-1].Error)
	}

	var buf bytes.Buffer
	p.Renderer().RenderComparison(&buf, results)
	for _, m := range methods {
		if !strings.Contains(buf.String(), m) {
			t.Errorf("comparison output missing %s", m)
		}
	}
}

func TestWriteMetrics(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "urd.prom")
	p := NewPipeline(cfg, metrics.NewRecorder())

	in, err := p.Load(writeCatalog(t, catalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Decluster(context.Background(), in, decluster.MethodReasenberg); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteMetrics(); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `urd_decluster_runs_total{method="reasenberg"} 1`) {
		t.Errorf("unexpected textfile:\n%s", data)
	}
}

func TestDecluster_Timestamps(t *testing.T) {
	p := NewPipeline(testConfig(t, false), nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	report, err := p.Decluster(context.Background(), &Input{Source: "x.json", Catalog: model.Catalog{}}, decluster.MethodA1b)
	if err != nil {
		t.Fatal(err)
	}
	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, report.GeneratedAt)
	}
	if report.Params["radius_km"] != 83.2 || report.Params["window_days"] != 95.6 {
		t.Errorf("unexpected params %v", report.Params)
	}
}
