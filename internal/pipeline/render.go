package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/validate"
	"github.com/ppiankov/urd/internal/worker"
)

// Output keys added to attributed aftershocks
const (
	keyParentID        = "parent_id"
	keyParentMagnitude = "parent_magnitude"
	keyDeltaTSec       = "delta_t_sec"
	keyDeltaDistKm     = "delta_dist_km"
)

// Renderer writes declustering output
type Renderer struct {
	pretty bool
}

// NewRenderer creates a new renderer
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Record converts an event back into a source-shaped object under the keys
// the catalog used. Required fields echo their source values when the event
// carries them; otherwise they are written normalised, with the time as
// RFC 3339 UTC.
func Record(e model.Event, keys validate.Keys) map[string]any {
	rec := make(map[string]any, len(e.Attrs)+5)
	for k, v := range e.Attrs {
		rec[k] = v
	}
	rec[keys.ID] = e.ID
	rec[keys.Magnitude] = e.Magnitude
	rec[keys.Time] = e.Time.UTC().Format(time.RFC3339Nano)
	rec[keys.Latitude] = e.Latitude
	rec[keys.Longitude] = e.Longitude
	for k, v := range e.Source {
		rec[k] = v
	}
	return rec
}

// AttributedRecord is Record plus the parent fields
func AttributedRecord(a model.Aftershock, keys validate.Keys) map[string]any {
	rec := Record(a.Event, keys)
	rec[keyParentID] = a.ParentID
	rec[keyParentMagnitude] = a.ParentMagnitude
	rec[keyDeltaTSec] = a.DeltaTSec
	rec[keyDeltaDistKm] = a.DeltaDistKm
	return rec
}

// WriteMainshocks writes the mainshock list
func (r *Renderer) WriteMainshocks(report *model.Report, keys validate.Keys, path string) error {
	records := make([]map[string]any, len(report.Mainshocks))
	for i, e := range report.Mainshocks {
		records[i] = Record(e, keys)
	}
	return r.writeJSON(path, records)
}

// WriteAftershocks writes the dependent list, with parent fields when the
// engine attributed parents
func (r *Renderer) WriteAftershocks(report *model.Report, keys validate.Keys, path string) error {
	records := make([]map[string]any, len(report.Aftershocks))
	if report.Attributed != nil {
		for i, a := range report.Attributed {
			records[i] = AttributedRecord(a, keys)
		}
	} else {
		for i, e := range report.Aftershocks {
			records[i] = Record(e, keys)
		}
	}
	return r.writeJSON(path, records)
}

// WriteReport writes the run metadata and summary
func (r *Renderer) WriteReport(report *model.Report, path string) error {
	return r.writeJSON(path, report)
}

func (r *Renderer) writeJSON(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints a human-readable summary of one run
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	s := report.Summary

	fmt.Fprintf(w, "Method:       %s\n", report.Method)
	if report.Cached {
		fmt.Fprintf(w, "Source:       %s (cached)\n", report.Source)
	} else {
		fmt.Fprintf(w, "Source:       %s\n", report.Source)
	}
	fmt.Fprintf(w, "Events:       %d\n", s.Events)
	fmt.Fprintf(w, "Mainshocks:   %d\n", s.Mainshocks)
	fmt.Fprintf(w, "Aftershocks:  %d (%.1f%%)\n", s.Aftershocks, s.DeclusteredFraction*100)
	if report.Attributed != nil {
		fmt.Fprintf(w, "Foreshocks:   %d\n", s.Foreshocks)
	}

	if len(s.Stats) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, st := range s.Stats {
		fmt.Fprintf(tw, "  %s\t%.3f %s\t%s\n", st.Name, st.Value, st.Unit, st.Formula)
	}
	_ = tw.Flush()
}

// RenderComparison prints one line per method
func (r *Renderer) RenderComparison(w io.Writer, results []*worker.MethodResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tMAINSHOCKS\tAFTERSHOCKS\tFRACTION\tMEDIAN |DT| (DAYS)\tCACHED")
	for _, res := range results {
		if res.Error != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\n", res.Method, res.Error)
			continue
		}
		s := res.Report.Summary
		median := "-"
		if st, ok := s.Lookup(model.StatDeltaTMedian); ok {
			median = fmt.Sprintf("%.3f", st.Value)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\t%s\t%t\n", res.Report.Method, s.Mainshocks, s.Aftershocks, s.DeclusteredFraction, median, res.Report.Cached)
	}
	_ = tw.Flush()
}
