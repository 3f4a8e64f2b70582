package decluster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/window"
)

// Method names accepted by New
const (
	MethodGardnerKnopoff = "gk"
	MethodTable          = "gk-table"
	MethodA1b            = "a1b"
	MethodWindow         = "window"
	MethodReasenberg     = "reasenberg"
)

// ErrUnknownMethod is returned by New for an unregistered method name
var ErrUnknownMethod = errors.New("unknown declustering method")

// Result is the outcome of one engine run
type Result struct {
	Mainshocks  model.Catalog
	Aftershocks model.Catalog
	Attributed  []model.Aftershock // Only set by parent-attributing engines
}

// Declusterer is a configured declustering engine
type Declusterer interface {
	// Name returns the registry name of the engine.
	Name() string

	// Params returns the numeric parameters the engine runs with.
	Params() map[string]float64

	// Decluster partitions catalog. It must not modify catalog.
	Decluster(catalog model.Catalog) Result
}

// Methods lists every registered method name
func Methods() []string {
	return []string{MethodGardnerKnopoff, MethodTable, MethodA1b, MethodWindow, MethodReasenberg}
}

// New returns the engine registered under method, configured from cfg
func New(method string, cfg *model.Config) (Declusterer, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	switch strings.ToLower(method) {
	case MethodGardnerKnopoff, "decluster":
		return &windowed{name: MethodGardnerKnopoff, model: window.GardnerKnopoff}, nil

	case MethodTable, "decluster-table":
		return &windowed{name: MethodTable, model: window.Table}, nil

	case MethodA1b, "decluster-a1b":
		return &windowed{
			name:  MethodA1b,
			model: window.Fixed(cfg.A1b.RadiusKm, cfg.A1b.WindowDays),
			params: map[string]float64{
				"radius_km":   cfg.A1b.RadiusKm,
				"window_days": cfg.A1b.WindowDays,
			},
		}, nil

	case MethodWindow:
		return &attributing{scale: cfg.GardnerKnopoff.WindowScale}, nil

	case MethodReasenberg, "decluster-reasenberg":
		return &reasenberg{params: ReasenbergParams{
			Rfact:  cfg.Reasenberg.Rfact,
			TauMin: cfg.Reasenberg.TauMin,
			TauMax: cfg.Reasenberg.TauMax,
			P:      cfg.Reasenberg.P,
			Xmeff:  cfg.Reasenberg.Xmeff,
		}}, nil

	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownMethod, method, strings.Join(Methods(), ", "))
	}
}

type windowed struct {
	name   string
	model  window.Model
	params map[string]float64
}

func (w *windowed) Name() string { return w.name }

func (w *windowed) Params() map[string]float64 {
	out := make(map[string]float64, len(w.params))
	for k, v := range w.params {
		out[k] = v
	}
	return out
}

func (w *windowed) Decluster(catalog model.Catalog) Result {
	main, after := DeclusterWindowed(catalog, w.model)
	return Result{Mainshocks: main, Aftershocks: after}
}

type attributing struct {
	scale float64
}

func (a *attributing) Name() string { return MethodWindow }

func (a *attributing) Params() map[string]float64 {
	return map[string]float64{"window_scale": a.scale}
}

func (a *attributing) Decluster(catalog model.Catalog) Result {
	main, attributed := WithParents(catalog, a.scale)
	after := make(model.Catalog, len(attributed))
	for i, as := range attributed {
		after[i] = as.Event
	}
	return Result{Mainshocks: main, Aftershocks: after, Attributed: attributed}
}

type reasenberg struct {
	params ReasenbergParams
}

func (r *reasenberg) Name() string { return MethodReasenberg }

func (r *reasenberg) Params() map[string]float64 {
	return map[string]float64{
		"rfact":   r.params.Rfact,
		"tau_min": r.params.TauMin,
		"tau_max": r.params.TauMax,
		"p":       r.params.P,
		"xmeff":   r.params.Xmeff,
	}
}

func (r *reasenberg) Decluster(catalog model.Catalog) Result {
	main, after := Reasenberg(catalog, r.params)
	return Result{Mainshocks: main, Aftershocks: after}
}
