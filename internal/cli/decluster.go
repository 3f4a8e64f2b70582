package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/urd/internal/decluster"
	"github.com/ppiankov/urd/internal/logging"
	"github.com/ppiankov/urd/internal/metrics"
	"github.com/ppiankov/urd/internal/pipeline"
)

// ioFlags are shared by every declustering command
type ioFlags struct {
	input       string
	mainshocks  string
	aftershocks string
	report      string
	noCache     bool
}

func (f *ioFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.input, "input", "", "input JSON catalog (\"-\" for stdin)")
	flags.StringVar(&f.mainshocks, "mainshocks", "", "output JSON path for mainshocks (default: <output.dir>/<input>.<method>.mainshocks.json)")
	flags.StringVar(&f.aftershocks, "aftershocks", "", "output JSON path for aftershocks and foreshocks (default: <output.dir>/<input>.<method>.aftershocks.json)")
	flags.StringVar(&f.report, "report", "", "optional JSON path for the run summary")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
}

// outputPath returns explicit, or a path derived from the input name
func outputPath(explicit, dir, input, method, kind string) string {
	if explicit != "" {
		return explicit
	}
	stem := "catalog"
	if input != "-" {
		stem = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s.json", stem, method, kind))
}

// recordHelp is appended to every engine's long help
const recordHelp = `

Output records keep the input's keys. Required fields are echoed as written
in the input (a zoneless time stays zoneless, 6.10 stays 6.10); every other
field passes through unchanged. Attributed aftershocks also carry parent_id,
parent_magnitude, delta_t_sec and delta_dist_km.`

// newDeclusterCmd builds the command for one engine
func newDeclusterCmd(method string, aliases []string, short, long string) *cobra.Command {
	opts := &ioFlags{}
	cmd := &cobra.Command{
		Use:     method,
		Aliases: aliases,
		Short:   short,
		Long:    long + recordHelp,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecluster(cmd, method, opts)
		},
	}
	opts.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runDecluster(cmd *cobra.Command, method string, opts *ioFlags) error {
	cfg := appConfig
	if opts.noCache {
		cfg.Cache.Enabled = false
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewRecorder()
	}

	p := pipeline.NewPipeline(cfg, recorder)

	in, err := p.Load(opts.input)
	if err != nil {
		return err
	}

	report, err := p.Decluster(context.Background(), in, method)
	if err != nil {
		return err
	}

	mainPath := outputPath(opts.mainshocks, cfg.Output.Dir, opts.input, report.Method, "mainshocks")
	afterPath := outputPath(opts.aftershocks, cfg.Output.Dir, opts.input, report.Method, "aftershocks")

	renderer := p.Renderer()
	if err := renderer.WriteMainshocks(report, in.Keys, mainPath); err != nil {
		return fmt.Errorf("write mainshocks: %w", err)
	}
	if err := renderer.WriteAftershocks(report, in.Keys, afterPath); err != nil {
		return fmt.Errorf("write aftershocks: %w", err)
	}
	if opts.report != "" {
		if err := renderer.WriteReport(report, opts.report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d mainshocks to %s\n", len(report.Mainshocks), mainPath)
	fmt.Fprintf(out, "Wrote %d aftershocks to %s\n", len(report.Aftershocks), afterPath)
	if cfg.Output.Verbose {
		fmt.Fprintln(out)
		renderer.RenderSummary(out, report)
	}

	if err := p.WriteMetrics(); err != nil {
		logging.Warn("metrics export failed", "err", err)
	}
	return nil
}

func init() {
	gkCmd := newDeclusterCmd(decluster.MethodGardnerKnopoff, []string{"decluster"},
		"Decluster with Gardner-Knopoff (1974), continuous windows",
		`Gardner-Knopoff declustering with the continuous window formulas:

  radius_km = 10^(0.1238*M + 0.983)
  window_d  = 10^(0.032*M + 2.7389)   if M >= 6.5
            = 10^(0.5409*M - 0.547)   otherwise

Events are visited from the largest magnitude down. A mainshock claims every
event of equal or smaller magnitude inside its window, before or after it.

Example:
  urd gk --input catalog.json --mainshocks main.json --aftershocks after.json`)

	tableCmd := newDeclusterCmd(decluster.MethodTable, []string{"decluster-table"},
		"Decluster with the Gardner-Knopoff (1974) lookup table",
		`Gardner-Knopoff declustering with the published discrete table. Magnitudes
are floored to the nearest row; magnitudes below 2.5 use the 2.5 row.

Example:
  urd gk-table --input catalog.json`)

	a1bCmd := newDeclusterCmd(decluster.MethodA1b, []string{"decluster-a1b"},
		"Decluster with a fixed space-time window",
		`Gardner-Knopoff traversal with one radius and one duration for every
magnitude (defaults 83.2 km and 95.6 days).

Example:
  urd a1b --input catalog.json --radius 50 --window 30`)
	a1bCmd.Flags().Float64("radius", 83.2, "fixed spatial radius in km")
	a1bCmd.Flags().Float64("window", 95.6, "fixed temporal window in days")
	bindFlag(a1bCmd, "a1b.radius_km", "radius")
	bindFlag(a1bCmd, "a1b.window_days", "window")

	windowCmd := newDeclusterCmd(decluster.MethodWindow, nil,
		"Decluster with a scaled Gardner-Knopoff window and parent attribution",
		`Gardner-Knopoff declustering with both windows multiplied by --window-size.
Each dependent event is attributed to the mainshock closest to it in time;
the aftershock output adds parent_id, parent_magnitude, delta_t_sec and
delta_dist_km. delta_t_sec is negative for foreshocks.

Example:
  urd window --window-size 0.75 --input catalog.json`)
	windowCmd.Flags().Float64("window-size", 1.0, "multiplier for both G-K windows (e.g. 0.75 tighter, 1.25 wider)")
	_ = windowCmd.MarkFlagRequired("window-size")
	bindFlag(windowCmd, "gardner_knopoff.window_scale", "window-size")

	reasenbergCmd := newDeclusterCmd(decluster.MethodReasenberg, []string{"decluster-reasenberg"},
		"Decluster with the Reasenberg (1985) interaction algorithm",
		`Reasenberg declustering. Events are processed in time order; an event
joins the open cluster whose largest event lies within the interaction
radius rfact * 10^(0.11*M + 0.024) km. Clusters close after an adaptive
Omori lookback clamped to [tau-min, tau-max] days.

Output is in chronological order.

Example:
  urd reasenberg --input catalog.json --rfact 10 --p-value 0.95`)
	rf := reasenbergCmd.Flags()
	rf.Float64("rfact", 10.0, "interaction radius scale factor")
	rf.Float64("tau-min", 1.0, "minimum cluster lookback window in days")
	rf.Float64("tau-max", 10.0, "maximum cluster lookback window in days")
	rf.Float64("p-value", 0.95, "Omori decay probability threshold for cluster termination")
	rf.Float64("xmeff", 1.5, "effective magnitude threshold")
	bindFlag(reasenbergCmd, "reasenberg.rfact", "rfact")
	bindFlag(reasenbergCmd, "reasenberg.tau_min", "tau-min")
	bindFlag(reasenbergCmd, "reasenberg.tau_max", "tau-max")
	bindFlag(reasenbergCmd, "reasenberg.p", "p-value")
	bindFlag(reasenbergCmd, "reasenberg.xmeff", "xmeff")

	rootCmd.AddCommand(gkCmd, tableCmd, a1bCmd, windowCmd, reasenbergCmd)
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}
