package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/urd/internal/decluster"
	"github.com/ppiankov/urd/internal/logging"
	"github.com/ppiankov/urd/internal/metrics"
	"github.com/ppiankov/urd/internal/pipeline"
)

var (
	compareMethods []string
	compareTimeout time.Duration
	compareNoCache bool
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <catalog>",
	Short: "Run several engines over one catalog in parallel",
	Long: `Compare loads a catalog once and runs every requested engine over it
concurrently, then prints the partition sizes side by side.

Example:
  urd compare catalog.json
  urd compare catalog.json --methods gk,reasenberg --workers 2`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringSliceVar(&compareMethods, "methods", decluster.Methods(), "engines to run")
	compareCmd.Flags().Int("workers", 0, "number of concurrent workers (default: number of CPUs)")
	compareCmd.Flags().DurationVar(&compareTimeout, "timeout", 10*time.Minute, "total timeout")
	compareCmd.Flags().BoolVar(&compareNoCache, "no-cache", false, "disable the result cache")
	bindFlag(compareCmd, "concurrency.workers", "workers")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if compareNoCache {
		cfg.Cache.Enabled = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), compareTimeout)
	defer cancel()

	var recorder *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewRecorder()
	}

	p := pipeline.NewPipeline(cfg, recorder)
	in, err := p.Load(args[0])
	if err != nil {
		return err
	}

	logging.Info("comparing engines", "events", len(in.Catalog), "methods", len(compareMethods), "workers", cfg.Concurrency.Workers)
	results := p.Compare(ctx, in, compareMethods)

	p.Renderer().RenderComparison(cmd.OutOrStdout(), results)

	if err := p.WriteMetrics(); err != nil {
		logging.Warn("metrics export failed", "err", err)
	}

	failed := 0
	for _, res := range results {
		if res.Error != nil {
			logging.Error("engine failed", "method", res.Method, "err", res.Error)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d engines failed", failed, len(results))
	}
	return nil
}
