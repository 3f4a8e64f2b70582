package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/urd/internal/logging"
	"github.com/ppiankov/urd/internal/model"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile string
	verbose bool

	// appConfig is resolved before every command runs
	appConfig *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "urd",
	Short: "urd - Seismic catalog declustering",
	Long: `urd separates an earthquake catalog into independent mainshocks and
dependent events (aftershocks and foreshocks).

Engines:
  gk          Gardner-Knopoff (1974), continuous window formula
  gk-table    Gardner-Knopoff (1974), discrete lookup table
  a1b         Fixed space-time window
  window      Scaled Gardner-Knopoff window with parent attribution
  reasenberg  Reasenberg (1985) interaction clustering

Catalogs are JSON arrays of objects with id, magnitude, time, latitude and
longitude. Every other field is passed through unchanged.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "urd %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.urd/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this node_exporter textfile")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("metrics.textfile", flags.Lookup("metrics-textfile"))

	setDefaults(model.DefaultConfig())

	rootCmd.AddCommand(versionCmd)
}

// setDefaults registers every config key so env vars and Unmarshal see it
func setDefaults(cfg *model.Config) {
	viper.SetDefault("gardner_knopoff.window_scale", cfg.GardnerKnopoff.WindowScale)
	viper.SetDefault("a1b.radius_km", cfg.A1b.RadiusKm)
	viper.SetDefault("a1b.window_days", cfg.A1b.WindowDays)
	viper.SetDefault("reasenberg.rfact", cfg.Reasenberg.Rfact)
	viper.SetDefault("reasenberg.tau_min", cfg.Reasenberg.TauMin)
	viper.SetDefault("reasenberg.tau_max", cfg.Reasenberg.TauMax)
	viper.SetDefault("reasenberg.p", cfg.Reasenberg.P)
	viper.SetDefault("reasenberg.xmeff", cfg.Reasenberg.Xmeff)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("output.dir", cfg.Output.Dir)
	viper.SetDefault("output.pretty", cfg.Output.Pretty)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
	viper.SetDefault("log.level", cfg.Log.Level)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".urd"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// URD_REASENBERG_RFACT maps to reasenberg.rfact
	viper.SetEnvPrefix("URD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the configuration from every source
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Log.Level, os.Stderr); err != nil {
		return err
	}
	appConfig = cfg
	return nil
}
