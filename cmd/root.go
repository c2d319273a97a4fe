package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/profitscope/internal/config"
	"github.com/KaramelBytes/profitscope/internal/dashboard"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Source overrides (override config if set)
	flagDataset  string
	flagModel    string
	flagFeatures string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "profitscope",
	Short: "ProfitScope: explore store sales and predict profit",
	Long: `ProfitScope loads a historical sales dataset and a pre-trained profit model, then serves
an interactive dashboard or answers the same questions from the command line: filtered tables,
time-series and comparison charts, grouped summaries and single-store profit predictions.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.profitscope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "sales dataset (.csv, .tsv or .xlsx; overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "predictor artifact (.json, .yaml or .toml; overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagFeatures, "features", "", "selected-features list (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds for remote models (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	applyFlagOverrides(cfg)
}

// applyFlagOverrides copies explicitly set persistent flags onto c.
func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("dataset") && flagDataset != "" {
		c.DatasetPath = flagDataset
	}
	if f.Changed("model") && flagModel != "" {
		c.ModelPath = flagModel
	}
	if f.Changed("features") {
		c.FeaturesPath = flagFeatures
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		c.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		c.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		c.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}

// openApp builds the dashboard from the effective configuration. Warnings go
// to the command's error stream.
func openApp(cmd *cobra.Command) (*dashboard.App, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
		applyFlagOverrides(cfg)
	}
	opt := dashboard.OptionsFromConfig(cfg)
	opt.Logger = log.New(cmd.ErrOrStderr(), "", 0)
	if debug {
		opt.Logger.Printf("dataset=%s model=%s features=%s", opt.DatasetPath, opt.ModelPath, opt.FeaturesPath)
	}
	return dashboard.Open(opt)
}
