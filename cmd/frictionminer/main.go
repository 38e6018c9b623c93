// frictionminer finds process friction (delays, rework, manual handling) in
// event logs.
package main

import (
	"fmt"
	"os"

	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	GitCommit = "live"
	Version   = "0.1.0"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "frictionminer",
		Short: "Detect business friction in event logs",
		Long: `frictionminer normalizes event logs (CSV, TSV, JSON, XLSX) into traces and
runs statistical friction detectors over them: unusual delays between
activities, repeated activities and human-dominated cases.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newExplainCmd(opts),
		newReportCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// load reads the configuration and installs the global logger. It must run
// before any component is constructed.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.NewConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		if err := cfg.Logger.Level.UnmarshalText([]byte(o.logLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
		}
	}

	if err := setupLogger(cfg.Logger.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) pipeline() (*config.Config, *pipeline.Pipeline, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, p, nil
}

func setupLogger(level zapcore.Level) error {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	zapConfig.Sampling = nil

	logger, err := zapConfig.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
