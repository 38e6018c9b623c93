package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pbudner/frictionminer/model"
	"github.com/pbudner/frictionminer/pipeline"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	output   string
	format   string
	parallel bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Detect friction points and print them as JSON",
		Long: `Load an event log, detect friction points and enrich them with a root cause
and a recommendation.

Examples:
  frictionminer analyze events.csv
  frictionminer analyze events.xlsx -o anomalies.json
  frictionminer analyze events.jsonl --format msgpack -o anomalies.msgpack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Engine.Parallel = opts.parallel
			}
			p, err := pipeline.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			result, err := p.RunFile(args[0])
			if err != nil {
				return err
			}

			var out []byte
			switch opts.format {
			case "json":
				out, err = json.MarshalIndent(result.Anomalies, "", "  ")
				out = append(out, '\n')
			case "msgpack":
				out, err = model.MarshalAnomalies(result.Anomalies)
			default:
				return fmt.Errorf("unsupported output format %q", opts.format)
			}
			if err != nil {
				return err
			}

			if opts.output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			if err := os.WriteFile(opts.output, out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d friction points from %d cases to %s (run %s)\n",
				len(result.Anomalies), len(result.Traces), opts.output, result.RunID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format (json, msgpack)")
	cmd.Flags().BoolVar(&opts.parallel, "parallel", false, "Run detectors concurrently")
	return cmd
}
