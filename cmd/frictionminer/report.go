package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pbudner/frictionminer/report"
	"github.com/spf13/cobra"
)

func newReportCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Write a Markdown friction report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := root.pipeline()
			if err != nil {
				return err
			}

			result, err := p.RunFile(args[0])
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, []byte(report.Markdown(result, time.Now())), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report generated in %.2fs: %s\n", result.Elapsed.Seconds(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the Markdown report")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
