package main

import (
	"fmt"

	"github.com/pbudner/frictionminer/ui"
	"github.com/spf13/cobra"
)

func newExplainCmd(root *rootOptions) *cobra.Command {
	var caseID string
	cmd := &cobra.Command{
		Use:   "explain FILE",
		Short: "Show the timeline and friction points of a single case",
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

			trace, ok := result.Trace(caseID)
			if !ok {
				return fmt.Errorf("case %q not found in %s", caseID, result.Source)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Explain(trace, result.AnomaliesForCase(caseID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case-id", "", "Case to explain")
	_ = cmd.MarkFlagRequired("case-id")
	return cmd
}
