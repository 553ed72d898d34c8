package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cfacal/cfacal/pkg/fills"
	"github.com/cfacal/cfacal/pkg/profiles"
	"github.com/cfacal/cfacal/pkg/segment"
	"github.com/cfacal/cfacal/pkg/telemetry"
)

func newSegmentCmd() *cobra.Command {
	var samplesPath string

	cmd := &cobra.Command{
		Use:   "segment",
		Short: "List the fill windows and volumes of a telemetry CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := telemetry.ReadFile(samplesPath)
			if err != nil {
				return err
			}
			windows, err := segment.Windows(samples)
			if err != nil {
				return err
			}
			deltas, err := fills.Deltas(samples, segment.EndIndices(windows))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTART\tEND\tSTART_S\tEND_S")
			for _, w := range windows {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%.0f\t%.0f\n",
					w.RunNumber, w.StartIndex, w.EndIndex,
					samples[w.StartIndex].ElapsedSeconds, samples[w.EndIndex].ElapsedSeconds)
			}
			tw.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\nFill volumes (sorted, litres): %s\n", floats(deltas))
			return nil
		},
	}
	cmd.Flags().StringVar(&samplesPath, "samples", "", "telemetry CSV export (required)")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect calibration profile files",
	}

	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load a profiles file and report what it defines",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := profiles.Load(path)
			if err != nil {
				return err
			}
			repo := profiles.NewRepository(set)
			nLimits := 0
			for _, l := range set.Limits {
				nLimits += len(l)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d parts, %d bom profiles, %d limits, %d parts with visual checks\n",
				path, len(repo.Parts()), len(set.BomProfiles), nLimits, len(set.VisualChecks))
			return nil
		},
	}
	validate.Flags().StringVar(&path, "profiles", "profiles.yaml", "calibration profiles file")

	cmd.AddCommand(validate)
	return cmd
}
