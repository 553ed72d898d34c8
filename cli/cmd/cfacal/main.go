package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "cfacal",
		Short: "Offline wash-cycle audit calculator",
		Long: `cfacal runs the audit calculation on a telemetry CSV export without a
database or server: fill segmentation, main/topup/flush classification,
derived metrics and limit verdicts.

Examples:
  cfacal calc --samples audit-1042.csv --profiles profiles.yaml --part W1234 --tub Top
  cfacal calc --samples audit-1042.csv --profiles profiles.yaml --part W1234 --json
  cfacal segment --samples audit-1042.csv
  cfacal profiles validate --profiles profiles.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug | info | warn | error")

	root.AddCommand(newCalcCmd(), newSegmentCmd(), newProfilesCmd())
	return root
}
