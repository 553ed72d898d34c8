package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/limits"
	"github.com/cfacal/cfacal/pkg/profiles"
	"github.com/cfacal/cfacal/pkg/telemetry"
	"github.com/cfacal/cfacal/pkg/types"
)

type calcOpts struct {
	samples      string
	profiles     string
	part         string
	serial       string
	auditID      string
	description  string
	tub          string
	recordedTub  string
	task         string
	asJSON       bool
	failOnLimits bool
}

func newCalcCmd() *cobra.Command {
	var o calcOpts

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate one audit from a telemetry CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := runCalc(cmd, o)
			if err != nil {
				return err
			}
			if o.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), rep)
			}
			if o.failOnLimits && !rep.Passed {
				return fmt.Errorf("audit %s did not pass its limits", rep.Result.Audit.AuditID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.samples, "samples", "", "telemetry CSV export (required)")
	f.StringVar(&o.profiles, "profiles", "profiles.yaml", "calibration profiles file")
	f.StringVar(&o.part, "part", "", "part number of the unit (required)")
	f.StringVar(&o.serial, "serial", "", "serial number of the unit")
	f.StringVar(&o.auditID, "audit-id", "local", "audit id to report")
	f.StringVar(&o.description, "description", "", "product description; an H marks a flush-capable model")
	f.StringVar(&o.tub, "tub", "AUTO", "tub type: Top | Bot | Single | AUTO")
	f.StringVar(&o.recordedTub, "recorded-tub", "", "tub type recorded for the unit, used when --tub is AUTO")
	f.StringVar(&o.task, "task", profiles.DefaultTask, "task reference selecting the limits")
	f.BoolVar(&o.asJSON, "json", false, "print the report as JSON")
	f.BoolVar(&o.failOnLimits, "fail-on-limits", false, "exit non-zero when a limit fails or has no data")
	_ = cmd.MarkFlagRequired("samples")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

func runCalc(cmd *cobra.Command, o calcOpts) (*types.Report, error) {
	repo, err := profiles.Open(o.profiles)
	if err != nil {
		return nil, err
	}
	src := &telemetry.File{
		Path: o.samples,
		Info: types.AuditInfo{
			AuditID:     o.auditID,
			Serial:      o.serial,
			Part:        o.part,
			TubType:     o.recordedTub,
			Description: o.description,
		},
	}

	res, err := calc.NewEngine(src, repo).Run(cmd.Context(), calc.Request{AuditID: o.auditID, TubType: o.tub})
	if err != nil {
		return nil, err
	}

	verdicts, passed := limits.Evaluate(res, repo.Limits(o.part, res.TubType, o.task))
	return &types.Report{
		RunID:      uuid.NewString(),
		ComputedAt: time.Now().UTC(),
		Result:     res,
		Verdicts:   verdicts,
		Passed:     passed,
	}, nil
}

func printReport(w io.Writer, rep *types.Report) {
	res := rep.Result
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Audit\t%s\n", res.Audit.AuditID)
	fmt.Fprintf(tw, "Part\t%s\n", res.Audit.Part)
	if res.Audit.Serial != "" {
		fmt.Fprintf(tw, "Serial\t%s\n", res.Audit.Serial)
	}
	fmt.Fprintf(tw, "Tub type\t%s\n", res.TubType)
	fmt.Fprintf(tw, "Fills\t%d\n", len(res.FillDeltas))
	fmt.Fprintf(tw, "Fill deltas\t%s\n", floats(res.FillDeltas))
	fmt.Fprintf(tw, "Fill tags\t%s\n", tags(res.FillTags))
	fmt.Fprintf(tw, "Main fills\t%s\n", floats(res.TimedFills))
	fmt.Fprintf(tw, "Final fill groups\t%s\n", floats(res.FinalFillGroups))
	fmt.Fprintf(tw, "Total fill volume\t%.3f\n", res.TotalFillVolume)
	fmt.Fprintf(tw, "Additional fills\t%d\n", res.AdditionalFills)
	fmt.Fprintf(tw, "Flush detected\t%t\n", res.FlushDetected)
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	m := res.Metrics
	for _, row := range []struct {
		name string
		r    types.Reading
	}{
		{limits.MetricFVFR, m.FVFR},
		{limits.MetricIncomingWaterTemperature, m.IncomingWaterTemperature},
		{limits.MetricHeatUpRate, m.HeatUpRate},
		{limits.MetricCycleTime, m.CycleTime},
		{limits.MetricMainWashTemperature, m.MainWashTemperature},
		{limits.MetricFinalRinseTemperature, m.FinalRinseTemperature},
		{limits.MetricEnergy, m.Energy},
		{limits.MetricMainWashAmperage, m.MainWashAmperage},
		{limits.MetricFinalRinseAmperage, m.FinalRinseAmperage},
		{limits.MetricVoltage, m.Voltage},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", row.name, reading(row.r))
	}
	for i, r := range m.SegmentMaxTemperature {
		fmt.Fprintf(tw, "stage_%d_max_temperature\t%s\n", i+1, reading(r))
	}
	tw.Flush()

	if len(rep.Verdicts) == 0 {
		fmt.Fprintln(w, "\nNo limits configured for this part.")
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LIMIT\tMETRIC\tLOWER\tUPPER\tVALUE\tRESULT")
	for _, v := range rep.Verdicts {
		value := "-"
		if v.Outcome != types.VerdictNoData {
			value = fmt.Sprintf("%.3f", v.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Limit.Description, v.Limit.Metric, bound(v.Limit.Lower), bound(v.Limit.Upper), value, v.Outcome)
	}
	tw.Flush()

	overall := types.VerdictPass
	if !rep.Passed {
		overall = types.VerdictFail
	}
	fmt.Fprintf(w, "\nOverall: %s\n", overall)
}

func reading(r types.Reading) string {
	if r.NoData {
		return "no data"
	}
	return fmt.Sprintf("%.3f", r.Value)
}

func bound(b *float64) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *b)
}

func floats(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%.3f", f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func tags(v []types.FillTag) string {
	parts := make([]string, len(v))
	for i, t := range v {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
