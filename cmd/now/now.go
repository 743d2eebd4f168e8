// Package now is a subcommand of the root command. It samples the precise
// time and reports it next to the calendar time.
package now

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"rawtime/internal/common"
	"rawtime/internal/report"
	"rawtime/internal/rtc"
	"rawtime/internal/tsc"
	"rawtime/internal/util"

	"github.com/spf13/cobra"
)

const cmdName = "now"

var examples = []string{
	fmt.Sprintf("  Print the precise time and wall clock:      $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Take 10 samples one second apart:           $ %s %s --samples 10 --interval 1s", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Print precise time samples and the wall clock",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagSamples  int
	flagInterval time.Duration
	flagFormat   string
)

const (
	flagSamplesName  = "samples"
	flagIntervalName = "interval"
)

func init() {
	Cmd.Flags().IntVar(&flagSamples, flagSamplesName, 1, "")
	Cmd.Flags().DurationVar(&flagInterval, flagIntervalName, 100*time.Millisecond, "")
	common.AddFormatFlag(Cmd, &flagFormat)
	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	return []common.FlagGroup{
		{
			GroupName: "Options",
			Flags: []common.Flag{
				{
					Name: flagSamplesName,
					Help: "number of precise time samples to take",
				},
				{
					Name: flagIntervalName,
					Help: "time between samples, e.g., 250ms",
				},
			},
		},
		{
			GroupName: "Output Options",
			Flags:     []common.Flag{common.FormatFlag()},
		},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagSamples < 1 {
		err := fmt.Errorf("samples must be greater than 0")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if flagInterval < 0 {
		err := fmt.Errorf("interval must not be negative")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if err := common.ValidateFormat(flagFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext, err := common.GetAppContext(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	clock := appContext.Clock
	// resolve before sampling so the first sample doesn't pay for calibration
	res, err := common.Resolve(clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("failed to resolve counter frequency", slog.String("error", err.Error()))
		return err
	}
	samples := takeSamples(clock.PreciseTimeNow, flagSamples, flagInterval)
	wallclock := clock.Wallclock()
	slog.Debug("sampled precise time", slog.Int("samples", len(samples)), slog.String("wallclock", wallclock.String()))
	out, err := report.Create(flagFormat, []report.Table{
		samplesTable(samples),
		clockTable(wallclock, res),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("failed to create report", slog.String("error", err.Error()))
		return err
	}
	fmt.Print(string(out))
	return nil
}

// takeSamples calls read count times, sleeping interval between calls
func takeSamples(read func() uint64, count int, interval time.Duration) []uint64 {
	samples := make([]uint64, 0, count)
	for i := range count {
		if i > 0 && interval > 0 {
			time.Sleep(interval)
		}
		samples = append(samples, read())
	}
	return samples
}

func samplesTable(samples []uint64) report.Table {
	index := report.Field{Name: "Sample"}
	nanos := report.Field{Name: "Precise Time (ns)"}
	deltas := report.Field{Name: "Delta (ns)"}
	for i, sample := range samples {
		index.Values = append(index.Values, strconv.Itoa(i))
		nanos.Values = append(nanos.Values, util.Thousands(sample))
		delta := ""
		if i > 0 {
			delta = util.Thousands(sample - samples[i-1])
		}
		deltas.Values = append(deltas.Values, delta)
	}
	return report.Table{
		Name:    "Precise Time",
		Fields:  []report.Field{index, nanos, deltas},
		HasRows: true,
	}
}

func clockTable(wallclock rtc.CalendarTime, res tsc.Resolution) report.Table {
	return report.Table{
		Name: "Clock",
		Fields: []report.Field{
			{Name: "Wall Clock", Values: []string{wallclock.String()}},
			{Name: "Unix Seconds", Values: []string{strconv.FormatUint(wallclock.Unix(), 10)}},
			{Name: "Frequency", Values: []string{res.Frequency.String()}},
			{Name: "Source", Values: []string{string(res.Source)}},
		},
	}
}
