// Package freq is a subcommand of the root command. It resolves the counter
// frequency and reports how it was found.
package freq

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rawtime/internal/common"
	"rawtime/internal/counter"
	"rawtime/internal/cpuid"
	"rawtime/internal/report"
	"rawtime/internal/tsc"
	"rawtime/internal/util"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/cobra"
)

const cmdName = "freq"

var examples = []string{
	fmt.Sprintf("  Report the counter frequency:               $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Report as JSON:                             $ %s %s --format json", common.AppName, cmdName),
	fmt.Sprintf("  Ignore the hypervisor's frequency hint:     $ %s %s --disable-source hypervisor", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Resolve the counter frequency and report how it was found",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var flagFormat string

func init() {
	common.AddFormatFlag(Cmd, &flagFormat)
	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	return []common.FlagGroup{
		{
			GroupName: "Output Options",
			Flags:     []common.Flag{common.FormatFlag()},
		},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
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
	res, err := common.Resolve(appContext.Clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("failed to resolve counter frequency", slog.String("error", err.Error()))
		return err
	}
	virtualization, role, err := host.Virtualization()
	if err != nil {
		slog.Debug("failed to detect virtualization", slog.String("error", err.Error()))
	}
	tables := []report.Table{
		frequencyTable(res),
		processorTable(cpuid.New(), counter.Hardware{}.Name(), virtualizationValue(virtualization, role)),
	}
	out, err := report.Create(flagFormat, tables)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("failed to create report", slog.String("error", err.Error()))
		return err
	}
	fmt.Print(string(out))
	return nil
}

func frequencyTable(res tsc.Resolution) report.Table {
	crystal := ""
	if res.CrystalHz > 0 {
		crystal = tsc.Frequency(res.CrystalHz).String()
	}
	return report.Table{
		Name: "Counter Frequency",
		Fields: []report.Field{
			{Name: "Frequency", Values: []string{res.Frequency.String()}},
			{Name: "Frequency (Hz)", Values: []string{util.Thousands(res.Frequency.Hz())}},
			{Name: "Source", Values: []string{string(res.Source)}},
			{Name: "Crystal", Values: []string{crystal}},
			{Name: "Resolution Time", Values: []string{res.Elapsed.String()}},
		},
	}
}

func processorTable(cpu *cpuid.CPU, counterName string, virtualization string) report.Table {
	baseMHz, maxMHz := "", ""
	if leaf, ok := cpu.FrequencyLeaf(); ok {
		baseMHz = megahertz(leaf.BaseMHz)
		maxMHz = megahertz(leaf.MaxMHz)
	}
	hypervisor, paravirt := "", ""
	if hv, ok := cpu.Hypervisor(); ok {
		hypervisor = hv.Vendor
		if hv.TSCKHz > 0 {
			paravirt = (tsc.Frequency(hv.TSCKHz) * tsc.KHz).String()
		}
	}
	return report.Table{
		Name: "Processor",
		Fields: []report.Field{
			{Name: "Vendor", Values: []string{cpu.Vendor()}},
			{Name: "Counter", Values: []string{counterName}},
			{Name: "Counter Present", Values: []string{yesNo(cpu.HasTSC())}},
			{Name: "Invariant Counter", Values: []string{yesNo(cpu.HasInvariantTSC())}},
			{Name: "Base Frequency", Values: []string{baseMHz}},
			{Name: "Maximum Frequency", Values: []string{maxMHz}},
			{Name: "Hypervisor", Values: []string{hypervisor}},
			{Name: "Hypervisor Counter Frequency", Values: []string{paravirt}},
			{Name: "Virtualization", Values: []string{virtualization}},
		},
	}
}

// megahertz formats a leaf 0x16 value, which is zero when not enumerated
func megahertz(mhz uint32) string {
	if mhz == 0 {
		return ""
	}
	return (tsc.Frequency(mhz) * tsc.MHz).String()
}

func virtualizationValue(system, role string) string {
	if system == "" {
		return "none"
	}
	if role == "" {
		return system
	}
	return fmt.Sprintf("%s (%s)", system, role)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
