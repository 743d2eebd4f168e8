package freq

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"
	"time"

	"rawtime/internal/cpuid"
	"rawtime/internal/report"
	"rawtime/internal/tsc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldValues(table report.Table) map[string]string {
	values := make(map[string]string)
	for _, field := range table.Fields {
		values[field.Name] = field.Values[0]
	}
	return values
}

func TestFrequencyTable(t *testing.T) {
	res := tsc.Resolution{
		Outcome: tsc.Outcome{Frequency: 2_100_000_000, Source: tsc.SourceCrystalRatio, CrystalHz: 25_000_000},
		Elapsed: 3 * time.Millisecond,
	}
	values := fieldValues(frequencyTable(res))
	assert.Equal(t, "2.100 GHz", values["Frequency"])
	assert.Equal(t, "2,100,000,000", values["Frequency (Hz)"])
	assert.Equal(t, "crystal-ratio", values["Source"])
	assert.Equal(t, "25.000 MHz", values["Crystal"])
	assert.Equal(t, "3ms", values["Resolution Time"])

	res.CrystalHz = 0
	assert.Empty(t, fieldValues(frequencyTable(res))["Crystal"])
}

func TestProcessorTable(t *testing.T) {
	leaves := map[uint32][4]uint32{
		0x0:        {0x16, 0x756e6547, 0x6c65746e, 0x49656e69}, // GenuineIntel
		0x1:        {0, 0, 1 << 31, 1 << 4},
		0x16:       {2100, 3900, 100, 0},
		0x40000000: {0x40000010, 0x4b4d564b, 0x564b4d56, 0x0000004d}, // KVMKVMKVM
		0x40000010: {2_100_000, 0, 0, 0},
		0x80000000: {0x80000008, 0, 0, 0},
		0x80000007: {0, 0, 0, 1 << 8},
	}
	cpu := cpuid.NewWithFunc(func(leaf, subleaf uint32) (uint32, uint32, uint32, uint32) {
		regs := leaves[leaf]
		return regs[0], regs[1], regs[2], regs[3]
	})
	table := processorTable(cpu, "rdtsc", virtualizationValue("kvm", "guest"))
	out, err := report.Create(report.FormatTxt, []report.Table{table})
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	values := fieldValues(table)
	assert.Equal(t, "GenuineIntel", values["Vendor"])
	assert.Equal(t, "rdtsc", values["Counter"])
	assert.Equal(t, "Yes", values["Counter Present"])
	assert.Equal(t, "Yes", values["Invariant Counter"])
	assert.Equal(t, "2.100 GHz", values["Base Frequency"])
	assert.Equal(t, "3.900 GHz", values["Maximum Frequency"])
	assert.Equal(t, "KVMKVMKVM", values["Hypervisor"])
	assert.Equal(t, "2.100 GHz", values["Hypervisor Counter Frequency"])
	assert.Equal(t, "kvm (guest)", values["Virtualization"])
}

func TestProcessorTableBareCPU(t *testing.T) {
	cpu := cpuid.NewWithFunc(func(leaf, subleaf uint32) (uint32, uint32, uint32, uint32) {
		return 0, 0, 0, 0
	})
	values := fieldValues(processorTable(cpu, "monotonic", virtualizationValue("", "")))
	assert.Equal(t, "No", values["Counter Present"])
	assert.Equal(t, "No", values["Invariant Counter"])
	assert.Empty(t, values["Base Frequency"])
	assert.Empty(t, values["Hypervisor"])
	assert.Equal(t, "none", values["Virtualization"])
}

func TestValidateFlags(t *testing.T) {
	flagFormat = "html"
	assert.Error(t, validateFlags(Cmd, nil))
	flagFormat = report.FormatJson
	assert.NoError(t, validateFlags(Cmd, nil))
	flagFormat = report.FormatTxt
}
