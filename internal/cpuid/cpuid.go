// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpuid decodes the CPUID leaves that describe the time stamp counter:
// feature bits, the TSC/crystal ratio leaf, the processor frequency leaf and
// the hypervisor timing leaf.
package cpuid

import (
	"encoding/binary"
	"strings"
)

// Func executes the CPUID instruction for the given leaf and subleaf.
type Func func(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

const (
	leafVendor         = 0x0
	leafFeatures       = 0x1
	leafTSC            = 0x15
	leafFrequency      = 0x16
	leafHypervisor     = 0x40000000
	leafHypervisorTime = 0x40000010
	leafExtendedMax    = 0x80000000
	leafAdvancedPower  = 0x80000007
)

const (
	featureTSC           = 1 << 4  // leaf 0x1, EDX
	featureHypervisor    = 1 << 31 // leaf 0x1, ECX
	featureInvariantTSC  = 1 << 8  // leaf 0x80000007, EDX
	frequencyFieldMask   = 0xffff  // leaf 0x16 fields are 16 bits wide
	hypervisorVendorSize = 12
)

// CPU answers capability queries from a CPUID implementation.
type CPU struct {
	query Func
}

// New returns a CPU backed by the native CPUID instruction. On architectures
// without CPUID every leaf reads as zero.
func New() *CPU {
	return &CPU{query: native}
}

// NewWithFunc returns a CPU backed by f.
func NewWithFunc(f Func) *CPU {
	return &CPU{query: f}
}

// TSCLeaf is leaf 0x15: the TSC to core crystal clock ratio.
type TSCLeaf struct {
	Denominator uint32
	Numerator   uint32
	CrystalHz   uint32
}

// FrequencyHz returns the nominal TSC frequency when the crystal frequency is
// enumerated.
func (l TSCLeaf) FrequencyHz() (uint64, bool) {
	if l.CrystalHz == 0 || l.Denominator == 0 {
		return 0, false
	}
	return uint64(l.CrystalHz) * uint64(l.Numerator) / uint64(l.Denominator), true
}

// FrequencyLeaf is leaf 0x16, all values in MHz.
type FrequencyLeaf struct {
	BaseMHz uint32
	MaxMHz  uint32
	BusMHz  uint32
}

// HypervisorLeaf holds the hypervisor vendor range starting at 0x40000000.
type HypervisorLeaf struct {
	Vendor  string
	MaxLeaf uint32
	TSCKHz  uint32 // zero when leaf 0x40000010 is not provided
}

// MaxLeaf returns the highest basic leaf.
func (c *CPU) MaxLeaf() uint32 {
	eax, _, _, _ := c.query(leafVendor, 0)
	return eax
}

// MaxExtendedLeaf returns the highest extended leaf.
func (c *CPU) MaxExtendedLeaf() uint32 {
	eax, _, _, _ := c.query(leafExtendedMax, 0)
	return eax
}

// Vendor returns the vendor identification string, e.g. GenuineIntel.
func (c *CPU) Vendor() string {
	_, ebx, ecx, edx := c.query(leafVendor, 0)
	return registerString(ebx, edx, ecx)
}

// HasTSC reports whether the time stamp counter is present.
func (c *CPU) HasTSC() bool {
	if c.MaxLeaf() < leafFeatures {
		return false
	}
	_, _, _, edx := c.query(leafFeatures, 0)
	return edx&featureTSC != 0
}

// HasInvariantTSC reports whether the TSC runs at a constant rate in all
// ACPI P-, C- and T-states.
func (c *CPU) HasInvariantTSC() bool {
	if c.MaxExtendedLeaf() < leafAdvancedPower {
		return false
	}
	_, _, _, edx := c.query(leafAdvancedPower, 0)
	return edx&featureInvariantTSC != 0
}

// TSCLeaf returns leaf 0x15 when the processor implements it.
func (c *CPU) TSCLeaf() (TSCLeaf, bool) {
	if c.MaxLeaf() < leafTSC {
		return TSCLeaf{}, false
	}
	eax, ebx, ecx, _ := c.query(leafTSC, 0)
	return TSCLeaf{Denominator: eax, Numerator: ebx, CrystalHz: ecx}, true
}

// FrequencyLeaf returns leaf 0x16 when the processor implements it.
func (c *CPU) FrequencyLeaf() (FrequencyLeaf, bool) {
	if c.MaxLeaf() < leafFrequency {
		return FrequencyLeaf{}, false
	}
	eax, ebx, ecx, _ := c.query(leafFrequency, 0)
	return FrequencyLeaf{
		BaseMHz: eax & frequencyFieldMask,
		MaxMHz:  ebx & frequencyFieldMask,
		BusMHz:  ecx & frequencyFieldMask,
	}, true
}

// Hypervisor returns the hypervisor leaves when running as a guest.
func (c *CPU) Hypervisor() (HypervisorLeaf, bool) {
	if c.MaxLeaf() < leafFeatures {
		return HypervisorLeaf{}, false
	}
	_, _, ecx, _ := c.query(leafFeatures, 0)
	if ecx&featureHypervisor == 0 {
		return HypervisorLeaf{}, false
	}
	maxLeaf, ebx, ecx, edx := c.query(leafHypervisor, 0)
	hv := HypervisorLeaf{
		Vendor:  registerString(ebx, ecx, edx),
		MaxLeaf: maxLeaf,
	}
	if maxLeaf >= leafHypervisorTime {
		hv.TSCKHz, _, _, _ = c.query(leafHypervisorTime, 0)
	}
	return hv, true
}

func registerString(regs ...uint32) string {
	buf := make([]byte, 0, hypervisorVendorSize)
	for _, r := range regs {
		buf = binary.LittleEndian.AppendUint32(buf, r)
	}
	return strings.TrimRight(string(buf), "\x00")
}
