// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"rawtime/internal/cpuid"
)

// CounterInfo is what the processor reports about the counter rate. Zero
// fields were not reported.
type CounterInfo struct {
	DirectHz    uint64
	Numerator   uint32
	Denominator uint32
}

// FeatureProber answers processor capability queries.
type FeatureProber interface {
	SupportsCounter() bool
	SupportsInvariantCounter() bool
	CounterInfo() (CounterInfo, bool)
	BaseFrequencyMHz() (uint32, bool)
}

// HypervisorProber reports the counter rate advertised by a hypervisor.
type HypervisorProber interface {
	ParavirtTSCKHz() (uint32, bool)
}

// Counter is the raw cycle counter together with the spin-wait hint.
type Counter interface {
	ReadCounter() uint64
	Pause()
}

// CPUProbe adapts CPUID leaves to FeatureProber and HypervisorProber.
type CPUProbe struct {
	CPU *cpuid.CPU
}

func (p CPUProbe) SupportsCounter() bool {
	return p.CPU.HasTSC()
}

func (p CPUProbe) SupportsInvariantCounter() bool {
	return p.CPU.HasInvariantTSC()
}

func (p CPUProbe) CounterInfo() (CounterInfo, bool) {
	leaf, ok := p.CPU.TSCLeaf()
	if !ok {
		return CounterInfo{}, false
	}
	direct, _ := leaf.FrequencyHz()
	return CounterInfo{
		DirectHz:    direct,
		Numerator:   leaf.Numerator,
		Denominator: leaf.Denominator,
	}, true
}

func (p CPUProbe) BaseFrequencyMHz() (uint32, bool) {
	leaf, ok := p.CPU.FrequencyLeaf()
	if !ok {
		return 0, false
	}
	return leaf.BaseMHz, true
}

func (p CPUProbe) ParavirtTSCKHz() (uint32, bool) {
	hv, ok := p.CPU.Hypervisor()
	if !ok || hv.TSCKHz == 0 {
		return 0, false
	}
	return hv.TSCKHz, true
}
