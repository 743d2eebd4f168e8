// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"sync/atomic"
	"time"

	"rawtime/internal/cpuid"
	"rawtime/internal/rtc"
)

type fakeFeatures struct {
	noCounter    bool
	notInvariant bool
	info         *CounterInfo
	baseMHz      uint32
	probes       atomic.Int32
}

func (f *fakeFeatures) SupportsCounter() bool {
	f.probes.Add(1)
	return !f.noCounter
}

func (f *fakeFeatures) SupportsInvariantCounter() bool {
	return !f.notInvariant
}

func (f *fakeFeatures) CounterInfo() (CounterInfo, bool) {
	if f.info == nil {
		return CounterInfo{}, false
	}
	return *f.info, true
}

func (f *fakeFeatures) BaseFrequencyMHz() (uint32, bool) {
	return f.baseMHz, f.baseMHz != 0
}

type fakeHypervisor struct {
	khz uint32
}

func (h fakeHypervisor) ParavirtTSCKHz() (uint32, bool) {
	return h.khz, h.khz != 0
}

// simulatedMachine advances a virtual clock on every pause. Its counter ticks
// at rate Hz and its calendar reports whole virtual seconds.
type simulatedMachine struct {
	nanos uint64
	step  uint64
	rate  uint64
}

func (m *simulatedMachine) ReadCounter() uint64 {
	return uint64(float64(m.nanos) / 1e9 * float64(m.rate))
}

func (m *simulatedMachine) Pause() {
	m.nanos += m.step
}

func (m *simulatedMachine) UnixSeconds() uint64 {
	return m.nanos / 1e9
}

func (m *simulatedMachine) Now() rtc.CalendarTime {
	return rtc.FromTime(time.Unix(int64(m.UnixSeconds()), 0).UTC())
}

// stoppedCounter never ticks and never advances time.
type stoppedCounter struct{}

func (stoppedCounter) ReadCounter() uint64 { return 42 }
func (stoppedCounter) Pause()              {}

func leafCPU(leaves map[uint32][4]uint32) *cpuid.CPU {
	return cpuid.NewWithFunc(func(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32) {
		r := leaves[leaf]
		return r[0], r[1], r[2], r[3]
	})
}
