// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"testing"

	"rawtime/internal/rtc"

	"github.com/stretchr/testify/assert"
)

// steppingCounter advances by a fixed number of ticks per read.
type steppingCounter struct {
	value uint64
	step  uint64
}

func (c *steppingCounter) ReadCounter() uint64 {
	c.value += c.step
	return c.value
}

func (c *steppingCounter) Pause() {}

func TestClockPreciseTimeNow(t *testing.T) {
	ctr := &steppingCounter{step: 2_000}
	features := &fakeFeatures{info: &CounterInfo{DirectHz: 2_000_000_000}}
	clock := NewClock(features, nil, rtc.Fixed{}, ctr, noCalibration())

	first := clock.PreciseTimeNow()
	second := clock.PreciseTimeNow()
	assert.Equal(t, uint64(1_000), first)
	assert.Equal(t, uint64(1_000), second-first)
	assert.Equal(t, Frequency(2_000_000_000), clock.Frequency())
	assert.Equal(t, SourceCPUID, clock.Resolution().Source)
	assert.Equal(t, uint64(500), clock.TicksToNanoseconds(1_000))
}

func TestClockWallclock(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{DirectHz: GHz.Hz()}}
	clock := NewClock(features, nil, rtc.Fixed{}, &steppingCounter{}, noCalibration())
	assert.Equal(t, rtc.FixedTime, clock.Wallclock())

	m := &simulatedMachine{nanos: 1_700_000_000_000_000_000}
	clock = NewClock(features, nil, m, m, noCalibration())
	assert.Equal(t, uint64(2023), clock.Wallclock().Year)

	clock = NewClock(features, nil, nil, &steppingCounter{}, noCalibration())
	assert.Equal(t, rtc.FixedTime, clock.Wallclock())
}

func TestCPUProbe(t *testing.T) {
	probe := CPUProbe{CPU: leafCPU(map[uint32][4]uint32{
		0x0:        {0x16, 0, 0, 0},
		0x1:        {0, 0, 1 << 31, 1 << 4},
		0x15:       {2, 176, 0, 0},
		0x16:       {2100, 3900, 100, 0},
		0x40000000: {0x40000010, 0, 0, 0},
		0x40000010: {2_100_000, 0, 0, 0},
		0x80000000: {0x80000008, 0, 0, 0},
		0x80000007: {0, 0, 0, 1 << 8},
	})}
	assert.True(t, probe.SupportsCounter())
	assert.True(t, probe.SupportsInvariantCounter())
	info, ok := probe.CounterInfo()
	assert.True(t, ok)
	assert.Equal(t, CounterInfo{Numerator: 176, Denominator: 2}, info)
	base, ok := probe.BaseFrequencyMHz()
	assert.True(t, ok)
	assert.Equal(t, uint32(2100), base)
	khz, ok := probe.ParavirtTSCKHz()
	assert.True(t, ok)
	assert.Equal(t, uint32(2_100_000), khz)

	r := NewResolver(probe, probe, nil, stoppedCounter{}, noCalibration())
	assert.Equal(t, Frequency(2_100_000_000), r.Frequency())
}

func TestCPUProbeBareCPU(t *testing.T) {
	probe := CPUProbe{CPU: leafCPU(map[uint32][4]uint32{})}
	assert.False(t, probe.SupportsCounter())
	_, ok := probe.CounterInfo()
	assert.False(t, ok)
	_, ok = probe.BaseFrequencyMHz()
	assert.False(t, ok)
	_, ok = probe.ParavirtTSCKHz()
	assert.False(t, ok)
}
