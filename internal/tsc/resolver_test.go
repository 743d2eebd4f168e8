// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"sync"
	"testing"
	"time"

	"rawtime/internal/rtc"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noCalibration() Options {
	opts := DefaultOptions()
	opts.Calibrate = false
	return opts
}

func TestHypervisorWins(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{DirectHz: 3_000_000_000}}
	r := NewResolver(features, fakeHypervisor{khz: 2_000_000}, nil, stoppedCounter{}, noCalibration())
	assert.Equal(t, Frequency(2_000_000_000), r.Frequency())
	assert.Equal(t, SourceHypervisor, r.Resolution().Source)
}

func TestDirectFrequency(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{DirectHz: 3_000_000_000, Numerator: 2, Denominator: 1}, baseMHz: 100}
	r := NewResolver(features, fakeHypervisor{}, nil, stoppedCounter{}, noCalibration())
	assert.Equal(t, Frequency(3_000_000_000), r.Frequency())
	assert.Equal(t, SourceCPUID, r.Resolution().Source)
}

func TestCrystalRatio(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{Numerator: 2, Denominator: 1}, baseMHz: 100}
	r := NewResolver(features, nil, nil, stoppedCounter{}, noCalibration())
	res := r.Resolution()
	assert.Equal(t, Frequency(100_000_000), res.Frequency)
	assert.Equal(t, uint64(50_000_000), res.CrystalHz)
	assert.Equal(t, SourceCrystalRatio, res.Source)
}

func TestCrystalRatioIncomplete(t *testing.T) {
	tests := []struct {
		name     string
		features *fakeFeatures
	}{
		{"no leaf", &fakeFeatures{baseMHz: 100}},
		{"zero numerator", &fakeFeatures{info: &CounterInfo{Denominator: 1}, baseMHz: 100}},
		{"zero denominator", &fakeFeatures{info: &CounterInfo{Numerator: 2}, baseMHz: 100}},
		{"no base frequency", &fakeFeatures{info: &CounterInfo{Numerator: 2, Denominator: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.features, nil, nil, stoppedCounter{}, noCalibration())
			assert.Equal(t, SourceDefault, r.Resolution().Source)
		})
	}
}

func TestCrystalRatioLargeDenominator(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{Numerator: 1, Denominator: 200_000}, baseMHz: 65535}
	r := NewResolver(features, nil, nil, stoppedCounter{}, noCalibration())
	res := r.Resolution()
	assert.Equal(t, SourceCrystalRatio, res.Source)
	assert.Equal(t, 65535*MHz, res.Frequency)

	// 65535 MHz * 2^30 does not fit in 64 bits
	features = &fakeFeatures{info: &CounterInfo{Numerator: 1, Denominator: 1 << 30}, baseMHz: 65535}
	r = NewResolver(features, nil, nil, stoppedCounter{}, noCalibration())
	res = r.Resolution()
	assert.Equal(t, SourceDefault, res.Source)
	assert.Zero(t, res.CrystalHz)
}

func TestTotalCascadeFailure(t *testing.T) {
	r := NewResolver(&fakeFeatures{}, fakeHypervisor{}, rtc.Fixed{}, stoppedCounter{}, noCalibration())
	assert.Equal(t, DefaultFallback, r.Frequency())
	assert.Equal(t, Frequency(3_000_000_000), r.Frequency())
	assert.Equal(t, SourceDefault, r.Resolution().Source)
}

func TestCustomFallback(t *testing.T) {
	opts := noCalibration()
	opts.Fallback = 2400 * MHz
	r := NewResolver(&fakeFeatures{}, nil, nil, stoppedCounter{}, opts)
	assert.Equal(t, Frequency(2_400_000_000), r.Frequency())
}

func TestZeroOptionsUseDefaults(t *testing.T) {
	r := NewResolver(&fakeFeatures{}, nil, nil, stoppedCounter{}, Options{})
	assert.Equal(t, DefaultFallback, r.Frequency())
}

func TestDisabledSources(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{DirectHz: 3_000_000_000, Numerator: 2, Denominator: 1}, baseMHz: 100}
	opts := noCalibration()
	opts.Disabled = mapset.NewSet(SourceHypervisor, SourceCPUID)
	r := NewResolver(features, fakeHypervisor{khz: 2_000_000}, nil, stoppedCounter{}, opts)
	assert.Equal(t, Frequency(100_000_000), r.Frequency())
	assert.Equal(t, SourceCrystalRatio, r.Resolution().Source)
}

func TestMissingCounterIsFatal(t *testing.T) {
	r := NewResolver(&fakeFeatures{noCounter: true}, fakeHypervisor{khz: 2_000_000}, nil, stoppedCounter{}, noCalibration())
	assert.PanicsWithError(t, ErrCounterUnavailable.Error(), func() { r.Frequency() })
	// the failure is sticky
	assert.PanicsWithError(t, ErrCounterUnavailable.Error(), func() { r.Resolution() })
}

func TestNonInvariantCounterIsFatal(t *testing.T) {
	r := NewResolver(&fakeFeatures{notInvariant: true}, fakeHypervisor{khz: 2_000_000}, nil, stoppedCounter{}, noCalibration())
	assert.PanicsWithError(t, ErrCounterNotInvariant.Error(), func() { r.Frequency() })
}

func TestResolveIsIdempotent(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{DirectHz: 2_100_000_000}}
	r := NewResolver(features, nil, nil, stoppedCounter{}, noCalibration())
	first := r.Frequency()
	for range 100 {
		assert.Equal(t, first, r.Frequency())
	}
	assert.Equal(t, int32(1), features.probes.Load())
}

func TestResolveConcurrently(t *testing.T) {
	features := &fakeFeatures{info: &CounterInfo{Numerator: 176, Denominator: 2}, baseMHz: 2100}
	r := NewResolver(features, nil, nil, stoppedCounter{}, noCalibration())

	const callers = 64
	results := make([]Frequency, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i] = r.Frequency()
		}()
	}
	close(start)
	wg.Wait()

	for _, f := range results {
		assert.Equal(t, results[0], f)
	}
	assert.NotZero(t, results[0])
	assert.Equal(t, int32(1), features.probes.Load())
}

func TestCalibration(t *testing.T) {
	tests := []struct {
		name  string
		start uint64
		step  uint64
		rate  uint64
	}{
		{"aligned 2.1 GHz", 300_000_000, 1_000_000, 2_100_000_000},
		{"unaligned 3.7 GHz", 123_456_789, 99_991, 3_700_000_000},
		{"slow 24 MHz", 999_000_000, 250_000, 24_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &simulatedMachine{nanos: tt.start, step: tt.step, rate: tt.rate}
			r := NewResolver(&fakeFeatures{}, fakeHypervisor{}, m, m, DefaultOptions())
			res := r.Resolution()
			require.Equal(t, SourceCalibration, res.Source)
			assert.InDelta(t, float64(tt.rate), float64(res.Frequency), float64(tt.rate)*0.001)
			// boundary alignment plus one full second
			assert.GreaterOrEqual(t, m.nanos, uint64(2_000_000_000))
		})
	}
}

func TestCalibrationDisabled(t *testing.T) {
	m := &simulatedMachine{step: 1_000_000, rate: 2_000_000_000}
	opts := DefaultOptions()
	opts.Disabled.Add(SourceCalibration)
	r := NewResolver(&fakeFeatures{}, nil, m, m, opts)
	assert.Equal(t, SourceDefault, r.Resolution().Source)
	assert.Zero(t, m.nanos)
}

func TestCalibrationNeedsMovingCalendar(t *testing.T) {
	for _, calendar := range []rtc.Reader{rtc.Fixed{}, &rtc.Fixed{}} {
		r := NewResolver(&fakeFeatures{}, nil, calendar, stoppedCounter{}, DefaultOptions())
		done := make(chan Source, 1)
		go func() { done <- r.Resolution().Source }()
		select {
		case src := <-done:
			assert.Equal(t, SourceDefault, src)
		case <-time.After(5 * time.Second):
			t.Fatalf("calibration against %T did not return", calendar)
		}
	}
}

func TestCalibrationStoppedCounter(t *testing.T) {
	m := &simulatedMachine{step: 10_000_000}
	r := NewResolver(&fakeFeatures{}, nil, m, m, DefaultOptions())
	// a counter that does not move measures zero, which is not a frequency
	assert.Equal(t, SourceDefault, r.Resolution().Source)
	assert.Equal(t, DefaultFallback, r.Frequency())
}

func TestParseSource(t *testing.T) {
	for _, src := range Sources {
		got, err := ParseSource(string(src))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
	got, err := ParseSource("CPUID")
	require.NoError(t, err)
	assert.Equal(t, SourceCPUID, got)
	_, err = ParseSource("hpet")
	assert.Error(t, err)
}

func TestFrequencyString(t *testing.T) {
	assert.Equal(t, "2.100 GHz", (2100 * MHz).String())
	assert.Equal(t, "24.000 MHz", (24 * MHz).String())
	assert.Equal(t, "32.768 kHz", Frequency(32768).String())
	assert.Equal(t, "7 Hz", Frequency(7).String())
}
