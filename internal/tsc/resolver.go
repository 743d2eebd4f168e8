// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"log/slog"
	"math/bits"
	"sync"
	"time"

	"rawtime/internal/rtc"

	mapset "github.com/deckarep/golang-set/v2"
)

// Options tune the detection cascade.
type Options struct {
	// Calibrate enables measuring the counter against the calendar when no
	// static source is available.
	Calibrate bool
	// Fallback is used when every other source fails.
	Fallback Frequency
	// Disabled sources are skipped. SourceDefault cannot be disabled.
	Disabled mapset.Set[Source]
}

// DefaultOptions returns calibration enabled, a 3000 MHz fallback and no
// disabled sources.
func DefaultOptions() Options {
	return Options{
		Calibrate: true,
		Fallback:  DefaultFallback,
		Disabled:  mapset.NewSet[Source](),
	}
}

// Resolver determines the counter frequency once and caches it.
type Resolver struct {
	features   FeatureProber
	hypervisor HypervisorProber
	calendar   rtc.Reader
	counter    Counter
	opts       Options
	resolution func() Resolution
}

// NewResolver returns a Resolver. hypervisor and calendar may be nil; a nil
// calendar or rtc.Fixed makes calibration unavailable.
func NewResolver(features FeatureProber, hypervisor HypervisorProber, calendar rtc.Reader, counter Counter, opts Options) *Resolver {
	if opts.Fallback == 0 {
		opts.Fallback = DefaultFallback
	}
	if opts.Disabled == nil {
		opts.Disabled = mapset.NewSet[Source]()
	}
	// a fixed calendar never reaches the next second
	switch calendar.(type) {
	case rtc.Fixed, *rtc.Fixed:
		opts.Calibrate = false
	}
	r := &Resolver{
		features:   features,
		hypervisor: hypervisor,
		calendar:   calendar,
		counter:    counter,
		opts:       opts,
	}
	r.resolution = sync.OnceValue(r.resolve)
	return r
}

// Frequency returns the counter frequency, resolving it on first use. It
// never returns zero. It panics with ErrCounterUnavailable or
// ErrCounterNotInvariant when the hardware cannot back a time source.
func (r *Resolver) Frequency() Frequency {
	return r.resolution().Frequency
}

// Resolution returns the frequency along with how it was obtained.
func (r *Resolver) Resolution() Resolution {
	return r.resolution()
}

func (r *Resolver) resolve() Resolution {
	start := time.Now()
	if !r.features.SupportsCounter() {
		slog.Error("cannot resolve counter frequency", slog.String("error", ErrCounterUnavailable.Error()))
		panic(ErrCounterUnavailable)
	}
	if !r.features.SupportsInvariantCounter() {
		slog.Error("cannot resolve counter frequency", slog.String("error", ErrCounterNotInvariant.Error()))
		panic(ErrCounterNotInvariant)
	}
	res := Resolution{Outcome: r.detect()}
	res.Elapsed = time.Since(start)
	slog.Info("resolved counter frequency",
		slog.Uint64("hz", res.Frequency.Hz()),
		slog.String("source", string(res.Source)),
		slog.Duration("elapsed", res.Elapsed))
	return res
}

type step struct {
	source Source
	detect func() Outcome
}

func (r *Resolver) steps() []step {
	return []step{
		{SourceHypervisor, r.fromHypervisor},
		{SourceCPUID, r.fromCounterInfo},
		{SourceCrystalRatio, r.fromCrystalRatio},
		{SourceCalibration, r.fromCalibration},
	}
}

func (r *Resolver) detect() Outcome {
	for _, s := range r.steps() {
		if r.opts.Disabled.Contains(s.source) {
			slog.Debug("frequency source disabled", slog.String("source", string(s.source)))
			continue
		}
		if outcome := s.detect(); outcome.Available() {
			outcome.Source = s.source
			return outcome
		}
		slog.Debug("frequency source unavailable", slog.String("source", string(s.source)))
	}
	slog.Warn("could not determine counter frequency, assuming default",
		slog.Uint64("hz", r.opts.Fallback.Hz()))
	return Outcome{Frequency: r.opts.Fallback, Source: SourceDefault}
}

// fromHypervisor trusts the rate the hypervisor gives its guests over the
// host identification leaves.
func (r *Resolver) fromHypervisor() Outcome {
	if r.hypervisor == nil {
		return Outcome{}
	}
	khz, ok := r.hypervisor.ParavirtTSCKHz()
	if !ok {
		return Outcome{}
	}
	return Outcome{Frequency: Frequency(khz) * KHz}
}

func (r *Resolver) fromCounterInfo() Outcome {
	info, ok := r.features.CounterInfo()
	if !ok {
		return Outcome{}
	}
	return Outcome{Frequency: Frequency(info.DirectHz)}
}

// fromCrystalRatio anchors the undisclosed crystal rate with the processor
// base frequency, then applies the ratio to it.
func (r *Resolver) fromCrystalRatio() Outcome {
	info, ok := r.features.CounterInfo()
	if !ok || info.Numerator == 0 || info.Denominator == 0 {
		return Outcome{}
	}
	baseMHz, ok := r.features.BaseFrequencyMHz()
	if !ok {
		return Outcome{}
	}
	num, den := uint64(info.Numerator), uint64(info.Denominator)
	hi, scaled := bits.Mul64(uint64(baseMHz)*MHz.Hz(), den)
	if hi != 0 {
		slog.Debug("crystal ratio overflows", slog.Uint64("baseMHz", uint64(baseMHz)), slog.Uint64("denominator", den))
		return Outcome{}
	}
	crystalHz := scaled / num
	hi, scaled = bits.Mul64(crystalHz, num)
	if hi != 0 {
		slog.Debug("crystal ratio overflows", slog.Uint64("crystalHz", crystalHz), slog.Uint64("numerator", num))
		return Outcome{}
	}
	return Outcome{
		Frequency: Frequency(scaled / den),
		CrystalHz: crystalHz,
	}
}

func (r *Resolver) fromCalibration() Outcome {
	if !r.opts.Calibrate || r.calendar == nil {
		return Outcome{}
	}
	slog.Info("calibrating counter against the calendar clock")
	return Outcome{Frequency: Frequency(measure(r.calendar, r.counter))}
}
