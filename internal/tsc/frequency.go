// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is a counter tick rate in Hz. Zero means undetermined.
type Frequency uint64

const (
	Hz  Frequency = 1
	KHz           = 1000 * Hz
	MHz           = 1000 * KHz
	GHz           = 1000 * MHz
)

// DefaultFallback is assumed when no source can determine the frequency.
const DefaultFallback = 3000 * MHz

// Hz returns f as a plain integer.
func (f Frequency) Hz() uint64 {
	return uint64(f)
}

func (f Frequency) String() string {
	switch {
	case f >= GHz:
		return fmt.Sprintf("%.3f GHz", float64(f)/float64(GHz))
	case f >= MHz:
		return fmt.Sprintf("%.3f MHz", float64(f)/float64(MHz))
	case f >= KHz:
		return fmt.Sprintf("%.3f kHz", float64(f)/float64(KHz))
	default:
		return fmt.Sprintf("%d Hz", uint64(f))
	}
}

// Source names the step of the detection cascade that produced a frequency.
type Source string

const (
	SourceHypervisor   Source = "hypervisor"
	SourceCPUID        Source = "cpuid"
	SourceCrystalRatio Source = "crystal-ratio"
	SourceCalibration  Source = "calibration"
	SourceDefault      Source = "default"
)

// Sources lists every source in cascade order.
var Sources = []Source{SourceHypervisor, SourceCPUID, SourceCrystalRatio, SourceCalibration, SourceDefault}

// ParseSource returns the Source named s.
func ParseSource(s string) (Source, error) {
	for _, src := range Sources {
		if strings.EqualFold(s, string(src)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown frequency source %q", s)
}

// Outcome is the result of one cascade step.
type Outcome struct {
	Frequency Frequency
	Source    Source
	// CrystalHz is the reference crystal frequency, set only by the
	// crystal-ratio step.
	CrystalHz uint64
}

// Available reports whether the step produced a usable frequency.
func (o Outcome) Available() bool {
	return o.Frequency > 0
}

// Resolution is the published result of the cascade.
type Resolution struct {
	Outcome
	Elapsed time.Duration // time spent resolving
}

var (
	// ErrCounterUnavailable means the processor has no time stamp counter.
	ErrCounterUnavailable = errors.New("TSC not available")
	// ErrCounterNotInvariant means the counter rate follows power and
	// performance state changes.
	ErrCounterNotInvariant = errors.New("hardware not supported (lacks invariant tsc)")
)
