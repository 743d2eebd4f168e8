// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package tsc turns the raw time stamp counter into nanoseconds.
//
// The counter frequency is resolved once per Clock through a cascade of
// sources: the hypervisor's paravirtual hint, the frequency the processor
// reports directly, the frequency derived from the crystal ratio and base
// frequency, calibration against the calendar clock and finally a fixed
// default. A Clock is built at startup and shared by everything that needs
// time.
package tsc

import (
	"rawtime/internal/counter"
	"rawtime/internal/cpuid"
	"rawtime/internal/rtc"
)

// Clock is the process-wide time context.
type Clock struct {
	resolver *Resolver
	counter  Counter
	calendar rtc.Reader
}

// NewClock returns a Clock over the given collaborators.
func NewClock(features FeatureProber, hypervisor HypervisorProber, calendar rtc.Reader, ctr Counter, opts Options) *Clock {
	return &Clock{
		resolver: NewResolver(features, hypervisor, calendar, ctr, opts),
		counter:  ctr,
		calendar: calendar,
	}
}

// NewHostClock returns a Clock over this processor's CPUID leaves and
// counter.
func NewHostClock(calendar rtc.Reader, opts Options) *Clock {
	probe := CPUProbe{CPU: cpuid.New()}
	return NewClock(probe, probe, calendar, counter.Hardware{}, opts)
}

// Frequency returns the resolved counter frequency.
func (c *Clock) Frequency() Frequency {
	return c.resolver.Frequency()
}

// Resolution returns the resolved frequency and how it was obtained.
func (c *Clock) Resolution() Resolution {
	return c.resolver.Resolution()
}

// TicksToNanoseconds converts a counter sample at the resolved frequency.
func (c *Clock) TicksToNanoseconds(sample uint64) uint64 {
	return TicksToNanoseconds(sample, c.Frequency())
}

// PreciseTimeNow reads the counter and converts it. The value has no epoch;
// it is only comparable with other values from the same process.
func (c *Clock) PreciseTimeNow() uint64 {
	sample := c.counter.ReadCounter()
	return c.TicksToNanoseconds(sample)
}

// Wallclock returns the calendar time. A Clock without a calendar reports
// rtc.FixedTime.
func (c *Clock) Wallclock() rtc.CalendarTime {
	if c.calendar == nil {
		return rtc.FixedTime
	}
	return c.calendar.Now()
}
