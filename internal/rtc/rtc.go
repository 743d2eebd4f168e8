// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package rtc reads calendar time. The readers here are trusted as-is; none of
// them is calibrated and all of them resolve whole seconds only.
package rtc

import (
	"errors"
	"fmt"
	"time"
)

// CalendarTime is a calendar date and time of day.
type CalendarTime struct {
	Sec  uint8  `json:"sec" yaml:"sec"`
	Min  uint8  `json:"min" yaml:"min"`
	Hour uint8  `json:"hour" yaml:"hour"`
	Day  uint8  `json:"day" yaml:"day"`
	Mon  uint8  `json:"mon" yaml:"mon"` // 1-12
	Year uint64 `json:"year" yaml:"year"`
}

// Reader is a source of calendar time.
type Reader interface {
	// Now returns the current calendar time.
	Now() CalendarTime
	// UnixSeconds returns a non-decreasing count of whole seconds.
	UnixSeconds() uint64
}

// FromTime converts t, in its own location, to a CalendarTime.
func FromTime(t time.Time) CalendarTime {
	return CalendarTime{
		Sec:  uint8(t.Second()),
		Min:  uint8(t.Minute()),
		Hour: uint8(t.Hour()),
		Day:  uint8(t.Day()),
		Mon:  uint8(t.Month()),
		Year: uint64(t.Year()),
	}
}

// Time interprets ct as UTC.
func (ct CalendarTime) Time() time.Time {
	return time.Date(int(ct.Year), time.Month(ct.Mon), int(ct.Day), int(ct.Hour), int(ct.Min), int(ct.Sec), 0, time.UTC) // #nosec G115
}

// Unix returns ct as seconds since the Unix epoch. Times before the epoch
// return zero.
func (ct CalendarTime) Unix() uint64 {
	s := ct.Time().Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}

func (ct CalendarTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", ct.Year, ct.Mon, ct.Day, ct.Hour, ct.Min, ct.Sec)
}

// Host reads the host operating system's clock. Like Device it reports UTC,
// so Now().Unix() agrees with UnixSeconds in every time zone.
type Host struct{}

func (Host) Now() CalendarTime {
	return FromTime(time.Now().UTC())
}

func (Host) UnixSeconds() uint64 {
	return uint64(time.Now().Unix()) // #nosec G115
}

// Fixed is a calendar that never moves, for platforms with no calendar source.
// Its second counter never advances, so it cannot drive calibration.
type Fixed struct{}

// FixedTime is the time reported by Fixed.
var FixedTime = CalendarTime{Sec: 1, Min: 1, Hour: 1, Day: 1, Mon: 1, Year: 1900}

func (Fixed) Now() CalendarTime {
	return FixedTime
}

func (Fixed) UnixSeconds() uint64 {
	return FixedTime.Unix()
}

// ErrNoDevice is returned where RTC devices are not supported.
var ErrNoDevice = errors.New("rtc devices are not supported on this platform")
