// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package rtc

import (
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DefaultDevice is the kernel's primary real-time clock.
const DefaultDevice = "/dev/rtc0"

// Device reads the real-time clock registers through a Linux RTC character
// device. The hardware clock is assumed to keep UTC.
type Device struct {
	path string
	fd   int
	host Host
}

// OpenDevice opens the RTC device at path and verifies that it can be read.
func OpenDevice(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open the rtc device %s", path)
	}
	d := &Device{path: path, fd: fd}
	if _, err := d.read(); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return d, nil
}

// Close releases the device.
func (d *Device) Close() error {
	return errors.Wrap(unix.Close(d.fd), "couldn't close the rtc device")
}

// Path returns the device path.
func (d *Device) Path() string {
	return d.path
}

func (d *Device) read() (CalendarTime, error) {
	tm, err := unix.IoctlGetRTCTime(d.fd)
	if err != nil {
		return CalendarTime{}, errors.Wrapf(err, "RTC_RD_TIME failed on %s", d.path)
	}
	return CalendarTime{
		Sec:  uint8(tm.Sec),
		Min:  uint8(tm.Min),
		Hour: uint8(tm.Hour),
		Day:  uint8(tm.Mday),
		Mon:  uint8(tm.Mon + 1),
		Year: uint64(tm.Year + 1900),
	}, nil
}

// Now reads the clock registers. A failed read falls back to the host clock.
func (d *Device) Now() CalendarTime {
	ct, err := d.read()
	if err != nil {
		slog.Debug("falling back to host clock", slog.String("error", err.Error()))
		return d.host.Now()
	}
	return ct
}

func (d *Device) UnixSeconds() uint64 {
	ct, err := d.read()
	if err != nil {
		slog.Debug("falling back to host clock", slog.String("error", err.Error()))
		return d.host.UnixSeconds()
	}
	return ct.Unix()
}
