// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package rtc

import (
	"github.com/pkg/errors"
)

const DefaultDevice = ""

// Device is only available on Linux.
type Device struct{}

func OpenDevice(path string) (*Device, error) {
	return nil, errors.Wrapf(ErrNoDevice, "couldn't open the rtc device %s", path)
}

func (d *Device) Close() error        { return nil }
func (d *Device) Path() string        { return "" }
func (d *Device) Now() CalendarTime   { return Host{}.Now() }
func (d *Device) UnixSeconds() uint64 { return Host{}.UnixSeconds() }
