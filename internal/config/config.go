// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the rawtime configuration file and turns it into the
// calendar reader and resolver options used to build a tsc.Clock.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"rawtime/internal/rtc"
	"rawtime/internal/tsc"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v2"
)

// calendar choices
const (
	CalendarRTC  = "rtc"
	CalendarHost = "host"
	CalendarNone = "none"
)

var CalendarOptions = []string{CalendarRTC, CalendarHost, CalendarNone}

// Config is the file format, e.g.:
//
//	calendar: rtc
//	rtc_device: /dev/rtc0
//	calibration: true
//	fallback_mhz: 3000
//	disabled_sources: [hypervisor]
type Config struct {
	Calendar        string   `yaml:"calendar"`
	RTCDevice       string   `yaml:"rtc_device"`
	Calibration     bool     `yaml:"calibration"`
	FallbackMHz     uint64   `yaml:"fallback_mhz"`
	DisabledSources []string `yaml:"disabled_sources"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	calendar := CalendarRTC
	if rtc.DefaultDevice == "" {
		calendar = CalendarHost
	}
	return Config{
		Calendar:    calendar,
		RTCDevice:   rtc.DefaultDevice,
		Calibration: true,
		FallbackMHz: uint64(tsc.DefaultFallback / tsc.MHz),
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if !slices.Contains(CalendarOptions, c.Calendar) {
		return fmt.Errorf("calendar options are: %s", strings.Join(CalendarOptions, ", "))
	}
	if c.Calendar == CalendarRTC && c.RTCDevice == "" {
		return fmt.Errorf("rtc calendar requires a device path")
	}
	if c.FallbackMHz == 0 {
		return fmt.Errorf("fallback frequency must be greater than 0")
	}
	_, err := c.disabled()
	return err
}

func (c Config) disabled() (mapset.Set[tsc.Source], error) {
	set := mapset.NewSet[tsc.Source]()
	for _, name := range c.DisabledSources {
		src, err := tsc.ParseSource(name)
		if err != nil {
			return nil, err
		}
		if src == tsc.SourceDefault {
			return nil, fmt.Errorf("the %s frequency source cannot be disabled", tsc.SourceDefault)
		}
		set.Add(src)
	}
	return set, nil
}

// Options returns the resolver options. Without a calendar there is nothing
// to calibrate against, so calibration is switched off.
func (c Config) Options() (tsc.Options, error) {
	disabled, err := c.disabled()
	if err != nil {
		return tsc.Options{}, err
	}
	return tsc.Options{
		Calibrate: c.Calibration && c.Calendar != CalendarNone,
		Fallback:  tsc.Frequency(c.FallbackMHz) * tsc.MHz,
		Disabled:  disabled,
	}, nil
}

// OpenCalendar returns the configured calendar reader and a function that
// releases it. An RTC device that cannot be opened falls back to the host
// clock.
func (c Config) OpenCalendar() (rtc.Reader, func() error) {
	noop := func() error { return nil }
	switch c.Calendar {
	case CalendarNone:
		return rtc.Fixed{}, noop
	case CalendarRTC:
		dev, err := rtc.OpenDevice(c.RTCDevice)
		if err != nil {
			slog.Warn("rtc device unavailable, using host clock", slog.String("device", c.RTCDevice), slog.String("error", err.Error()))
			return rtc.Host{}, noop
		}
		slog.Debug("reading calendar from rtc device", slog.String("device", dev.Path()))
		return dev, dev.Close
	default:
		return rtc.Host{}, noop
	}
}

// NewClock builds the process clock from the configuration.
func (c Config) NewClock() (*tsc.Clock, func() error, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, nil, err
	}
	calendar, closeCalendar := c.OpenCalendar()
	return tsc.NewHostClock(calendar, opts), closeCalendar, nil
}
