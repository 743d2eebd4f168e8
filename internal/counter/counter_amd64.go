// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build amd64

package counter

const name = "rdtsc"

// Read reads the Time Stamp Counter via the RDTSC instruction.
// Implemented in counter_amd64.s
func Read() uint64

// Pause executes the PAUSE instruction.
// Implemented in counter_amd64.s
func Pause()
