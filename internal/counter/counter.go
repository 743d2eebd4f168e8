// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package counter is the boundary to the free-running hardware cycle counter
// and the spin-loop pause hint. Nothing above this package touches either
// instruction directly.
package counter

// Hardware reads the processor's counter.
type Hardware struct{}

// ReadCounter returns the raw counter value.
func (Hardware) ReadCounter() uint64 {
	return Read()
}

// Pause hints the processor that the caller is spinning.
func (Hardware) Pause() {
	Pause()
}

// Name identifies the counter implementation in reports.
func (Hardware) Name() string {
	return name
}
