// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

const nanosPerSecond = 1_000_000_000

// TicksToNanoseconds converts a counter sample to nanoseconds at frequency f,
// truncating toward zero. Truncation keeps differences of converted samples
// monotonic. f must be positive; zero yields zero.
func TicksToNanoseconds(sample uint64, f Frequency) uint64 {
	if f == 0 {
		return 0
	}
	return uint64(float64(sample) / (float64(f) / nanosPerSecond))
}
