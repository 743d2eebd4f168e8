// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !amd64

package counter

import (
	"runtime"
	"time"
)

// Without a cycle counter the monotonic clock stands in, ticking at 1 GHz.
// The CPU prober reports no counter on these platforms, so a resolver built
// on the native probes refuses to run.

const name = "monotonic"

var epoch = time.Now()

// Read returns nanoseconds since package initialization.
func Read() uint64 {
	return uint64(time.Since(epoch).Nanoseconds()) // #nosec G115
}

// Pause yields the processor.
func Pause() {
	runtime.Gosched()
}
