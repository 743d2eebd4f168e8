// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package tsc

import (
	"rawtime/internal/rtc"
)

// measure counts counter ticks across one calendar second. The first wait
// aligns the start sample to a second boundary, so the call spins for
// between one and two seconds. There is no timeout: a calendar that never
// advances never returns.
func measure(calendar rtc.Reader, counter Counter) uint64 {
	spinUntil(calendar, counter, calendar.UnixSeconds()+1)
	second := calendar.UnixSeconds()
	start := counter.ReadCounter()
	spinUntil(calendar, counter, second+1)
	end := counter.ReadCounter()
	if end < start {
		return 0
	}
	return end - start
}

func spinUntil(calendar rtc.Reader, counter Counter, second uint64) {
	for calendar.UnixSeconds() < second {
		counter.Pause()
	}
}
