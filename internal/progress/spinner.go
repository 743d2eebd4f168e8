// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

/*
Package progress shows a spinner on the terminal while a blocking step,
e.g., counter calibration, is running.
*/
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinChars []string = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

type Spinner struct {
	out         io.Writer
	isTerminal  bool
	label       string
	status      string
	statusIsNew bool
	spinIndex   int
	ticker      *time.Ticker
	done        chan bool
	spinning    bool
	mu          sync.Mutex
}

// NewSpinner creates a spinner that draws on stderr
func NewSpinner(label string) *Spinner {
	return NewSpinnerWriter(label, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewSpinnerWriter creates a spinner that draws on out. When out is not a
// terminal only status changes are written.
func NewSpinnerWriter(label string, out io.Writer, isTerminal bool) *Spinner {
	return &Spinner{
		out:        out,
		isTerminal: isTerminal,
		label:      label,
		status:     "?",
		done:       make(chan bool),
	}
}

// Start starts the spinner
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spinning {
		return
	}
	s.draw(true)
	s.ticker = time.NewTicker(250 * time.Millisecond)
	s.spinning = true
	go s.onTick()
}

// Finish stops the spinner
func (s *Spinner) Finish() {
	s.mu.Lock()
	if !s.spinning {
		s.mu.Unlock()
		return
	}
	s.spinning = false
	s.ticker.Stop()
	s.mu.Unlock()
	s.done <- true
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draw(false)
}

// Status updates the status text
func (s *Spinner) Status(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status != s.status {
		s.status = status
		s.statusIsNew = true
	}
}

func (s *Spinner) onTick() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.mu.Lock()
			s.draw(true)
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) draw(goUp bool) {
	if !s.isTerminal && !s.statusIsNew {
		return
	}
	fmt.Fprintf(s.out, "%-20s  %s  %-40s\n", s.label, spinChars[s.spinIndex], s.status)
	s.statusIsNew = false
	s.spinIndex = (s.spinIndex + 1) % len(spinChars)
	if goUp && s.isTerminal {
		fmt.Fprintf(s.out, "\x1b[1A")
	}
}
