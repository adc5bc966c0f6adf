// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

/*
Package progress provides a CLI status board: one line per label, redrawn in place on a
terminal and printed line by line otherwise.
*/
package progress

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var spinChars []string = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

type lineState struct {
	label     string
	status    string
	spinIndex int
}

// Board tracks the status of a set of labels. It is not safe for concurrent use.
type Board struct {
	out      io.Writer
	terminal bool
	lines    []lineState
	drawn    int // lines on screen from the previous draw
}

// NewBoard creates a Board writing to stderr.
func NewBoard() *Board {
	return NewBoardTo(os.Stderr)
}

// NewBoardTo creates a Board writing to out. Lines are redrawn in place only when out
// is a terminal.
func NewBoardTo(out io.Writer) *Board {
	b := &Board{out: out}
	if f, ok := out.(*os.File); ok {
		b.terminal = term.IsTerminal(int(f.Fd()))
	}
	return b
}

// Add adds a line to the board
func (b *Board) Add(label string) (err error) {
	for _, line := range b.lines {
		if line.label == label {
			err = fmt.Errorf("line with label %s already exists", label)
			return
		}
	}
	b.lines = append(b.lines, lineState{label: label, status: "?"})
	if b.terminal {
		b.draw()
	}
	return
}

// Status updates the status of a line and redraws the board
func (b *Board) Status(label string, status string) (err error) {
	for i, line := range b.lines {
		if line.label == label {
			if status == line.status {
				return
			}
			b.lines[i].status = status
			b.lines[i].spinIndex = (line.spinIndex + 1) % len(spinChars)
			if b.terminal {
				b.draw()
			} else {
				fmt.Fprintf(b.out, "%-20s  %s\n", label, status)
			}
			return
		}
	}
	err = fmt.Errorf("did not find line with label %s", label)
	return
}

// Finish leaves the cursor below the board.
func (b *Board) Finish() {
	b.drawn = 0
}

func (b *Board) draw() {
	for range b.drawn {
		fmt.Fprintf(b.out, "\x1b[1A")
	}
	for _, line := range b.lines {
		fmt.Fprintf(b.out, "\x1b[2K%-20s  %s  %-40s\n", line.label, spinChars[line.spinIndex], line.status)
	}
	b.drawn = len(b.lines)
}
