package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/patricktcoakley/gdvm-sub001/internal/install"
)

// renderer prints install stages. On a terminal, consecutive Downloading
// updates overwrite one line; elsewhere only stage changes are printed so
// logs stay readable.
type renderer struct {
	mu       sync.Mutex
	w        io.Writer
	tty      bool
	style    style
	last     install.Stage
	started  bool
	lineOpen bool
}

func newRenderer(w io.Writer, tty bool, st style) *renderer {
	return &renderer{w: w, tty: tty, style: st}
}

// Report implements progress.Observer[install.Stage].
func (r *renderer) Report(stage install.Stage, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sameStage := r.started && stage == r.last
	r.last = stage
	r.started = true

	if stage == install.Downloading && sameStage && isTransfer(message) {
		if !r.tty {
			return
		}
		fmt.Fprintf(r.w, "\r\x1b[K  %s", r.style.dim(message))
		r.lineOpen = true
		return
	}

	r.endLine()
	fmt.Fprintf(r.w, "%s %s\n", r.style.stage(fmt.Sprintf("[%s]", stage)), message)
}

// Finish terminates an open progress line.
func (r *renderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLine()
}

func (r *renderer) endLine() {
	if r.lineOpen {
		fmt.Fprintln(r.w)
		r.lineOpen = false
	}
}

// isTransfer reports whether message is a byte counter from the download
// meter rather than a stage description.
func isTransfer(message string) bool {
	return strings.Contains(message, " • ")
}
