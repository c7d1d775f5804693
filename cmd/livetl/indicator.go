package main

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/ZaguanLabs/livetl"
)

// indicator prints the busy signals of an engine.
type indicator struct {
	mu    sync.Mutex
	w     io.Writer
	busy  *color.Color
	done  *color.Color
	warn  *color.Color
	fail  *color.Color
	quiet bool
}

func newIndicator(w io.Writer, quiet bool) *indicator {
	return &indicator{
		w:     w,
		busy:  color.New(color.FgCyan),
		done:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed, color.Bold),
		quiet: quiet,
	}
}

// Handle is a livetl.EventHandler.
func (i *indicator) Handle(ev livetl.Event) {
	if i.quiet {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	switch ev.Type {
	case livetl.Started:
		i.busy.Fprintf(i.w, "… translating to %s\n", livetl.GetLanguageName(ev.Lang))
	case livetl.Ended:
		switch {
		case ev.Forced:
			i.warn.Fprintf(i.w, "! gave up on %s after the watchdog fired\n", ev.Lang)
		case ev.Err != nil:
			i.fail.Fprintf(i.w, "✗ %s: %v\n", ev.Lang, ev.Err)
		default:
			i.done.Fprintf(i.w, "✓ %s ready\n", livetl.GetLanguageName(ev.Lang))
		}
	}
}
