package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
)

// progressInterval throttles transfer status lines.
const progressInterval = 2 * time.Second

// progressPrinter reports item state changes, and on a terminal also the
// transfer status of running downloads.
type progressPrinter struct {
	out      io.Writer
	detailed bool
	now      func() time.Time

	last       map[*queue.Item]queue.State
	lastDetail time.Time
}

func newProgressPrinter(out io.Writer, detailed bool) *progressPrinter {
	return &progressPrinter{
		out:      out,
		detailed: detailed,
		now:      time.Now,
		last:     map[*queue.Item]queue.State{},
	}
}

// observe runs on the scheduling goroutine after every state change round.
func (p *progressPrinter) observe(q *queue.Queue) {
	for _, it := range q.Items {
		s := it.State()
		prev, seen := p.last[it]
		if seen && prev == s {
			continue
		}
		p.last[it] = s
		if !seen && s == queue.WaitingForDownload {
			continue
		}
		p.line(it.Package.Name, s, s.String())
	}
	if !p.detailed || p.now().Sub(p.lastDetail) < progressInterval {
		return
	}
	p.lastDetail = p.now()
	for _, it := range q.Items {
		if s := it.State(); s == queue.Downloading || s == queue.Hashing {
			p.line(it.Package.Name, s, it.Status())
		}
	}
}

// finish prints the final state of items that never reported completion.
func (p *progressPrinter) finish(q *queue.Queue) {
	for _, it := range q.Items {
		if s := it.State(); p.last[it] != s {
			p.last[it] = s
			p.line(it.Package.Name, s, s.String())
		}
	}
}

func (p *progressPrinter) line(name string, s queue.State, text string) {
	_, _ = fmt.Fprintf(p.out, messages.InstallProgressLineFmt, name, stateColor(s).Sprint(text))
}

func stateColor(s queue.State) *color.Color {
	switch s {
	case queue.Complete:
		return color.New(color.FgGreen)
	case queue.Installing:
		return color.New(color.FgCyan)
	case queue.Downloading, queue.Hashing:
		return color.New(color.FgBlue)
	default:
		return color.New(color.Reset)
	}
}
