package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/queue"
)

func TestProgressPrinterReportsChanges(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	p := newProgressPrinter(&out, false)
	q := &queue.Queue{Items: []*queue.Item{
		{Package: catalog.Package{Name: "Unity"}},
		{Package: catalog.Package{Name: "Documentation"}},
	}}

	p.observe(q)
	if out.Len() != 0 {
		t.Fatalf("waiting items should not be reported, got %q", out.String())
	}

	q.Items[0].SetState(queue.Downloading)
	p.observe(q)
	p.observe(q)
	if n := strings.Count(out.String(), "Unity"); n != 1 {
		t.Fatalf("expected one Unity line, got %d:\n%s", n, out.String())
	}

	q.Items[0].SetState(queue.Complete)
	q.Items[1].SetState(queue.Installing)
	p.finish(q)
	got := out.String()
	if !strings.Contains(got, "complete") || !strings.Contains(got, "installing") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestProgressPrinterDetailedThrottles(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	now := time.Unix(0, 0)
	p := newProgressPrinter(&out, true)
	p.now = func() time.Time { return now }
	q := &queue.Queue{Items: []*queue.Item{{Package: catalog.Package{Name: "Unity", Size: 100}}}}
	q.Items[0].SetState(queue.Downloading)

	p.observe(q)
	lines := strings.Count(out.String(), "\n")
	p.observe(q)
	if strings.Count(out.String(), "\n") != lines {
		t.Fatalf("status repeated before the interval elapsed:\n%s", out.String())
	}
	now = now.Add(progressInterval)
	p.observe(q)
	if strings.Count(out.String(), "\n") != lines+1 {
		t.Fatalf("expected one status line after the interval:\n%s", out.String())
	}
}
