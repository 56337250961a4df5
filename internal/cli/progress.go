package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// progressPrinter renders engine events. On a terminal progress is a single updating line;
// otherwise it is logged every ProgressLogStep percent.
type progressPrinter struct {
	out    io.Writer
	tty    bool
	asJSON bool

	mu      sync.Mutex
	logged  map[string]float64
	pending bool
}

func newProgressPrinter(out io.Writer, asJSON bool) *progressPrinter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &progressPrinter{out: out, tty: tty && !asJSON, asJSON: asJSON, logged: make(map[string]float64)}
}

// Emit implements events.Sink.
func (p *progressPrinter) Emit(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.asJSON {
		_ = json.NewEncoder(p.out).Encode(ev)
		return
	}

	switch ev.Kind {
	case events.KindDownloadProgress:
		p.progress(ev)
	case events.KindExtractionStarted:
		p.line(fmt.Sprintf("%s extracting", color.CyanString(ev.ModelID)))
	case events.KindExtractionCompleted:
		p.line(fmt.Sprintf("%s extracted", color.CyanString(ev.ModelID)))
	case events.KindExtractionFailed:
		p.line(fmt.Sprintf("%s %s: %s", color.CyanString(ev.ModelID), color.RedString("extraction failed"), ev.Error))
	case events.KindDownloadComplete:
		delete(p.logged, ev.ModelID)
		p.line(fmt.Sprintf("%s %s", color.CyanString(ev.ModelID), color.GreenString("ready")))
	}
}

func (p *progressPrinter) progress(ev events.Event) {
	total := "?"
	if ev.Total > 0 {
		total = humanize.IBytes(ev.Total)
	}
	if p.tty {
		text := fmt.Sprintf("%s %5.1f%% (%s / %s)", ev.ModelID, ev.Percentage, humanize.IBytes(ev.Downloaded), total)
		_, _ = fmt.Fprintf(p.out, "\r%-*s", ProgressLineWidth, text)
		p.pending = true
		return
	}

	last, seen := p.logged[ev.ModelID]
	if seen && ev.Percentage < last+ProgressLogStep && ev.Percentage < 100 {
		return
	}
	p.logged[ev.ModelID] = ev.Percentage
	logger.Info("Download progress", logger.Fields{
		"model":      ev.ModelID,
		"percentage": fmt.Sprintf("%.1f", ev.Percentage),
		"downloaded": humanize.IBytes(ev.Downloaded),
		"total":      total,
	})
}

// line prints a full line, finishing any progress line first.
func (p *progressPrinter) line(s string) {
	if p.pending {
		_, _ = fmt.Fprintln(p.out)
		p.pending = false
	}
	_, _ = fmt.Fprintln(p.out, s)
}

// finish terminates a pending progress line.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending {
		_, _ = fmt.Fprintln(p.out)
		p.pending = false
	}
}

var _ events.Sink = (*progressPrinter)(nil)
