package upload

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// progressInterval throttles progress lines per asset.
const progressInterval = 500 * time.Millisecond

var (
	pathStyle   = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Reporter renders job events as terminal lines. Handle is safe to use as
// the OnEvent callback of a concurrent run.
type Reporter struct {
	mu        sync.Mutex
	w         io.Writer
	started   time.Time
	total     int64
	lastBytes map[string]int64
	lastSeen  map[string]time.Time
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		w:         w,
		started:   time.Now(),
		lastBytes: make(map[string]int64),
		lastSeen:  make(map[string]time.Time),
	}
}

func (r *Reporter) Handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case EventProgress:
		if delta := ev.Bytes - r.lastBytes[ev.Path]; delta > 0 {
			r.total += delta
		}
		r.lastBytes[ev.Path] = ev.Bytes

		now := time.Now()
		if now.Sub(r.lastSeen[ev.Path]) < progressInterval {
			return
		}
		r.lastSeen[ev.Path] = now
		line := fmt.Sprintf("%s (%s)", humanize.IBytes(uint64(ev.Bytes)), r.rate())
		r.printLine(ev.Path, subtleStyle.Render(line))
	case EventStatus:
		label := ev.Status
		switch ev.Status {
		case StatusDone:
			label = okStyle.Render(label)
		case StatusSkipped:
			label = warnStyle.Render(label)
		}
		if ev.Message != "" {
			if label != "" {
				label += " "
			}
			label += ev.Message
		}
		r.printLine(ev.Path, label)
	case EventError:
		r.printLine(ev.Path, errStyle.Render("ERROR")+" "+ev.Message)
	}
}

// rate is the mean transfer rate since the reporter was created. Callers must
// hold r.mu.
func (r *Reporter) rate() string {
	elapsed := time.Since(r.started).Seconds()
	if elapsed <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(float64(r.total)/elapsed)) + "/s"
}

func (r *Reporter) printLine(path, text string) {
	fmt.Fprintf(r.w, "%s  %s\n", pathStyle.Render(path), text)
}

// Summary prints the batch totals after a run has finished.
func (r *Reporter) Summary(result *BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	done, skipped, errored := result.Summary()
	fmt.Fprintf(r.w, "\n%s done, %s skipped, %s errored\n",
		okStyle.Render(fmt.Sprint(done)),
		warnStyle.Render(fmt.Sprint(skipped)),
		errStyle.Render(fmt.Sprint(errored)),
	)
	if transferred := result.TransferredBytes(); transferred > 0 {
		fmt.Fprintf(r.w, "%s transferred (%s)\n",
			humanize.IBytes(uint64(transferred)), result.Rate())
	}
	if !result.ValidateOK() {
		fmt.Fprintln(r.w, warnStyle.Render("one or more assets failed validation"))
	}

	for _, outcome := range result.Outcomes() {
		for _, msg := range outcome.Errors() {
			fmt.Fprintf(r.w, "%s  %s\n", pathStyle.Render(outcome.Path), errStyle.Render(msg))
		}
	}
}
