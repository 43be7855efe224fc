package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const barWidth = 20

// ProgressDisplay redraws a single status line while a file downloads.
// Without a terminal it stays silent until Complete or Fail.
type ProgressDisplay struct {
	mu         sync.Mutex
	printer    *Printer
	name       string
	startTime  time.Time
	lastDraw   time.Time
	written    int64
	total      int64
	minRefresh time.Duration
}

// NewProgressDisplay creates a display labelled name
func NewProgressDisplay(printer *Printer, name string) *ProgressDisplay {
	return &ProgressDisplay{
		printer:    printer,
		name:       name,
		startTime:  time.Now(),
		total:      -1,
		minRefresh: 100 * time.Millisecond,
	}
}

// Update records progress; it matches lucida.ProgressFunc
func (p *ProgressDisplay) Update(written, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.written = written
	p.total = total

	if !p.printer.color {
		return
	}
	now := time.Now()
	if now.Sub(p.lastDraw) < p.minRefresh && (total <= 0 || written < total) {
		return
	}
	p.lastDraw = now
	fmt.Fprintf(p.printer.out, "\r%s\r%s", strings.Repeat(" ", 100), p.line(now))
}

func (p *ProgressDisplay) line(now time.Time) string {
	elapsed := now.Sub(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.written) / elapsed.Seconds()
	}

	parts := []string{p.printer.render(labelStyle, p.name)}
	if p.total > 0 {
		filled := int(float64(p.written) / float64(p.total) * barWidth)
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
		parts = append(parts, fmt.Sprintf("[%s] %s/%s", bar, FormatBytes(p.written), FormatBytes(p.total)))
	} else {
		parts = append(parts, FormatBytes(p.written))
	}
	parts = append(parts, FormatBytes(int64(rate))+"/s")
	return strings.Join(parts, " • ")
}

// Complete finishes the line and prints a summary
func (p *ProgressDisplay) Complete(path string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.printer.color {
		fmt.Fprintln(p.printer.out)
	}
	elapsed := time.Since(p.startTime)
	p.printer.Success(fmt.Sprintf("Saved %s", path))
	p.printer.Dim(fmt.Sprintf("  • %d bytes (%s) in %s", size, FormatBytes(size), FormatDuration(elapsed)))
}

// Fail finishes the line and prints err
func (p *ProgressDisplay) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.printer.color && p.written > 0 {
		fmt.Fprintln(p.printer.out)
	}
	p.printer.Error("Download failed", err)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
