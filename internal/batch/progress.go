package batch

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	rePct   = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)
	reSpeed = regexp.MustCompile(`\bat\s+([^\s]+)`)
	reETA   = regexp.MustCompile(`\bETA\s+([0-9:]+)`)
	reOf    = regexp.MustCompile(`\bof\s+([^\s]+)`)
)

// Progress condenses yt-dlp output lines into a single status line for
// terminal display. Handle is safe to call from the fetcher's reader
// goroutines.
type Progress struct {
	index int
	total int
	label string

	mu      sync.Mutex
	phase   string
	pct     string
	speed   string
	eta     string
	totalSz string
}

func NewProgress(index, total int, label string) *Progress {
	if len(label) > 52 {
		label = label[:52] + "..."
	}
	return &Progress{index: index, total: total, label: label, phase: "starting"}
}

func (p *Progress) Handle(line string) {
	l := strings.TrimSpace(line)
	if l == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.HasPrefix(l, "[info]") {
		p.phase = "preparing"
	}
	if strings.HasPrefix(l, "[download]") {
		p.phase = "downloading"
		if m := rePct.FindStringSubmatch(l); len(m) > 1 {
			p.pct = m[1] + "%"
		}
		if m := reSpeed.FindStringSubmatch(l); len(m) > 1 {
			p.speed = m[1]
		}
		if m := reETA.FindStringSubmatch(l); len(m) > 1 {
			p.eta = m[1]
		}
		if m := reOf.FindStringSubmatch(l); len(m) > 1 {
			p.totalSz = m[1]
		}
	}
}

func (p *Progress) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	parts := []string{fmt.Sprintf("[%d/%d]", p.index, p.total), p.phase}
	if p.pct != "" {
		parts = append(parts, p.pct)
	}
	if p.speed != "" {
		parts = append(parts, p.speed)
	}
	if p.eta != "" {
		parts = append(parts, "ETA "+p.eta)
	}
	if p.totalSz != "" {
		parts = append(parts, p.totalSz)
	}
	parts = append(parts, "| "+p.label)
	return strings.Join(parts, "  ")
}
