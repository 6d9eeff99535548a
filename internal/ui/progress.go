package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Progress shows an animated status line while validators run. On a
// non-terminal it prints nothing, so piped output stays clean.
type Progress struct {
	w       io.Writer
	enabled bool

	mu      sync.Mutex
	status  string
	settled int
	total   int
	frame   int

	done chan struct{}
	wg   sync.WaitGroup
}

// NewProgress creates a progress line on w. It animates only when display
// is a terminal.
func NewProgress(w io.Writer, display *DisplayContext, total int) *Progress {
	return &Progress{
		w:       w,
		enabled: display != nil && display.IsTTY,
		total:   total,
		done:    make(chan struct{}),
	}
}

// Start begins the animation.
func (p *Progress) Start() {
	if !p.enabled {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				fmt.Fprint(p.w, "\r\033[K")
				return
			case <-ticker.C:
				p.draw()
			}
		}
	}()
}

// SetStatus replaces the status text ("Running(batch 1 of 2)").
func (p *Progress) SetStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// Settle records one finished validator.
func (p *Progress) Settle() {
	p.mu.Lock()
	p.settled++
	p.mu.Unlock()
}

// Stop ends the animation and clears the line. Safe to call once.
func (p *Progress) Stop() {
	if !p.enabled {
		return
	}
	close(p.done)
	p.wg.Wait()
}

func (p *Progress) draw() {
	p.mu.Lock()
	frame := spinnerFrames[p.frame%len(spinnerFrames)]
	p.frame++
	line := fmt.Sprintf("\r\033[K%s %s %s", Bold.Render(frame), p.status,
		Muted.Render(fmt.Sprintf("(%d/%d)", p.settled, p.total)))
	p.mu.Unlock()
	fmt.Fprint(p.w, line)
}
