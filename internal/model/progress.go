package model

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Partition divides a number of iterations into chunks that each take
// roughly period, estimating the cost of one iteration from the chunks
// already completed.
type Partition struct {
	total   int
	left    int
	next    int
	started bool
	period  time.Duration
	start   time.Time
	now     func() time.Time
}

// NewPartition starts timing immediately. now may be nil.
func NewPartition(iterations int, period time.Duration, now func() time.Time) *Partition {
	if now == nil {
		now = time.Now
	}
	return &Partition{total: iterations, left: iterations, period: period, start: now(), now: now}
}

// Next returns the size of the next chunk, assuming the previous one has
// completed, or 0 when all iterations have been handed out.
func (p *Partition) Next() int {
	if !p.started {
		p.started = true
		p.next = 1
	} else {
		p.left -= p.next
		done := p.total - p.left
		if elapsed := p.now().Sub(p.start); elapsed > 0 {
			p.next = int(float64(p.period) * float64(done) / float64(elapsed))
		} else {
			p.next *= 2
		}
	}
	if p.left <= 0 {
		return 0
	}
	if p.next < 1 {
		p.next = 1
	}
	if p.next > p.left {
		p.next = p.left
	}
	return p.next
}

// Progress renders "iterations X of Y, elapsed E, remaining R". On a
// terminal the line is rewritten in place; otherwise one line is printed per
// refresh.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	header  string
	refresh time.Duration
	now     func() time.Time
	start   time.Time
	last    time.Time
	done    int
	total   int
	prevLen int
}

// NewProgress writes to w every refresh interval.
func NewProgress(w io.Writer, total int, header string, refresh time.Duration) *Progress {
	p := &Progress{w: w, header: header, refresh: refresh, total: total, now: time.Now}
	if f, ok := w.(*os.File); ok {
		p.tty = term.IsTerminal(int(f.Fd()))
	}
	p.start = p.now()
	p.last = p.start
	return p
}

// Add records n completed iterations.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	if t := p.now(); t.Sub(p.last) >= p.refresh {
		p.last = t
		p.write(p.render())
	}
}

// Finish forces a final render.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = p.now()
	p.write(p.render())
	if p.tty {
		io.WriteString(p.w, "\n")
	}
}

func (p *Progress) render() string {
	elapsed := p.last.Sub(p.start)
	remaining := "unknown"
	if p.done > 0 {
		per := elapsed / time.Duration(p.done)
		remaining = (per * time.Duration(p.total-p.done)).Round(time.Second).String()
	}
	return fmt.Sprintf("%siterations %d of %d, elapsed %s, remaining %s",
		p.header, p.done, p.total, elapsed.Round(time.Second), remaining)
}

func (p *Progress) write(line string) {
	if p.tty {
		n := p.prevLen
		io.WriteString(p.w, strings.Repeat("\b", n)+strings.Repeat(" ", n)+strings.Repeat("\b", n))
		io.WriteString(p.w, line)
		p.prevLen = len(line)
		return
	}
	io.WriteString(p.w, line+"\n")
}
