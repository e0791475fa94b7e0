package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"golang.org/x/term"

	"github.com/Klingon-tech/churn/internal/churn"
)

// minBarWait is the shortest wait that gets a progress bar; pacing delays
// between sweeps stay silent.
const minBarWait = 2 * time.Second

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question and reads one line of answer.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// progressWaiter waits like churn.ClockWaiter and, when out is a terminal,
// redraws a progress bar once per second.
type progressWaiter struct {
	clock clock.Clock
	inner *churn.ClockWaiter
	out   *os.File
	tty   bool
}

func newProgressWaiter(c clock.Clock, out *os.File) *progressWaiter {
	return &progressWaiter{
		clock: c,
		inner: churn.NewClockWaiter(c),
		out:   out,
		tty:   isTerminal(out),
	}
}

func (p *progressWaiter) Wait(ctx context.Context, d time.Duration) error {
	if !p.tty || d < minBarWait {
		return p.inner.Wait(ctx, d)
	}

	start := p.clock.Now()
	deadline := start.Add(d)
	defer fmt.Fprint(p.out, "\r\033[K")

	for {
		now := p.clock.Now()
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			return nil
		}
		fmt.Fprint(p.out, "\r"+renderBar(p.width(), now.Sub(start), d))

		step := time.Second
		if remaining < step {
			step = remaining
		}
		if err := p.inner.Wait(ctx, step); err != nil {
			return err
		}
	}
}

func (p *progressWaiter) width() int {
	w, _, err := term.GetSize(int(p.out.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// renderBar draws "[=====>    ]  42% 00:12:34 left" one column narrower
// than width so the cursor never wraps.
func renderBar(width int, elapsed, total time.Duration) string {
	if total <= 0 {
		total = 1
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	left := total - elapsed
	h := int(left / time.Hour)
	m := int(left%time.Hour) / int(time.Minute)
	s := int(left%time.Minute) / int(time.Second)
	pct := int(elapsed * 100 / total)
	suffix := fmt.Sprintf(" %3d%% %02d:%02d:%02d left", pct, h, m, s)

	barWidth := width - len(suffix) - 3
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(int64(barWidth) * int64(elapsed) / int64(total))

	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			b.WriteByte('=')
		case i == filled:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(']')
	b.WriteString(suffix)
	return b.String()
}
