package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cardtree/pkg/observability"
)

var (
	spinnerFrames   = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinnerInterval = 80 * time.Millisecond
	styleSpinner    = lipgloss.NewStyle().Foreground(colorCyan)
)

// spinner animates a one-line status on w until finish is called or ctx
// ends. detail, when set, is polled on every frame and shown after the
// label.
type spinner struct {
	w      io.Writer
	label  string
	detail func() string

	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
	width int
}

func startSpinner(ctx context.Context, w io.Writer, label string, detail func() string) *spinner {
	s := &spinner{
		w:      w,
		label:  label,
		detail: detail,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.stop:
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *spinner) line(frame string) string {
	line := styleSpinner.Render(frame) + " " + StyleDim.Render(s.label)
	if s.detail != nil {
		if d := s.detail(); d != "" {
			line += "  " + StyleDim.Render(d)
		}
	}
	return line
}

func (s *spinner) draw(frame string) {
	line := s.line(frame)
	fmt.Fprint(s.w, "\r"+line)
	s.width = max(s.width, lipgloss.Width(line))
}

func (s *spinner) clear() {
	if s.width == 0 {
		return
	}
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.width)+"\r")
}

// finish stops the animation and clears the line. It may be called more
// than once.
func (s *spinner) finish() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// layoutProgress counts engine work for the spinner and the summary line.
type layoutProgress struct {
	observability.NoopLayoutHooks

	boxes atomic.Int64
	steps atomic.Int64
}

func (p *layoutProgress) OnBoxUpdate(context.Context, string, float64, float64) {
	p.boxes.Add(1)
}

func (p *layoutProgress) OnReposition(context.Context, string, string) {
	p.steps.Add(1)
}

// String reports the counters, e.g. "3 boxes, 7 steps".
func (p *layoutProgress) String() string {
	return fmt.Sprintf("%d boxes, %d steps", p.boxes.Load(), p.steps.Load())
}
