// Package operator is the interactive side of the pipeline: the prompts a
// human answers while applications run.
package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"jobgate-engine/internal/advisor"
	"jobgate-engine/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// Review is everything shown at the confirmation gate.
type Review struct {
	Job         domain.JobPosting
	Application domain.Application
	Adapter     string
	Answers     map[string]string
	Advice      *advisor.Advice
}

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B"))
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77"))
	boxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)
)

// Terminal prompts on a line-oriented terminal. Only one prompt is ever
// open at a time.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer

	// one reader goroutine owns in; prompts receive from lines
	start sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, lines: make(chan lineResult)}
}

func Stdio() *Terminal { return NewTerminal(os.Stdin, os.Stdout) }

// Ask requests an answer for a form question the profile cannot fill.
// An empty line leaves the field blank.
func (t *Terminal) Ask(ctx context.Context, ats domain.ATSType, question string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("New question ("+string(ats)+")"),
		question,
		mutedStyle.Render("Your answer is saved and reused for this question. Empty leaves it blank."),
	)
	fmt.Fprintln(t.out, boxStyle.Render(body))
	fmt.Fprint(t.out, "> ")
	line, err := t.readLine(ctx)
	return strings.TrimSpace(line), err
}

// Gate shows the review panel and returns the operator's raw input.
func (t *Terminal) Gate(ctx context.Context, r Review) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out, RenderReview(r))
	fmt.Fprint(t.out, warnStyle.Render("Type YES to submit")+mutedStyle.Render(" (anything else skips): "))
	line, err := t.readLine(ctx)
	return strings.TrimRight(line, "\r\n"), err
}

// Pause prints instructions and waits for ENTER.
func (t *Terminal) Pause(ctx context.Context, instructions string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out, boxStyle.Render(titleStyle.Render("Your turn")+"\n"+instructions))
	fmt.Fprint(t.out, mutedStyle.Render("[ENTER] "))
	_, err := t.readLine(ctx)
	return err
}

func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprint(t.out, question+mutedStyle.Render(" [y/N] "))
	line, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Notify prints a one-line status message.
func (t *Terminal) Notify(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, okStyle.Render("• ")+msg)
}

// readLine blocks until a full line arrives or ctx ends. A line typed
// after a cancelled prompt goes to the next prompt.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.start.Do(func() { go t.pump() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func (t *Terminal) pump() {
	defer close(t.lines)
	for {
		line, err := t.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		t.lines <- lineResult{line, err}
		if err != nil {
			return
		}
	}
}

func RenderReview(r Review) string {
	lines := []string{
		titleStyle.Render(r.Job.Title) + " at " + lipgloss.NewStyle().Bold(true).Render(r.Job.Company),
		mutedStyle.Render(r.Job.URL),
		fmt.Sprintf("ATS: %s via %s   Score: %.2f", r.Job.ATSType, r.Adapter, r.Job.Score),
	}
	if r.Job.Location != "" {
		lines = append(lines, "Location: "+r.Job.Location)
	}
	if r.Job.FitReason != "" {
		lines = append(lines, mutedStyle.Render("Fit: "+r.Job.FitReason))
	}

	if len(r.Answers) > 0 {
		lines = append(lines, "", titleStyle.Render("Answers"))
		keys := make([]string, 0, len(r.Answers))
		for k := range r.Answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  %s: %s", k, r.Answers[k]))
		}
	}

	if a := r.Advice; a != nil {
		style := okStyle
		if a.Recommendation == domain.RecommendSkip {
			style = warnStyle
		}
		lines = append(lines, "", style.Render(fmt.Sprintf("Advisor: %s (%.0f%%)", a.Recommendation, a.Confidence*100)))
		if a.Rationale != "" {
			lines = append(lines, "  "+a.Rationale)
		}
		for _, f := range a.RedFlags {
			lines = append(lines, warnStyle.Render("  ! ")+f)
		}
		lines = append(lines, mutedStyle.Render("  advisory only; you decide"))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Prompt reads one line for a setup value such as a password. The input
// is echoed; run it where that is acceptable.
func (t *Terminal) Prompt(ctx context.Context, label string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprint(t.out, titleStyle.Render(label)+": ")
	line, err := t.readLine(ctx)
	return strings.TrimSpace(line), err
}
