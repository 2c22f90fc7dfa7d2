package operator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"jobgate-engine/internal/advisor"
	"jobgate-engine/internal/domain"
)

func TestGateReturnsRawInput(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("YES\n"), &out)
	got, err := term.Gate(context.Background(), Review{
		Job:    domain.JobPosting{Title: "Backend Intern", Company: "Acme"},
		Advice: &advisor.Advice{Recommendation: domain.RecommendSkip, Rationale: "senior role"},
	})
	if err != nil || got != "YES" {
		t.Fatalf("got %q %v", got, err)
	}
	if !strings.Contains(out.String(), "Backend Intern") || !strings.Contains(out.String(), "senior role") {
		t.Fatalf("review panel missing details:\n%s", out.String())
	}
}

func TestGateKeepsCase(t *testing.T) {
	term := NewTerminal(strings.NewReader("yes\n"), &bytes.Buffer{})
	got, _ := term.Gate(context.Background(), Review{})
	if got != "yes" {
		t.Fatalf("gate must not normalize input, got %q", got)
	}
}

func TestAskAndConfirm(t *testing.T) {
	term := NewTerminal(strings.NewReader("  Because of the mission  \ny\n\n"), &bytes.Buffer{})
	ctx := context.Background()

	ans, err := term.Ask(ctx, domain.ATSLever, "Why us?")
	if err != nil || ans != "Because of the mission" {
		t.Fatalf("ask: %q %v", ans, err)
	}
	ok, err := term.Confirm(ctx, "Done?")
	if err != nil || !ok {
		t.Fatalf("confirm: %v %v", ok, err)
	}
	if err := term.Pause(ctx, "press enter"); err != nil {
		t.Fatalf("pause: %v", err)
	}
}

func TestEOFIsAnError(t *testing.T) {
	term := NewTerminal(strings.NewReader(""), &bytes.Buffer{})
	if _, err := term.Gate(context.Background(), Review{}); err == nil {
		t.Fatalf("expected EOF error")
	}
}

func TestTableContainsCells(t *testing.T) {
	out := Table([]string{"STATUS", "COUNT"}, [][]string{{"queued", "3"}, {"error", "1"}})
	for _, want := range []string{"STATUS", "queued", "3", "error"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestCancelledPromptDoesNotStealNextLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	term := NewTerminal(pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := term.Prompt(ctx, "IMAP app password"); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled prompt: %v", err)
	}

	go func() { _, _ = io.WriteString(pw, "hunter2\n") }()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	got, err := term.Prompt(ctx2, "LLM API key")
	if err != nil || got != "hunter2" {
		t.Fatalf("next prompt got %q %v", got, err)
	}
}

func TestEOFRepeats(t *testing.T) {
	term := NewTerminal(strings.NewReader("last"), &bytes.Buffer{})
	ctx := context.Background()
	if got, err := term.Prompt(ctx, "x"); err != nil || got != "last" {
		t.Fatalf("first: %q %v", got, err)
	}
	for i := 0; i < 2; i++ {
		if _, err := term.Prompt(ctx, "x"); err == nil {
			t.Fatalf("read %d after EOF should fail", i)
		}
	}
}
