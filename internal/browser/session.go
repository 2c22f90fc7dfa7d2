// Package browser is the capability surface the application pipeline uses
// to drive third-party forms, plus a Chrome implementation of it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Engine hands out fresh, exclusively owned sessions.
type Engine interface {
	Open(ctx context.Context) (Session, error)
}

type Session interface {
	Navigate(ctx context.Context, url string) error
	// Find returns every element matching a CSS selector; none is not an error.
	Find(ctx context.Context, selector string) ([]Element, error)
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	Close() error
}

type Element interface {
	Type(ctx context.Context, text string) error
	Click(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	// Label is the human-visible question for a form control: its <label>,
	// aria-label or placeholder, in that order.
	Label(ctx context.Context) string
	Attr(name string) string
	Tag() string
}

// WithSession opens a session, runs fn, and always closes the session,
// including when fn panics.
func WithSession(ctx context.Context, e Engine, fn func(Session) error) (err error) {
	s, err := e.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			log.Printf("[browser] session close failed: %v", cerr)
		}
	}()
	return fn(s)
}

// First returns the first element matching any of the selectors.
func First(ctx context.Context, s Session, selectors ...string) (Element, error) {
	for _, sel := range selectors {
		els, err := s.Find(ctx, sel)
		if err != nil {
			return nil, err
		}
		if len(els) > 0 {
			return els[0], nil
		}
	}
	return nil, ErrNoElement
}

var ErrNoElement = errors.New("no matching element")

// ErrOpen wraps every failure to open a session in WithSession.
var ErrOpen = errors.New("open browser session")
