// Package browsertest provides a scripted in-memory browser for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"jobgate-engine/internal/browser"
)

// Engine hands out sessions built by New (an empty page when nil) and
// remembers every session it opened.
type Engine struct {
	New     func() *Session
	OpenErr error

	mu       sync.Mutex
	Sessions []*Session
}

func (e *Engine) Open(ctx context.Context) (browser.Session, error) {
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	s := &Session{}
	if e.New != nil {
		s = e.New()
	}
	e.mu.Lock()
	e.Sessions = append(e.Sessions, s)
	e.mu.Unlock()
	return s, nil
}

// AllClosed reports whether every opened session was closed.
func (e *Engine) AllClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.Sessions {
		if !s.Closed {
			return false
		}
	}
	return true
}

// Session maps CSS selectors to elements. Selectors are matched verbatim.
type Session struct {
	Elements map[string][]*Element
	Page     string
	URL      string

	NavigateErr   error
	ScreenshotErr error

	Visited     []string
	Screenshots int
	Closed      bool
}

func (s *Session) Add(selector string, els ...*Element) *Session {
	if s.Elements == nil {
		s.Elements = map[string][]*Element{}
	}
	s.Elements[selector] = append(s.Elements[selector], els...)
	return s
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.Closed {
		return errors.New("session closed")
	}
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.Visited = append(s.Visited, url)
	s.URL = url
	return nil
}

func (s *Session) Find(ctx context.Context, selector string) ([]browser.Element, error) {
	if s.Closed {
		return nil, errors.New("session closed")
	}
	var out []browser.Element
	for _, el := range s.Elements[selector] {
		if el.Hidden {
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.ScreenshotErr != nil {
		return nil, s.ScreenshotErr
	}
	s.Screenshots++
	return []byte("\x89PNG fake"), nil
}

func (s *Session) HTML(ctx context.Context) (string, error) { return s.Page, nil }

func (s *Session) CurrentURL(ctx context.Context) (string, error) { return s.URL, nil }

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

type Element struct {
	LabelText string
	Attrs     map[string]string
	TagName   string
	Hidden    bool

	TypeErr  error
	ClickErr error
	// OnClick runs after a successful click, e.g. to reveal a new page.
	OnClick func()

	Typed    string
	Clicks   int
	Uploaded string
}

func Input(label string) *Element {
	return &Element{LabelText: label, TagName: "input", Attrs: map[string]string{"type": "text"}}
}

func Button(label string) *Element {
	return &Element{LabelText: label, TagName: "button"}
}

func (e *Element) Type(ctx context.Context, text string) error {
	if e.TypeErr != nil {
		return e.TypeErr
	}
	e.Typed = text
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Upload(ctx context.Context, path string) error {
	e.Uploaded = path
	return nil
}

func (e *Element) Label(ctx context.Context) string { return e.LabelText }

func (e *Element) Attr(name string) string { return e.Attrs[name] }

func (e *Element) Tag() string {
	if e.TagName == "" {
		return "input"
	}
	return e.TagName
}
