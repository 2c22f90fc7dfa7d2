package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

type ChromeOptions struct {
	Headless   bool
	ExecPath   string
	Timeout    time.Duration // per action
	Limiter    *HostLimiter
	Pause      Pause
	UserAgent  string
	WindowSize [2]int
}

// Chrome launches a new browser process per session.
type Chrome struct {
	opts ChromeOptions
}

func NewChrome(opts ChromeOptions) *Chrome {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.WindowSize == [2]int{} {
		opts.WindowSize = [2]int{1280, 900}
	}
	return &Chrome{opts: opts}
}

func (c *Chrome) Open(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.WindowSize(c.opts.WindowSize[0], c.opts.WindowSize[1]),
	)
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}

	// the browser outlives the caller's ctx; Close tears it down
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	bctx, bcancel := chromedp.NewContext(allocCtx)

	// The first Run launches the process bound to the context it is given,
	// so it must be bctx itself. A timer bounds the startup instead.
	watchdog := time.AfterFunc(c.opts.Timeout, bcancel)
	err := chromedp.Run(bctx)
	if !watchdog.Stop() && err == nil {
		err = fmt.Errorf("startup exceeded %s", c.opts.Timeout)
	}
	if err != nil {
		bcancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	log.Printf("[browser] session opened headless=%v", c.opts.Headless)

	return &chromeSession{
		ctx:    bctx,
		cancel: func() { bcancel(); allocCancel() },
		opts:   c.opts,
	}, nil
}

type chromeSession struct {
	ctx    context.Context
	cancel func()
	opts   ChromeOptions
}

// run executes actions on the browser context, bounded by the action
// timeout and cancelled with the caller's ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	actx, cancel := context.WithTimeout(s.ctx, s.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(actx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.opts.Limiter.WaitURL(ctx, url); err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return s.opts.Pause.Wait(ctx)
}

func (s *chromeSession) Find(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &chromeElement{s: s, n: n})
	}
	return out, nil
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot html: %w", err)
	}
	return html, nil
}

func (s *chromeSession) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, chromedp.Location(&u))
	return u, err
}

func (s *chromeSession) Close() error {
	s.cancel()
	log.Printf("[browser] session closed")
	return nil
}

type chromeElement struct {
	s *chromeSession
	n *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID { return []cdp.NodeID{e.n.NodeID} }

func (e *chromeElement) Type(ctx context.Context, text string) error {
	if e.Tag() == "select" {
		return e.selectOption(ctx, text)
	}
	err := e.s.run(ctx,
		chromedp.ScrollIntoView(e.ids(), chromedp.ByNodeID),
		chromedp.Clear(e.ids(), chromedp.ByNodeID),
		chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("type into %s: %w", e.describe(), err)
	}
	return e.s.opts.Pause.Wait(ctx)
}

func (e *chromeElement) Click(ctx context.Context) error {
	if err := e.s.run(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click %s: %w", e.describe(), err)
	}
	return e.s.opts.Pause.Wait(ctx)
}

func (e *chromeElement) Upload(ctx context.Context, path string) error {
	if err := e.s.run(ctx, chromedp.SetUploadFiles(e.ids(), []string{path}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("upload to %s: %w", e.describe(), err)
	}
	return nil
}

func (e *chromeElement) Attr(name string) string { return e.n.AttributeValue(name) }

func (e *chromeElement) Tag() string { return strings.ToLower(e.n.NodeName) }

const labelJS = `function() {
  const el = this;
  if (el.id) {
    const l = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
    if (l && l.innerText.trim()) return l.innerText.trim();
  }
  const wrap = el.closest('label');
  if (wrap && wrap.innerText.trim()) return wrap.innerText.trim();
  const by = el.getAttribute('aria-labelledby');
  if (by) {
    const l = document.getElementById(by);
    if (l && l.innerText.trim()) return l.innerText.trim();
  }
  return el.getAttribute('aria-label') || el.getAttribute('placeholder') || el.getAttribute('name') || '';
}`

func (e *chromeElement) Label(ctx context.Context) string {
	v, err := e.call(ctx, labelJS)
	if err != nil {
		log.Printf("[browser] label lookup failed el=%s err=%v", e.describe(), err)
		return ""
	}
	return v
}

func (e *chromeElement) selectOption(ctx context.Context, text string) error {
	fn := fmt.Sprintf(`function() {
  const want = %q.toLowerCase();
  for (const o of this.options) {
    if (o.text.trim().toLowerCase() === want || o.value.toLowerCase() === want) {
      this.value = o.value;
      this.dispatchEvent(new Event('change', {bubbles: true}));
      return 'ok';
    }
  }
  return '';
}`, text)
	v, err := e.call(ctx, fn)
	if err != nil {
		return fmt.Errorf("select on %s: %w", e.describe(), err)
	}
	if v != "ok" {
		return fmt.Errorf("select on %s: no option %q", e.describe(), text)
	}
	return nil
}

// call runs a JS function with this bound to the element and returns its
// string result.
func (e *chromeElement) call(ctx context.Context, fn string) (string, error) {
	var out string
	err := e.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("js exception: %s", exc.Text)
		}
		return json.Unmarshal([]byte(res.Value), &out)
	}))
	return out, err
}

func (e *chromeElement) describe() string {
	if id := e.Attr("id"); id != "" {
		return e.Tag() + "#" + id
	}
	if name := e.Attr("name"); name != "" {
		return e.Tag() + "[name=" + name + "]"
	}
	return e.Tag()
}
