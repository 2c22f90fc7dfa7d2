package email

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

const maxPartBytes = 20 << 20

// parsed is a decoded RFC822 message.
type parsed struct {
	MessageID string
	Subject   string
	Date      time.Time
	HTML      string
	Text      string
}

// Body returns the HTML part, or the plain text part escaped into a <pre>
// block so the digest parser can still find URLs in it.
func (p parsed) Body() string {
	if strings.TrimSpace(p.HTML) != "" {
		return p.HTML
	}
	if p.Text == "" {
		return ""
	}
	return "<html><body><pre>" + html.EscapeString(p.Text) + "</pre></body></html>"
}

// parseMessage walks every inline part and keeps the largest text/html and
// text/plain bodies.
func parseMessage(raw []byte) (parsed, error) {
	var out parsed
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return out, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	if id, err := mr.Header.MessageID(); err == nil {
		out.MessageID = id
	}
	if s, err := mr.Header.Subject(); err == nil {
		out.Subject = s
	}
	if d, err := mr.Header.Date(); err == nil {
		out.Date = d
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			if out.HTML != "" || out.Text != "" {
				break
			}
			return out, fmt.Errorf("read part: %w", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, _ := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		switch {
		case strings.EqualFold(ct, "text/html"):
			if len(b) > len(out.HTML) {
				out.HTML = string(b)
			}
		case strings.EqualFold(ct, "text/plain"), ct == "":
			if len(b) > len(out.Text) {
				out.Text = string(b)
			}
		}
	}
	return out, nil
}
