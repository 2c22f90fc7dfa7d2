package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// envelope is what the first, cheap fetch pass returns per message.
type envelope struct {
	UID       imap.UID
	MessageID string
	From      string
	Subject   string
	Date      time.Time
}

// dialAndLogin connects over TLS and logs in. The connection is closed
// when ctx ends.
func dialAndLogin(ctx context.Context, addr, username, password string) (*imapclient.Client, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

func logoutAndClose(c *imapclient.Client) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		log.Printf("[email] imap logout: %v", err)
	}
	_ = c.Close()
}

// searchSince returns UIDs received on or after since, newest first.
func searchSince(c *imapclient.Client, since time.Time, max int) ([]imap.UID, error) {
	data, err := c.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := data.AllUIDs()
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}
	return uids, nil
}

func fetchEnvelopes(ctx context.Context, c *imapclient.Client, uids []imap.UID) ([]envelope, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	cmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
	})
	defer func() { _ = cmd.Close() }()

	var out []envelope
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := cmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}
		e := envelope{UID: buf.UID, Date: buf.InternalDate}
		if buf.Envelope != nil {
			e.MessageID = strings.Trim(buf.Envelope.MessageID, "<>")
			e.Subject = buf.Envelope.Subject
			e.From = joinAddrs(buf.Envelope.From)
			if !buf.Envelope.Date.IsZero() {
				e.Date = buf.Envelope.Date
			}
		}
		out = append(out, e)
	}
	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// fetchRaw pulls the full RFC822 bytes with BODY.PEEK[] so the message is
// not marked \Seen.
func fetchRaw(ctx context.Context, c *imapclient.Client, uid imap.UID) ([]byte, error) {
	section := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	cmd := c.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})
	defer func() { _ = cmd.Close() }()

	var raw []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := cmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch body: %w", err)
		}
		if b := buf.FindBodySection(section); b != nil {
			raw = append([]byte(nil), b...)
		}
	}
	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return raw, nil
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := &addrs[i]
		addr := strings.TrimSpace(a.Addr())
		if addr == "" {
			addr = strings.TrimSpace(a.Name)
		}
		if addr != "" {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}
