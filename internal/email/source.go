// Package email fetches job digest emails over IMAP.
package email

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
)

// SeenFunc reports whether a message id was already processed.
type SeenFunc func(ctx context.Context, messageID string) (bool, error)

type Options struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	// SenderFilter and SubjectAny are case-insensitive substrings; empty
	// lists match everything.
	SenderFilter []string
	SubjectAny   []string
	Lookback     time.Duration
	MaxResults   int
	Timeout      time.Duration
}

// OptionsFromConfig builds Options; the password comes from the secrets store.
func OptionsFromConfig(cfg config.Config, password string) Options {
	addr := cfg.Email.IMAPHost
	if !strings.Contains(addr, ":") {
		port := cfg.Email.IMAPPort
		if port == 0 {
			port = 993
		}
		addr = fmt.Sprintf("%s:%d", addr, port)
	}
	return Options{
		Addr:         addr,
		Username:     cfg.Email.Username,
		Password:     password,
		Mailbox:      cfg.Email.Mailbox,
		SenderFilter: cfg.Email.SenderFilter,
		SubjectAny:   cfg.Email.SearchSubjectAny,
		Lookback:     time.Duration(cfg.Email.LookbackDays) * 24 * time.Hour,
		MaxResults:   cfg.Email.MaxResults,
		Timeout:      2 * time.Minute,
	}
}

// Source is an IMAP digest source. Messages already recorded by Seen are
// skipped and nothing on the server is modified.
type Source struct {
	Opt  Options
	Seen SeenFunc
}

func (s *Source) FetchNewDigests(ctx context.Context) ([]domain.Digest, error) {
	opt := s.Opt
	if opt.Mailbox == "" {
		opt.Mailbox = "INBOX"
	}
	if opt.Lookback <= 0 {
		opt.Lookback = 7 * 24 * time.Hour
	}
	if opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opt.Timeout)
		defer cancel()
	}

	c, err := dialAndLogin(ctx, opt.Addr, opt.Username, opt.Password)
	if err != nil {
		return nil, err
	}
	defer logoutAndClose(c)

	if _, err := c.Select(opt.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", opt.Mailbox, err)
	}
	uids, err := searchSince(c, time.Now().Add(-opt.Lookback), opt.MaxResults)
	if err != nil {
		return nil, err
	}
	envs, err := fetchEnvelopes(ctx, c, uids)
	if err != nil {
		return nil, err
	}

	var out []domain.Digest
	for _, e := range envs {
		if !matchesAny(e.From, opt.SenderFilter) || !matchesAny(e.Subject, opt.SubjectAny) {
			continue
		}
		id := e.MessageID
		if id == "" {
			id = fmt.Sprintf("uid:%s:%d", opt.Mailbox, e.UID)
		}
		if s.Seen != nil {
			seen, err := s.Seen(ctx, id)
			if err != nil {
				return nil, err
			}
			if seen {
				continue
			}
		}

		raw, err := fetchRaw(ctx, c, e.UID)
		if err != nil {
			return nil, err
		}
		msg, err := parseMessage(raw)
		if err != nil {
			log.Printf("[email] skip uid=%d subject=%q err=%v", e.UID, e.Subject, err)
			continue
		}
		dg := domain.Digest{
			MessageID:  id,
			Subject:    firstNonEmpty(e.Subject, msg.Subject),
			From:       e.From,
			HTML:       msg.Body(),
			ReceivedAt: e.Date,
		}
		if dg.ReceivedAt.IsZero() {
			dg.ReceivedAt = msg.Date
		}
		out = append(out, dg)
	}
	log.Printf("[email] mailbox=%q scanned=%d new_digests=%d", opt.Mailbox, len(envs), len(out))
	return out, nil
}

func matchesAny(s string, subs []string) bool {
	if len(subs) == 0 {
		return true
	}
	ls := strings.ToLower(s)
	for _, sub := range subs {
		if sub = strings.ToLower(strings.TrimSpace(sub)); sub != "" && strings.Contains(ls, sub) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
