package dedupe

import (
	"net/url"
	"sort"
	"strings"
)

var trackingParams = map[string]bool{
	"ref": true, "referrer": true, "source": true, "gh_src": true,
	"lever-origin": true, "lever-source": true, "ashby_source": true,
	"ems": true, "sid": true, "cid": true,
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
}

var redirectParams = []string{"url", "link", "target", "redirect", "dest", "destination"}

func isTracking(k string) bool {
	lk := strings.ToLower(k)
	return strings.HasPrefix(lk, "utm_") || trackingParams[lk]
}

// UnwrapRedirect follows one level of click-tracking wrapper, e.g.
// https://click.example.com/c?url=https://boards.greenhouse.io/...
func UnwrapRedirect(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, p := range redirectParams {
		if v := q.Get(p); strings.HasPrefix(v, "http") {
			return v
		}
	}
	// google redirect /url?q=
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if v := q.Get("q"); strings.HasPrefix(v, "http") {
			return v
		}
	}
	return raw
}

// CanonicalURL returns a stable display form: redirect unwrapped, scheme and
// host lowercased, tracking params and fragment dropped, trailing slash removed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(UnwrapRedirect(raw))
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = cleanQuery(u.Query())
	return u.String()
}

// NormalizedKey is the identity of a posting URL: lowercased host + path,
// plus any non-tracking query params in sorted order. Scheme is ignored and
// path case is preserved since some boards use case-sensitive ids.
func NormalizedKey(raw string) string {
	u, err := url.Parse(UnwrapRedirect(strings.TrimSpace(raw)))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(strings.TrimSpace(raw), "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	key := host + strings.TrimRight(u.Path, "/")
	if q := cleanQuery(u.Query()); q != "" {
		key += "?" + q
	}
	return key
}

func cleanQuery(q url.Values) string {
	for k := range q {
		if isTracking(k) {
			q.Del(k)
		}
	}
	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	return q.Encode()
}
