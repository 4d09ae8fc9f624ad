// Package urlnorm canonicalizes user-supplied URLs into stable cache keys.
//
// The same rules run on any client-side pre-check, so they must stay
// bit-exact: a normalization mismatch silently turns every lookup into a
// cache miss.
package urlnorm

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a raw URL string. Rules, in order:
//
//  1. prepend "https://" when no scheme is present; "http" folds into
//     "https" so both origins share one cache identity
//  2. lowercase the host and strip a leading "www."
//  3. drop the port when it is 80 or 443, the defaults of the two schemes
//     that fold together
//  4. strip a single trailing "/" from the path ("/" alone becomes empty)
//  5. keep the query string, drop the fragment
//
// Normalize is idempotent. Input that cannot be parsed as a URL is returned
// unchanged; the downstream fetch will simply fail.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	withScheme := raw
	if !strings.Contains(raw, "://") {
		withScheme = "https://" + raw
	}

	u, err := url.Parse(withScheme)
	if err != nil || u.Host == "" {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "http" {
		scheme = "https"
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	// The scheme folds before the port check, so 80 and 443 are both
	// default-equivalent and the output never carries either. Keeping a
	// folded-scheme port would break idempotence: "http://h:443" would
	// keep ":443" on the first pass and drop it on the second.
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	path := u.EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	} else {
		path = ""
	}

	normalized := scheme + "://" + host + path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}
