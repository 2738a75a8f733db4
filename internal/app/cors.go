package app

import (
	"net/url"
	"strings"
)

// originPatterns holds allowed_origins entries. An entry is an exact host,
// "*.domain" for any subdomain, or "host:*" for any port.
type originPatterns []string

func newOriginPatterns(raw []string) originPatterns {
	out := make(originPatterns, 0, len(raw))
	for _, p := range raw {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// allow reports whether the browser Origin header matches any entry.
func (p originPatterns) allow(origin string) bool {
	host := strings.ToLower(originHost(origin))
	for _, pattern := range p {
		switch {
		case pattern == host:
			return true
		case strings.HasPrefix(pattern, "*."):
			if strings.HasSuffix(host, pattern[1:]) {
				return true
			}
		case strings.HasSuffix(pattern, ":*"):
			if strings.HasPrefix(host, pattern[:len(pattern)-1]) {
				return true
			}
		}
	}
	return false
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}
