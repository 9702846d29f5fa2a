package scanner

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// Normalize canonicalizes a raw input line into a display URL and a connectable host.
// Dotted-quad IPv4 addresses are returned unchanged; anything else gets an https://
// scheme when it lacks one, and its network location becomes the host.
func Normalize(raw string) HostSpec {
	trimmed := strings.TrimSpace(raw)
	if ipv4Pattern.MatchString(trimmed) {
		return HostSpec{Raw: raw, URL: trimmed, Host: trimmed}
	}

	formatted := trimmed
	if !hasScheme(trimmed) {
		formatted = "https://" + trimmed
	}

	return HostSpec{
		Raw:  raw,
		URL:  formatted,
		Host: extractHost(formatted),
	}
}

func hasScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}

// extractHost returns the host[:port] portion of u. Unparseable input falls back to
// the text between the scheme separator and the first path delimiter.
func extractHost(u string) string {
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		return parsed.Host
	}

	rest := u
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return u
	}
	return rest
}

// splitHostPort separates an optional port from host, falling back to defaultPort.
func splitHostPort(host string, defaultPort int) (string, int) {
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		return strings.Trim(host, "[]"), defaultPort
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return h, defaultPort
	}
	return h, port
}
