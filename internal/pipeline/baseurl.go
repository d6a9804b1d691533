package pipeline

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// PreviewURL is the public link for a project.
func PreviewURL(base, projectID string) string {
	return strings.TrimRight(base, "/") + "/preview/" + projectID
}

// ResolveBaseURL picks the origin preview links are built on: the configured
// public URL, then the forwarded headers set by a proxy, then Origin, then
// Host, then fallback.
func ResolveBaseURL(configured string, r *http.Request, fallback string) string {
	if configured = strings.TrimRight(strings.TrimSpace(configured), "/"); configured != "" {
		return configured
	}
	if r != nil {
		if host := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); host != "" {
			proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto"))
			if proto == "" {
				proto = schemeFor(r, host)
			}
			return proto + "://" + host
		}
		if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" && origin != "null" {
			if u, err := url.Parse(origin); err == nil && u.Scheme != "" && u.Host != "" {
				return u.Scheme + "://" + u.Host
			}
		}
		if host := strings.TrimSpace(r.Host); host != "" {
			return schemeFor(r, host) + "://" + host
		}
	}
	return strings.TrimRight(fallback, "/")
}

func firstHeaderValue(value string) string {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

func schemeFor(r *http.Request, host string) string {
	if r.TLS != nil {
		return "https"
	}
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	if hostname == "localhost" || net.ParseIP(hostname) != nil && net.ParseIP(hostname).IsLoopback() {
		return "http"
	}
	return "https"
}
