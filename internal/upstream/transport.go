package upstream

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"
)

// LegacyTransport collects the workarounds needed to talk to a feed whose TLS
// setup is incompatible with Go's client. It is attached to a single feed's
// client and never installed on http.DefaultTransport.
//
// Remove it once the upstream certificate chain is fixed.
type LegacyTransport struct {
	// ForcePlaintext rewrites https URLs to http before the request is sent.
	ForcePlaintext bool
	// InsecureSkipVerify disables certificate verification for this feed only.
	InsecureSkipVerify bool
	// UserAgent is sent as the request identity header. Empty keeps Go's default.
	UserAgent string
	// Header is set on every request after the client's defaults
	Header http.Header
}

// Rewrite returns the URL the request should actually target
func (t *LegacyTransport) Rewrite(u *url.URL) *url.URL {
	if t == nil || !t.ForcePlaintext || u.Scheme != "https" {
		return u
	}
	rewritten := *u
	rewritten.Scheme = "http"
	return &rewritten
}

// Apply sets the request headers the feed expects
func (t *LegacyTransport) Apply(h http.Header) {
	if t == nil {
		return
	}
	for key, values := range t.Header {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
	if t.UserAgent != "" {
		h.Set("User-Agent", t.UserAgent)
	}
}

// NewHTTPClient builds an http.Client with its own transport so that the
// legacy TLS settings stay scoped to the feed that needs them
func NewHTTPClient(timeout time.Duration, legacy *LegacyTransport) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if legacy != nil && legacy.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // upstream certificate is broken
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: base,
	}
}
