// Package testutil holds shared test helpers.
package testutil

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/meza/entwine/internal/httpclient"
)

// RedirectDoer sends requests for known hosts to local test servers and refuses everything else,
// so a test can never reach the real catalog or GitHub.
type RedirectDoer struct {
	routes map[string]*url.URL
	next   httpclient.Doer
}

// NewRedirectDoer maps each public host (for example "raw.githubusercontent.com") to a server URL.
func NewRedirectDoer(next httpclient.Doer, routes map[string]string) (*RedirectDoer, error) {
	if next == nil {
		return nil, fmt.Errorf("next doer is nil")
	}
	parsed := make(map[string]*url.URL, len(routes))
	for host, target := range routes {
		base, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse route for %s: %w", host, err)
		}
		if base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("route for %s must include scheme and host", host)
		}
		parsed[host] = base
	}
	return &RedirectDoer{routes: parsed, next: next}, nil
}

func MustNewRedirectDoer(next httpclient.Doer, routes map[string]string) *RedirectDoer {
	doer, err := NewRedirectDoer(next, routes)
	if err != nil {
		panic(err)
	}
	return doer
}

func (d *RedirectDoer) Do(req *http.Request) (*http.Response, error) {
	base, ok := d.routes[req.URL.Hostname()]
	if !ok {
		return nil, fmt.Errorf("no test route for %s", req.URL.Host)
	}
	routed := req.Clone(req.Context())
	routed.URL.Scheme = base.Scheme
	routed.URL.Host = base.Host
	routed.Host = base.Host
	return d.next.Do(routed)
}
