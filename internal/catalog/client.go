// Package catalog talks to the Silk mod catalog.
package catalog

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/httpclient"
	"github.com/meza/entwine/internal/perf"
	"go.opentelemetry.io/otel/attribute"
)

const modsEndpoint = "/api/mods"

type Client struct {
	client  httpclient.Doer
	baseURL string
}

// NewClient targets environment.CatalogBaseURL.
func NewClient(doer httpclient.Doer) *Client {
	return NewClientWithBaseURL(doer, environment.CatalogBaseURL())
}

func NewClientWithBaseURL(doer httpclient.Doer, baseURL string) *Client {
	return &Client{client: doer, baseURL: strings.TrimRight(baseURL, "/")}
}

func (catalogClient *Client) Do(request *http.Request) (*http.Response, error) {
	ctx, span := perf.StartSpan(request.Context(), "api.catalog.http.request", perf.WithAttributes(attribute.String("url", request.URL.String())))
	defer span.End()

	request.Header.Set("User-Agent", fmt.Sprintf("github_com/meza/entwine/%s", environment.AppVersion()))
	return catalogClient.client.Do(request.WithContext(ctx))
}

func (catalogClient *Client) BaseURL() string {
	return catalogClient.baseURL
}

// Resolve turns a catalog-relative path into an absolute URL. Absolute URLs are returned as is.
func (catalogClient *Client) Resolve(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return catalogClient.baseURL + path
}
