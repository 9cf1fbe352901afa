package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDoer struct {
	requests []*http.Request
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestNewRedirectDoerValidates(t *testing.T) {
	_, err := NewRedirectDoer(nil, nil)
	assert.ErrorContains(t, err, "next doer is nil")

	_, err = NewRedirectDoer(&recordingDoer{}, map[string]string{"github.com": ":"})
	assert.ErrorContains(t, err, "github.com")

	_, err = NewRedirectDoer(&recordingDoer{}, map[string]string{"github.com": "https://"})
	assert.ErrorContains(t, err, "scheme and host")

	assert.Panics(t, func() { MustNewRedirectDoer(nil, nil) })
}

func TestRedirectDoerRoutesByHost(t *testing.T) {
	next := &recordingDoer{}
	doer := MustNewRedirectDoer(next, map[string]string{
		"silk.abstractmelon.net": "http://127.0.0.1:9001",
		"github.com":             "http://127.0.0.1:9002",
	})

	req, err := http.NewRequest(http.MethodGet, "https://silk.abstractmelon.net/api/mods?sort=new", nil)
	require.NoError(t, err)
	response, err := doer.Do(req)
	require.NoError(t, err)
	_ = response.Body.Close()

	req, err = http.NewRequest(http.MethodGet, "https://github.com/SilkModding/Silk/releases", nil)
	require.NoError(t, err)
	response, err = doer.Do(req)
	require.NoError(t, err)
	_ = response.Body.Close()

	require.Len(t, next.requests, 2)
	assert.Equal(t, "http://127.0.0.1:9001/api/mods?sort=new", next.requests[0].URL.String())
	assert.Equal(t, "127.0.0.1:9001", next.requests[0].Host)
	assert.Equal(t, "http://127.0.0.1:9002/SilkModding/Silk/releases", next.requests[1].URL.String())
	assert.Equal(t, "https", req.URL.Scheme, "the original request is left untouched")
}

func TestRedirectDoerRefusesUnknownHosts(t *testing.T) {
	next := &recordingDoer{}
	doer := MustNewRedirectDoer(next, map[string]string{"github.com": "http://127.0.0.1:9002"})

	req, err := http.NewRequest(http.MethodGet, "https://example.com/", nil)
	require.NoError(t, err)
	_, err = doer.Do(req)
	assert.ErrorContains(t, err, "no test route for example.com")
	assert.Empty(t, next.requests)
}
