package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(request *http.Request) (*http.Response, error) {
	return f(request)
}

func TestFetchReturnsBodyAndReportsProgress(t *testing.T) {
	body := "0123456789"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	var ratios []float64
	data, err := NewFetcher(server.Client()).FetchWithProgress(context.Background(), server.URL, func(ratio float64) {
		ratios = append(ratios, ratio)
	})
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	require.NotEmpty(t, ratios)
	assert.Equal(t, 1.0, ratios[len(ratios)-1])
}

func TestFetchNonSuccessStatusIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)

	var networkErr *globalerrors.NetworkError
	require.ErrorAs(t, err, &networkErr)
	assert.Equal(t, http.StatusNotFound, networkErr.StatusCode)
	assert.Equal(t, server.URL, networkErr.URL)
}

func TestFetchTransportErrorIsNetworkError(t *testing.T) {
	failing := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := NewFetcher(failing).Fetch(context.Background(), "https://example.com/x")
	assert.ErrorIs(t, err, &globalerrors.NetworkError{})
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, IsTimeout(err))
}

func TestFetchTimeoutKeepsTimeoutError(t *testing.T) {
	timingOut := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})

	_, err := NewFetcher(timingOut).Fetch(context.Background(), "https://example.com/x")
	assert.ErrorIs(t, err, &globalerrors.NetworkError{})
	assert.True(t, IsTimeout(err))
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := NewFetcher(http.DefaultClient).Fetch(context.Background(), "://bad")
	assert.ErrorIs(t, err, &globalerrors.NetworkError{})
}

func TestFetchString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0.6.1\n"))
	}))
	defer server.Close()

	text, err := NewFetcher(server.Client()).FetchString(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0.6.1\n", text)
}
