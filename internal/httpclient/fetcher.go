package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/perf"
	"go.opentelemetry.io/otel/attribute"
)

// ProgressFunc receives the downloaded share of the body, between 0 and 1. It is only called
// when the server announces a content length.
type ProgressFunc func(ratio float64)

type progressWriter struct {
	total      int64
	downloaded int64
	onProgress ProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.downloaded += int64(len(p))
	if pw.total > 0 && pw.onProgress != nil {
		pw.onProgress(float64(pw.downloaded) / float64(pw.total))
	}
	return len(p), nil
}

// Fetcher downloads whole response bodies into memory.
type Fetcher struct {
	doer Doer
}

func NewFetcher(doer Doer) *Fetcher {
	return &Fetcher{doer: doer}
}

// Fetch GETs url and returns the body, bounded by the download timeout.
func (fetcher *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return fetcher.FetchWithProgress(ctx, url, nil)
}

// FetchWithProgress is Fetch reporting the received share of the body. Transport failures and
// non-2xx responses are reported as *globalerrors.NetworkError; timeouts keep their *TimeoutError
// inside it.
func (fetcher *Fetcher) FetchWithProgress(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	ctx, cancel := WithDownloadTimeout(ctx)
	defer cancel()

	ctx, span := perf.StartSpan(ctx, "net.fetch",
		perf.WithAttributes(attribute.String("url", url)),
	)
	defer span.End()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &globalerrors.NetworkError{URL: url, Err: err}
	}

	response, err := fetcher.doer.Do(request)
	if err != nil {
		return nil, &globalerrors.NetworkError{URL: url, Err: AsTimeout(err)}
	}
	defer func() {
		_ = drainAndClose(response.Body)
	}()

	span.SetAttributes(attribute.Int("status", response.StatusCode))
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &globalerrors.NetworkError{URL: url, StatusCode: response.StatusCode}
	}

	pw := &progressWriter{total: response.ContentLength, onProgress: onProgress}
	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, io.TeeReader(response.Body, pw)); err != nil {
		return nil, &globalerrors.NetworkError{URL: url, StatusCode: response.StatusCode, Err: AsTimeout(err)}
	}

	span.SetAttributes(attribute.Int("bytes", buffer.Len()))
	return buffer.Bytes(), nil
}

// FetchString is Fetch for small text documents such as version manifests.
func (fetcher *Fetcher) FetchString(ctx context.Context, url string) (string, error) {
	ctx, cancel := WithMetadataTimeout(ctx)
	defer cancel()

	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
