package httpclient

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/i18n"
)

const (
	// MetadataTimeout bounds catalog listings and version files.
	MetadataTimeout = 15 * time.Second
	// DownloadTimeout bounds loader archives and mod payloads unless the environment overrides it.
	DownloadTimeout = 5 * time.Minute
)

// TimeoutError is how every timed out request surfaces, whatever layer noticed the deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return i18n.T("error.network_timeout")
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

func deadlineHit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// AsTimeout converts deadline and network timeout errors into a *TimeoutError and returns every
// other error unchanged.
func AsTimeout(err error) error {
	if !deadlineHit(err) {
		return err
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr
	}
	return &TimeoutError{Err: err}
}

func WithMetadataTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, MetadataTimeout)
}

func WithDownloadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, environment.DownloadTimeout(DownloadTimeout))
}
