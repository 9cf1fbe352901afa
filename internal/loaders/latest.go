package loaders

import (
	"context"
	"fmt"
	"strings"

	"github.com/meza/entwine/internal/semver"
)

// LatestVersionSource discovers the newest published Silk release.
type LatestVersionSource interface {
	Latest(ctx context.Context) (string, error)
}

type textFetcher interface {
	FetchString(ctx context.Context, url string) (string, error)
}

// RemoteLatest reads a plain-text version document, such as the one Silk publishes in its repository.
type RemoteLatest struct {
	fetcher textFetcher
	url     string
}

func NewRemoteLatest(fetcher textFetcher, url string) *RemoteLatest {
	return &RemoteLatest{fetcher: fetcher, url: url}
}

func (source *RemoteLatest) Latest(ctx context.Context) (string, error) {
	text, err := source.fetcher.FetchString(ctx, source.url)
	if err != nil {
		return "", err
	}

	version := strings.TrimSpace(text)
	if _, err := semver.Parse(version); err != nil {
		return "", fmt.Errorf("latest version document at %s: %w", source.url, err)
	}
	return version, nil
}

// StaticLatest always answers with the same version.
type StaticLatest string

func (version StaticLatest) Latest(context.Context) (string, error) {
	return string(version), nil
}
