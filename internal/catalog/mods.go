package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/httpclient"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/perf"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// FetchMods lists every mod the catalog offers, sorted by name.
func (catalogClient *Client) FetchMods(ctx context.Context) ([]models.CatalogMod, error) {
	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()
	ctx, span := perf.StartSpan(ctx, "api.catalog.mods")
	defer span.End()

	url := catalogClient.baseURL + modsEndpoint
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &globalerrors.NetworkError{URL: url, Err: err}
	}
	request.Header.Set("Accept", "application/json")

	response, err := catalogClient.Do(request)
	if err != nil {
		return nil, &globalerrors.NetworkError{URL: url, Err: httpclient.AsTimeout(err)}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &globalerrors.NetworkError{URL: url, StatusCode: response.StatusCode}
	}

	var mods []models.CatalogMod
	if err := json.NewDecoder(response.Body).Decode(&mods); err != nil {
		return nil, &globalerrors.NetworkError{URL: url, StatusCode: response.StatusCode, Err: errors.Wrap(err, "malformed catalog response")}
	}

	sort.SliceStable(mods, func(i, j int) bool {
		return strings.ToLower(mods[i].Name) < strings.ToLower(mods[j].Name)
	})
	span.SetAttributes(attribute.Int("count", len(mods)))
	return mods, nil
}

func (catalogClient *Client) DownloadURL(mod models.CatalogMod) string {
	return catalogClient.Resolve(mod.FilePath)
}

func (catalogClient *Client) IconURL(mod models.CatalogMod) string {
	return catalogClient.Resolve(mod.IconPath)
}

// WithAbsoluteIcon returns mod with its icon path resolved, ready to be recorded in the registry.
func (catalogClient *Client) WithAbsoluteIcon(mod models.CatalogMod) models.CatalogMod {
	mod.IconPath = catalogClient.IconURL(mod)
	return mod
}

// Download fetches the mod payload.
func (catalogClient *Client) Download(ctx context.Context, mod models.CatalogMod, onProgress httpclient.ProgressFunc) ([]byte, error) {
	if strings.TrimSpace(mod.FilePath) == "" {
		return nil, errors.Errorf("mod %s has no download path", mod.ID)
	}
	return httpclient.NewFetcher(catalogClient).FetchWithProgress(ctx, catalogClient.DownloadURL(mod), onProgress)
}

// Find matches by id first, then by case-insensitive name.
func Find(mods []models.CatalogMod, idOrName string) (models.CatalogMod, error) {
	needle := strings.TrimSpace(idOrName)
	for _, mod := range mods {
		if mod.ID == needle {
			return mod, nil
		}
	}
	for _, mod := range mods {
		if strings.EqualFold(mod.Name, needle) {
			return mod, nil
		}
	}
	return models.CatalogMod{}, &globalerrors.NotFoundError{Subject: "Catalog mod", Path: needle}
}
