// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"strings"
	"time"
)

var (
	posthogAPIKeyDefault = "REPL_POSTHOG_API_KEY" // #nosec G101 -- build-time placeholder replaced in release builds.
	appVersionDefault    = "REPL_VERSION"
)

const (
	defaultCatalogBaseURL = "https://silk.abstractmelon.net"
	defaultSilkVersionURL = "https://raw.githubusercontent.com/SilkModding/Silk/master/version"
)

func PosthogAPIKey() string {
	key, present := os.LookupEnv("POSTHOG_API_KEY")
	if present {
		return key
	}

	return posthogAPIKeyDefault
}

// TelemetryDisabled reports whether the user opted out of anonymous usage data.
func TelemetryDisabled() bool {
	value, present := os.LookupEnv("ENTWINE_DISABLE_TELEMETRY")
	if !present {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}

// GameDir returns the installation root configured through the environment, if any.
func GameDir() string {
	return strings.TrimSpace(os.Getenv("ENTWINE_GAME_DIR"))
}

// CatalogBaseURL is the host serving the mod catalog, mod downloads and icons.
func CatalogBaseURL() string {
	value, present := os.LookupEnv("ENTWINE_CATALOG_URL")
	if present && strings.TrimSpace(value) != "" {
		return strings.TrimRight(strings.TrimSpace(value), "/")
	}
	return defaultCatalogBaseURL
}

// SilkVersionURL points at the plain-text file holding the latest Silk release.
func SilkVersionURL() string {
	value, present := os.LookupEnv("ENTWINE_SILK_VERSION_URL")
	if present && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultSilkVersionURL
}

// DownloadTimeout bounds a single loader or mod download. ENTWINE_DOWNLOAD_TIMEOUT takes a Go
// duration such as "10m"; unparsable or non-positive values fall back.
func DownloadTimeout(fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv("ENTWINE_DOWNLOAD_TIMEOUT"))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func AppVersion() string {
	return appVersionDefault
}

func HelpURL() string {
	return "REPL_HELP_URL"
}
