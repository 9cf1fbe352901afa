// Package semver parses and orders strict MAJOR.MINOR.PATCH version strings.
package semver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/meza/entwine/internal/globalerrors"
	xsemver "golang.org/x/mod/semver"
)

type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (ordering Ordering) String() string {
	switch ordering {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return fmt.Sprintf("Ordering(%d)", int(ordering))
	}
}

var versionPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

func (version Version) String() string {
	return fmt.Sprintf("%d.%d.%d", version.Major, version.Minor, version.Patch)
}

func (version Version) canonical() string {
	return "v" + version.String()
}

// Parse accepts an optional leading v followed by three non-negative integers.
func Parse(value string) (Version, error) {
	match := versionPattern.FindStringSubmatch(value)
	if match == nil {
		return Version{}, &globalerrors.InvalidVersionError{Version: value}
	}

	parts := make([]uint64, 3)
	for i := range parts {
		number, err := strconv.ParseUint(match[i+1], 10, 64)
		if err != nil {
			return Version{}, &globalerrors.InvalidVersionError{Version: value}
		}
		parts[i] = number
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

func Valid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// Normalize returns value without the leading v, in the canonical MAJOR.MINOR.PATCH form.
func Normalize(value string) (string, error) {
	version, err := Parse(value)
	if err != nil {
		return "", err
	}
	return version.String(), nil
}

func Compare(a string, b string) (Ordering, error) {
	left, err := Parse(a)
	if err != nil {
		return Equal, err
	}
	right, err := Parse(b)
	if err != nil {
		return Equal, err
	}
	return CompareVersions(left, right), nil
}

func CompareVersions(a Version, b Version) Ordering {
	return Ordering(xsemver.Compare(a.canonical(), b.canonical()))
}

// IsNewer reports whether candidate is strictly greater than current.
func IsNewer(candidate string, current string) (bool, error) {
	ordering, err := Compare(candidate, current)
	if err != nil {
		return false, err
	}
	return ordering == Greater, nil
}

// SortDescending orders valid versions newest first. Invalid entries are returned in the error.
func SortDescending(values []string) ([]string, error) {
	parsed := make([]Version, 0, len(values))
	var invalid []string
	for _, value := range values {
		version, err := Parse(value)
		if err != nil {
			invalid = append(invalid, value)
			continue
		}
		parsed = append(parsed, version)
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return CompareVersions(parsed[i], parsed[j]) == Greater
	})

	out := make([]string, 0, len(parsed))
	for _, version := range parsed {
		out = append(out, version.String())
	}

	if len(invalid) > 0 {
		return out, &globalerrors.InvalidVersionError{Version: strings.Join(invalid, ", ")}
	}
	return out, nil
}
