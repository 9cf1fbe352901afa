// Package compat decides whether a mod's declared loader window admits the installed loader version.
package compat

import (
	"fmt"

	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/semver"
)

// IsCompatible applies inclusive bounds; a missing bound does not constrain that side.
func IsCompatible(installed string, info models.ModVersionInfo) (bool, error) {
	verdict, err := Check(installed, info)
	if err != nil {
		return false, err
	}
	return verdict.Compatible, nil
}

type Verdict struct {
	Compatible bool
	Reason     string
}

func Check(installed string, info models.ModVersionInfo) (Verdict, error) {
	current, err := semver.Parse(installed)
	if err != nil {
		return Verdict{}, err
	}

	var minimum, maximum *semver.Version
	if info.MinLoaderVersion != nil {
		parsed, err := semver.Parse(*info.MinLoaderVersion)
		if err != nil {
			return Verdict{}, err
		}
		minimum = &parsed
	}
	if info.MaxLoaderVersion != nil {
		parsed, err := semver.Parse(*info.MaxLoaderVersion)
		if err != nil {
			return Verdict{}, err
		}
		maximum = &parsed
	}

	if minimum != nil && semver.CompareVersions(current, *minimum) == semver.Less {
		return Verdict{Reason: fmt.Sprintf("requires Silk %s or newer, %s is installed", minimum, current)}, nil
	}
	if maximum != nil && semver.CompareVersions(current, *maximum) == semver.Greater {
		return Verdict{Reason: fmt.Sprintf("supports Silk up to %s, %s is installed", maximum, current)}, nil
	}

	return Verdict{Compatible: true, Reason: describeWindow(minimum, maximum)}, nil
}

func describeWindow(minimum *semver.Version, maximum *semver.Version) string {
	switch {
	case minimum == nil && maximum == nil:
		return "no version constraints"
	case maximum == nil:
		return fmt.Sprintf("requires Silk %s or newer", minimum)
	case minimum == nil:
		return fmt.Sprintf("supports Silk up to %s", maximum)
	default:
		return fmt.Sprintf("supports Silk %s to %s", minimum, maximum)
	}
}
