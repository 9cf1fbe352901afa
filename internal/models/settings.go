package models

import (
	"fmt"
	"strings"
)

type LaunchMethod string

const (
	LaunchSteam      LaunchMethod = "steam"
	LaunchExecutable LaunchMethod = "executable"
)

func ParseLaunchMethod(value string) (LaunchMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(LaunchSteam):
		return LaunchSteam, nil
	case string(LaunchExecutable):
		return LaunchExecutable, nil
	default:
		return "", fmt.Errorf("unknown launch method %q (expected steam or executable)", value)
	}
}

type AppSettings struct {
	LaunchMethod LaunchMethod `json:"launchMethod"`
	GamePath     string       `json:"gamePath,omitempty"`
}

func DefaultAppSettings() AppSettings {
	return AppSettings{LaunchMethod: LaunchSteam}
}
