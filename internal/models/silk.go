package models

import "fmt"

// SilkVersion pairs a Silk release with the archive it is distributed in.
type SilkVersion struct {
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
}

func SilkDownloadURL(version string) string {
	return fmt.Sprintf("https://github.com/SilkModding/Silk/releases/download/v%s/Silk-v%s.zip", version, version)
}

func NewSilkVersion(version string) SilkVersion {
	return SilkVersion{
		Version:     version,
		DownloadURL: SilkDownloadURL(version),
	}
}
