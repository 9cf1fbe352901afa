package models

import (
	"fmt"
	"strings"
)

// LoaderKind identifies one of the two injection frameworks that can share an installation root.
type LoaderKind string

const (
	Silk    LoaderKind = "silk"
	BepInEx LoaderKind = "bepinex"
)

// ShimFileName is Silk's native shim at the installation root. BepInEx boots through the same file.
const ShimFileName = "winhttp.dll"

func AllLoaders() []LoaderKind {
	return []LoaderKind{Silk, BepInEx}
}

func ParseLoaderKind(value string) (LoaderKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(Silk):
		return Silk, nil
	case string(BepInEx):
		return BepInEx, nil
	default:
		return "", fmt.Errorf("unknown loader %q (expected silk or bepinex)", value)
	}
}

func (kind LoaderKind) String() string {
	return string(kind)
}

// DisplayName is the loader's own spelling, which is also its payload directory name.
func (kind LoaderKind) DisplayName() string {
	switch kind {
	case Silk:
		return "Silk"
	case BepInEx:
		return "BepInEx"
	default:
		return string(kind)
	}
}

// PayloadDir is the directory, relative to the installation root, holding the loader's files.
func (kind LoaderKind) PayloadDir() string {
	return kind.DisplayName()
}

func (kind LoaderKind) Other() LoaderKind {
	if kind == Silk {
		return BepInEx
	}
	return Silk
}
