package models

// ModRecord is the persisted registry entry for a mod. FileName carries no enable/disable suffix.
type ModRecord struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FileName       string  `json:"fileName"`
	Enabled        bool    `json:"enabled"`
	Version        string  `json:"version"`
	Author         string  `json:"author"`
	Description    string  `json:"description"`
	IconPath       string  `json:"iconPath"`
	SilkVersion    *string `json:"silkVersion,omitempty"`
	MinSilkVersion *string `json:"minSilkVersion,omitempty"`
	MaxSilkVersion *string `json:"maxSilkVersion,omitempty"`
}

// InstalledMod is the join of a mods directory entry with its registry record.
type InstalledMod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	Enabled     bool   `json:"enabled"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
	IconPath    string `json:"iconPath"`
	Directory   bool   `json:"directory"`
}

// CatalogMod is an entry of the remote mod catalog.
type CatalogMod struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Version        string  `json:"version"`
	Author         string  `json:"author"`
	FileName       string  `json:"fileName"`
	FilePath       string  `json:"filePath"`
	FileSize       uint64  `json:"fileSize"`
	IconPath       string  `json:"iconPath"`
	UploadDate     string  `json:"uploadDate"`
	Downloads      uint64  `json:"downloads"`
	LastDownloaded *string `json:"lastDownloaded"`
	MinSilkVersion *string `json:"minSilkVersion,omitempty"`
	MaxSilkVersion *string `json:"maxSilkVersion,omitempty"`
}

// ModVersionInfo is a mod's declared compatibility window against the loader. Nil bounds are unbounded.
type ModVersionInfo struct {
	ModID            string  `json:"modId"`
	Version          string  `json:"version"`
	SilkVersion      string  `json:"silkVersion"`
	MinLoaderVersion *string `json:"minSilkVersion,omitempty"`
	MaxLoaderVersion *string `json:"maxSilkVersion,omitempty"`
}

// ModConfigFile is one mod's YAML configuration, converted to plain values.
type ModConfigFile struct {
	ModID   string         `json:"modId"`
	ModName string         `json:"modName"`
	Config  map[string]any `json:"config"`
}
