package models

// AppStatus summarises what is installed under one installation root.
type AppStatus struct {
	GamePath         string `json:"gamePath"`
	ModsPath         string `json:"modsPath"`
	SilkInstalled    bool   `json:"silkInstalled"`
	BepInExInstalled bool   `json:"bepinexInstalled"`
	SilkVersion      string `json:"silkVersion,omitempty"`
	LatestVersion    string `json:"latestVersion,omitempty"`
	BootstrapState   string `json:"bootstrapState"`
}
