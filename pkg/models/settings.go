package models

const (
	//tygo:emit export type Theme = typeof ThemeLight | typeof ThemeDark | typeof ThemeSystem;
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

const DefaultLanguage = "en"

// Settings is the small record of display preferences. It is merged as a
// whole.
type Settings struct {
	Theme            string `json:"theme" tstype:"Theme"`
	Language         string `json:"language"`
	ShowHidden       bool   `json:"showHidden"`
	ShowImages       bool   `json:"showImages"`
	CompactView      bool   `json:"compactView"`
	ShowExposureDots bool   `json:"showExposureDots"`
}

// DefaultSettings returns the settings a new profile starts with.
func DefaultSettings() Settings {
	return Settings{
		Theme:            ThemeSystem,
		Language:         DefaultLanguage,
		ShowImages:       true,
		ShowExposureDots: true,
	}
}

// IsValidTheme returns true if the theme is one of the known values.
func IsValidTheme(theme string) bool {
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}
