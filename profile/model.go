package profile

import (
	"errors"

	"svgstudio/optimizer"
)

// Profile is a saved optimizer configuration.
type Profile struct {
	ID       string                   `json:"id"`
	Name     string                   `json:"name"`
	Plugins  []optimizer.Plugin       `json:"plugins"`
	Settings optimizer.GlobalSettings `json:"settings"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Preference holds the user's persisted display choices.
type Preference struct {
	Theme Theme `json:"theme"`
}

// Store is the full persistent state.
type Store struct {
	Profiles     []Profile  `json:"profiles"`
	RecentlyUsed []string   `json:"recentlyUsed"` // MRU order, max 10 IDs
	Preference   Preference `json:"preference"`
}

const maxRecent = 10

var (
	ErrNotFound = errors.New("profile not found")
	ErrInvalid  = errors.New("invalid profile store")
)
