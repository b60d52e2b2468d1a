// Package renderprefs loads glyph-antialiasing preferences for the host
// editor's renderer. Defaults are overridden first by environment
// variables, then by an optional JSON config file. Loaded once; no
// concurrency beyond the lazy init.
package renderprefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Mode selects how glyphs are antialiased.
type Mode int

const (
	ModeDefault Mode = iota
	ModeBinary
	ModeReduced
)

func (m Mode) String() string {
	switch m {
	case ModeBinary:
		return "binary"
	case ModeReduced:
		return "reduced"
	default:
		return "default"
	}
}

// Profile holds the antialiasing settings for one rendering surface.
type Profile struct {
	Mode                       Mode
	BinaryThreshold            uint8
	ReducedLevels              uint8
	DisableSubpixelPositioning bool
}

// Prefs holds the buffer (editor text) and UI profiles.
type Prefs struct {
	Buffer Profile
	UI     Profile
}

// DefaultBufferProfile returns the default for editor text.
func DefaultBufferProfile() Profile {
	return Profile{
		Mode:                       ModeBinary,
		BinaryThreshold:            96,
		ReducedLevels:              4,
		DisableSubpixelPositioning: true,
	}
}

// DefaultUIProfile returns the default for UI chrome.
func DefaultUIProfile() Profile {
	return Profile{
		Mode:            ModeDefault,
		BinaryThreshold: 96,
		ReducedLevels:   4,
	}
}

// Env variable prefixes for the two profiles.
const (
	BufferEnvPrefix = "ZED_ANTIALIASING"
	UIEnvPrefix     = "ZED_UI_ANTIALIASING"
)

func parseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "default", "aa", "antialias", "antialiasing":
		return ModeDefault, true
	case "binary", "mono", "monochrome", "none", "off", "disable", "disabled", "noaa":
		return ModeBinary, true
	case "reduced", "low", "steps", "quantized", "quantised":
		return ModeReduced, true
	}
	return ModeDefault, false
}

func clampReducedLevels(levels uint8) uint8 {
	if levels < 2 {
		return 2
	}
	if levels > 8 {
		return 8
	}
	return levels
}

// applyEnvOverrides merges environment overrides into the profile.
func (p *Profile) applyEnvOverrides(prefix string) {
	if mode, ok := parseMode(os.Getenv(prefix + "_MODE")); ok {
		p.Mode = mode
	}
	if v, err := strconv.ParseUint(os.Getenv(prefix+"_BINARY_THRESHOLD"), 10, 16); err == nil {
		if v > 255 {
			v = 255
		}
		p.BinaryThreshold = uint8(v)
	}
	if v, err := strconv.ParseUint(os.Getenv(prefix+"_REDUCED_LEVELS"), 10, 16); err == nil {
		p.ReducedLevels = clampReducedLevels(uint8(min(v, 255)))
	}
	if v := os.Getenv(prefix + "_DISABLE_SUBPIXEL_POSITIONING"); v != "" && v != "0" {
		p.DisableSubpixelPositioning = true
	}
}

// ProfileConfig is the JSON file shape of one profile; nil fields keep
// the current value.
type ProfileConfig struct {
	Mode                       *string `json:"mode"`
	BinaryThreshold            *uint8  `json:"binary_threshold"`
	ReducedLevels              *uint8  `json:"reduced_levels"`
	DisableSubpixelPositioning *bool   `json:"disable_subpixel_positioning"`
}

func (p *Profile) applyConfig(cfg *ProfileConfig) {
	if cfg == nil {
		return
	}
	if cfg.Mode != nil {
		if mode, ok := parseMode(*cfg.Mode); ok {
			p.Mode = mode
		}
	}
	if cfg.BinaryThreshold != nil {
		p.BinaryThreshold = *cfg.BinaryThreshold
	}
	if cfg.ReducedLevels != nil {
		p.ReducedLevels = clampReducedLevels(*cfg.ReducedLevels)
	}
	if cfg.DisableSubpixelPositioning != nil {
		p.DisableSubpixelPositioning = *cfg.DisableSubpixelPositioning
	}
}

type fileConfig struct {
	Buffer *ProfileConfig `json:"buffer"`
	UI     *ProfileConfig `json:"ui"`
}

// configPath returns the JSON config file location under $HOME, or ""
// when no home is known.
func configPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "zed", "antialiasing.json")
}

// Load builds the preferences: defaults, then env overrides, then the
// config file merge. Unreadable or malformed files are ignored.
func Load() Prefs {
	prefs := Prefs{
		Buffer: DefaultBufferProfile(),
		UI:     DefaultUIProfile(),
	}

	prefs.Buffer.applyEnvOverrides(BufferEnvPrefix)
	prefs.UI.applyEnvOverrides(UIEnvPrefix)

	if path := configPath(); path != "" {
		if contents, err := os.ReadFile(path); err == nil {
			var cfg fileConfig
			if json.Unmarshal(contents, &cfg) == nil {
				prefs.Buffer.applyConfig(cfg.Buffer)
				prefs.UI.applyConfig(cfg.UI)
			}
		}
	}

	return prefs
}

var loadOnce = sync.OnceValue(Load)

// Get returns the process-wide preferences, loaded on first use.
func Get() Prefs { return loadOnce() }
