// Package settings persists viewer configuration as TOML.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Settings is everything the host keeps outside individual shader
// blocks. TextureShortcuts maps short keys usable in @iChannelN
// directives to real paths; an exact shortcut key wins, anything else is
// treated as a path.
type Settings struct {
	MaxSessions      int               `toml:"max_sessions"`
	TemplateDir      string            `toml:"template_dir"`
	TextureShortcuts map[string]string `toml:"texture_shortcuts"`
	Record           RecordSettings    `toml:"record"`
}

type RecordSettings struct {
	FPS      int     `toml:"fps"`
	Duration float64 `toml:"duration"`
}

func Defaults() Settings {
	return Settings{
		MaxSessions:      10,
		TextureShortcuts: map[string]string{},
		Record:           RecordSettings{FPS: 60, Duration: 10.0},
	}
}

// Load reads path over Defaults. A missing file yields the defaults
// without error; a malformed file is an error.
func Load(path string) (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings: %w", err)
	}
	if s.TextureShortcuts == nil {
		s.TextureShortcuts = map[string]string{}
	}
	return s, nil
}

// Save writes the settings to path, creating parent directories.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveTexture maps a locator through the shortcut table.
func (s Settings) ResolveTexture(locator string) string {
	if path, ok := s.TextureShortcuts[locator]; ok {
		return path
	}
	return locator
}
