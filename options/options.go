// Package options holds the per-viewer shader configuration and the
// @directive mini-language that documents use to set it.
package options

import (
	"math"
	"strconv"
	"strings"
)

// BaseWidth is the fixed horizontal render resolution. The vertical
// resolution is derived from the configured aspect ratio, keeping the
// internal render size independent of displayed size.
const BaseWidth = 800

// DefaultAspect is the 16:9 height/width ratio used when no @aspect
// directive is present.
const DefaultAspect = 0.5625

// ShaderConfig is immutable after parsing. Channel entries are raw
// locator strings (path or shortcut key); resolving them to bytes is the
// host's job, never the render core's.
type ShaderConfig struct {
	Aspect   float64
	Autoplay bool
	HideCode bool
	Template string
	Channels [4]string
}

func Default() ShaderConfig {
	return ShaderConfig{Aspect: DefaultAspect}
}

// CanvasSize returns the internal render resolution for this config.
func (c ShaderConfig) CanvasSize() (width, height int) {
	return BaseWidth, int(math.Round(BaseWidth * c.Aspect))
}

// ParseDirectives scans raw block source for @key:value directives and
// returns base with recognized values applied. Malformed or unknown
// values are ignored, leaving the existing default in place; directives
// are never fatal.
func ParseDirectives(source string, base ShaderConfig) ShaderConfig {
	cfg := base
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		key, value, ok := strings.Cut(line[1:], ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "aspect":
			if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
				cfg.Aspect = f
			}
		case "autoplay":
			if b, err := strconv.ParseBool(value); err == nil {
				cfg.Autoplay = b
			}
		case "hideCode":
			if b, err := strconv.ParseBool(value); err == nil {
				cfg.HideCode = b
			}
		case "template":
			if value != "" {
				cfg.Template = value
			}
		case "iChannel0", "iChannel1", "iChannel2", "iChannel3":
			if value != "" {
				idx := int(key[len(key)-1] - '0')
				cfg.Channels[idx] = value
			}
		}
	}
	return cfg
}
