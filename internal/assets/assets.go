// Package assets resolves the fonts and icons a card is drawn with.
package assets

import (
	"fmt"

	"github.com/weather-bot/meow/internal/config"
	"github.com/weather-bot/meow/internal/layout"
)

// Load builds layout assets from cfg. Unset paths fall back to system CJK
// fonts, then to the embedded Go fonts and built-in icons.
func Load(cfg *config.Config) (layout.Assets, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	medium, err := loadFont(cfg.Fonts.Medium, false)
	if err != nil {
		return layout.Assets{}, fmt.Errorf("medium font: %w", err)
	}
	light, err := loadFont(cfg.Fonts.Light, true)
	if err != nil {
		return layout.Assets{}, fmt.Errorf("light font: %w", err)
	}

	drop, thermo := builtinIcons()
	if drop, err = loadIcon(cfg.Icons.WaterDrop, drop); err != nil {
		return layout.Assets{}, fmt.Errorf("water drop icon: %w", err)
	}
	if thermo, err = loadIcon(cfg.Icons.Thermometer, thermo); err != nil {
		return layout.Assets{}, fmt.Errorf("thermometer icon: %w", err)
	}

	return layout.Assets{
		Medium:      medium,
		Light:       light,
		WaterDrop:   drop,
		Thermometer: thermo,
	}, nil
}

// NewRenderer loads assets and applies cfg's greetings and title split.
func NewRenderer(cfg *config.Config, opts ...layout.Option) (*layout.Renderer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a, err := Load(cfg)
	if err != nil {
		return nil, err
	}

	mode, err := layout.ParseSplitMode(cfg.TitleSplit)
	if err != nil {
		return nil, err
	}
	base := []layout.Option{
		layout.WithSplitMode(mode),
		layout.WithGreetings(cfg.Greetings),
	}
	return layout.NewRenderer(a, append(base, opts...)...)
}
