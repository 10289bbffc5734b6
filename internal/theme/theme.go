// Package theme holds the color palettes for interactive output. A small
// set of semantic tokens decouples rendering code from concrete colors, and
// every bubbletint tint is registered alongside the two built-in palettes.
package theme

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "pegasus-dark"

// Token represents a semantic color slot within the CLI.
type Token string

const (
	ColorTextPrimary   Token = "text.primary"
	ColorTextSecondary Token = "text.secondary"
	ColorTextMuted     Token = "text.muted"
	ColorBorder        Token = "border"
	ColorAccent        Token = "accent"
	ColorInfo          Token = "info"
	ColorSuccess       Token = "success"
	ColorWarning       Token = "warning"
	ColorDanger        Token = "danger"
	ColorHighlight     Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "" && dark == "":
		return lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#000000"}
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name        string
	DisplayName string
	Colors      map[Token]Color
}

// Color returns a color for the provided token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if p.Colors != nil {
		if c, ok := p.Colors[token]; ok {
			return c
		}
	}
	return fallbackColor(token)
}

// Adaptive returns the lipgloss adaptive color for the provided token.
func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to the requested token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

// BackgroundStyle returns a lipgloss style with the background set to the requested token.
func (p Palette) BackgroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Background(p.Adaptive(token))
}

var (
	registryOnce sync.Once
	registryMu   sync.RWMutex
	palettes     map[string]Palette
	current      Palette
	defaultPal   Palette
)

// Available returns the list of registered theme IDs (sorted).
func Available() []string {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the palette with the provided name.
func Get(name string) (Palette, bool) {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := palettes[sanitizeName(name)]
	return p, ok
}

// SetCurrent sets the active palette.
func SetCurrent(name string) error {
	ensureRegistry()

	name = sanitizeName(name)
	if name == "" {
		name = DefaultName
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown color theme %q", name)
	}
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	return current
}

func ensureRegistry() {
	registryOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()

		palettes = make(map[string]Palette)

		registerPalette(pegasusDarkPalette())
		registerPalette(pegasusLightPalette())
		defaultPal = palettes[DefaultName]
		current = defaultPal

		for _, t := range tint.DefaultTints() {
			registerPalette(paletteFromTint(t))
		}
	})
}

func registerPalette(p Palette) {
	if p.Name == "" {
		return
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Name
	}
	p.Name = sanitizeName(p.Name)
	palettes[p.Name] = p
}

func fallbackColor(token Token) Color {
	if defaultPal.Colors != nil {
		if c, ok := defaultPal.Colors[token]; ok {
			return c
		}
	}
	return Color{Light: "#FFFFFF", Dark: "#000000"}
}

func sanitizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

func pegasusDarkPalette() Palette {
	return Palette{
		Name:        "pegasus-dark",
		DisplayName: "Pegasus Dark",
		Colors: map[Token]Color{
			ColorTextPrimary:   {Light: "#1A1A2E", Dark: "#E8E8F0"},
			ColorTextSecondary: {Light: "#44446A", Dark: "#A8A8C8"},
			ColorTextMuted:     {Light: "#77779A", Dark: "#6C6C8A"},
			ColorBorder:        {Light: "#9494B8", Dark: "#3D3D5C"},
			ColorAccent:        {Light: "#2546F0", Dark: "#6D8DFF"},
			ColorInfo:          {Light: "#0F6FC6", Dark: "#58B7FF"},
			ColorSuccess:       {Light: "#1B7F4D", Dark: "#4FD08A"},
			ColorWarning:       {Light: "#A66B00", Dark: "#F0B429"},
			ColorDanger:        {Light: "#C01B2F", Dark: "#FF6B7A"},
			ColorHighlight:     {Light: "#FFFFFF", Dark: "#FFFFFF"},
		},
	}
}

func pegasusLightPalette() Palette {
	p := pegasusDarkPalette()
	return Palette{
		Name:        "pegasus-light",
		DisplayName: "Pegasus Light",
		Colors: map[Token]Color{
			ColorTextPrimary:   flip(p.Colors[ColorTextPrimary]),
			ColorTextSecondary: flip(p.Colors[ColorTextSecondary]),
			ColorTextMuted:     flip(p.Colors[ColorTextMuted]),
			ColorBorder:        flip(p.Colors[ColorBorder]),
			ColorAccent:        p.Colors[ColorAccent],
			ColorInfo:          p.Colors[ColorInfo],
			ColorSuccess:       p.Colors[ColorSuccess],
			ColorWarning:       p.Colors[ColorWarning],
			ColorDanger:        p.Colors[ColorDanger],
			ColorHighlight:     {Light: "#1A1A2E", Dark: "#1A1A2E"},
		},
	}
}

func flip(c Color) Color {
	return Color{Light: c.Dark, Dark: c.Light}
}

func paletteFromTint(t *tint.Tint) Palette {
	if t == nil {
		return Palette{}
	}

	fg := normalizeHex(tintHex(t.Fg))
	muted := normalizeHex(tintHex(t.BrightBlack))
	accent := normalizeHex(tintHex(t.Cyan))
	info := normalizeHex(tintHex(t.Blue))
	success := normalizeHex(tintHex(t.Green))
	warning := normalizeHex(tintHex(t.Yellow))
	danger := normalizeHex(tintHex(t.Red))
	highlight := normalizeHex(tintHex(t.BrightWhite))

	colors := map[Token]Color{
		ColorTextPrimary:   {Light: fg, Dark: fg},
		ColorTextSecondary: {Light: lighten(fg, 0.2), Dark: darken(fg, 0.2)},
		ColorTextMuted:     {Light: muted, Dark: muted},
		ColorBorder:        {Light: muted, Dark: muted},
		ColorAccent:        {Light: accent, Dark: accent},
		ColorInfo:          {Light: info, Dark: info},
		ColorSuccess:       {Light: success, Dark: success},
		ColorWarning:       {Light: warning, Dark: warning},
		ColorDanger:        {Light: danger, Dark: danger},
		ColorHighlight:     {Light: highlight, Dark: highlight},
	}

	return Palette{
		Name:        sanitizeName(t.ID),
		DisplayName: strings.TrimSpace(t.DisplayName),
		Colors:      colors,
	}
}

func tintHex(c *tint.Color) string {
	if c == nil {
		return ""
	}
	return c.Hex()
}

func normalizeHex(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return h
	}
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	return strings.ToUpper(h)
}

func lighten(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, amount).Clamped().Hex()
}

func darken(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(colorful.Color{R: 0, G: 0, B: 0}, amount).Clamped().Hex()
}
