package canvas

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// BackgroundKind distinguishes preset backgrounds from uploaded images.
type BackgroundKind string

const (
	BackgroundPreset BackgroundKind = "preset"
	BackgroundImage  BackgroundKind = "image"
)

// Background is the canvas backdrop selection. It is session state only and
// never written to the layout store.
type Background struct {
	Kind   BackgroundKind `json:"kind"`
	Preset string         `json:"preset,omitempty"`
	Image  string         `json:"image,omitempty"`
}

// BackgroundPresetSpec describes a built-in backdrop as CSS tokens.
type BackgroundPresetSpec struct {
	Name   string            `json:"name"`
	Label  string            `json:"label"`
	Tokens map[string]string `json:"tokens"`
}

// DefaultBackground is the preset applied to new sessions.
const DefaultBackground = "plain"

var backgroundPresets = map[string]BackgroundPresetSpec{
	"plain": {
		Name:  "plain",
		Label: "Plain",
		Tokens: map[string]string{
			"background-color": "#f8fafc",
		},
	},
	"grid": {
		Name:  "grid",
		Label: "Grid",
		Tokens: map[string]string{
			"background-color": "#ffffff",
			"background-image": "linear-gradient(#e5e7eb 1px, transparent 1px), linear-gradient(90deg, #e5e7eb 1px, transparent 1px)",
			"background-size":  "24px 24px",
		},
	},
	"dots": {
		Name:  "dots",
		Label: "Dots",
		Tokens: map[string]string{
			"background-color": "#ffffff",
			"background-image": "radial-gradient(#cbd5e1 1px, transparent 1px)",
			"background-size":  "16px 16px",
		},
	},
	"gradient-dusk": {
		Name:  "gradient-dusk",
		Label: "Dusk",
		Tokens: map[string]string{
			"background-image": "linear-gradient(135deg, #312e81 0%, #9d174d 100%)",
		},
	},
	"gradient-ocean": {
		Name:  "gradient-ocean",
		Label: "Ocean",
		Tokens: map[string]string{
			"background-image": "linear-gradient(135deg, #0ea5e9 0%, #1e3a8a 100%)",
		},
	},
}

// BackgroundPresets lists the built-in presets sorted by name.
func BackgroundPresets() []BackgroundPresetSpec {
	out := make([]BackgroundPresetSpec, 0, len(backgroundPresets))
	for _, spec := range backgroundPresets {
		out = append(out, cloneBackgroundPreset(spec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PresetBackground selects a built-in preset.
func PresetBackground(name string) (Background, error) {
	name = strings.TrimSpace(name)
	if _, ok := backgroundPresets[name]; !ok {
		return Background{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return Background{Kind: BackgroundPreset, Preset: name}, nil
}

// ImageBackground selects an uploaded image. Only inline images and http(s)
// URLs are accepted.
func ImageBackground(ref string) (Background, error) {
	ref = strings.TrimSpace(ref)
	if IsImageDataURI(ref) {
		return Background{Kind: BackgroundImage, Image: ref}, nil
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Background{}, ErrInvalidImage
	}
	return Background{Kind: BackgroundImage, Image: u.String()}, nil
}

// Tokens returns the CSS declarations of the selection.
func (b Background) Tokens() map[string]string {
	switch b.Kind {
	case BackgroundImage:
		if b.Image == "" {
			return nil
		}
		return map[string]string{
			"background-image":    "url(" + cssURL(b.Image) + ")",
			"background-size":     "cover",
			"background-position": "center",
		}
	case BackgroundPreset:
		if spec, ok := backgroundPresets[b.Preset]; ok {
			return cloneBackgroundPreset(spec).Tokens
		}
	}
	return nil
}

// CSS renders the selection as inline declarations in a stable order.
func (b Background) CSS() string {
	tokens := b.Tokens()
	if len(tokens) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tokens))
	for key := range tokens {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(tokens[key])
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

// cssURL quotes a URL for use inside url().
func cssURL(v string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "")
	return `"` + replacer.Replace(v) + `"`
}

func cloneBackgroundPreset(spec BackgroundPresetSpec) BackgroundPresetSpec {
	cloned := spec
	if len(spec.Tokens) > 0 {
		cloned.Tokens = make(map[string]string, len(spec.Tokens))
		for key, value := range spec.Tokens {
			cloned.Tokens[key] = value
		}
	}
	return cloned
}
