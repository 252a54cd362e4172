package creative

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the bundle manifest file name.
const ManifestFile = "manifest.yaml"

// Manifest represents the creative bundle manifest.yaml structure.
type Manifest struct {
	Name          string              `yaml:"name"`
	Version       string              `yaml:"version"`
	PlacementType mraid.PlacementType `yaml:"placement_type"`
	// Entry is the HTML document of an HTML creative.
	Entry string     `yaml:"entry"`
	Wasm  WasmConfig `yaml:"wasm"`
	// Size is the default ad frame. Empty means full screen.
	Size      SizeConfig `yaml:"size"`
	Supports  []string   `yaml:"supports"`
	Transport string     `yaml:"transport"`
	Author    string     `yaml:"author"`

	dir string
}

// WasmConfig names the module of a Wasm creative.
type WasmConfig struct {
	File string   `yaml:"file"`
	Args []string `yaml:"args"`
}

// SizeConfig is an ad frame size in density-independent pixels.
type SizeConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

var (
	placementTypes = []mraid.PlacementType{mraid.PlacementInline, mraid.PlacementInterstitial}
	features       = []string{"sms", "tel", "calendar", "storePicture", "inlineVideo"}
	transports     = []string{"", "auto", "injected", "scheme"}
)

// ParseManifest reads and validates manifest.yaml from a bundle directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir
	if m.PlacementType == "" {
		m.PlacementType = mraid.PlacementInline
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields and that the referenced files exist.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return m.invalid("name", "name is required")
	}
	if m.Version == "" {
		return m.invalid("version", "version is required")
	}

	if !slices.Contains(placementTypes, m.PlacementType) {
		return m.invalid("placement_type",
			fmt.Sprintf("unsupported placement type: %s (must be one of: inline, interstitial)", m.PlacementType))
	}

	switch {
	case m.Entry == "" && m.Wasm.File == "":
		return m.invalid("entry", "either entry or wasm.file is required")
	case m.Entry != "" && m.Wasm.File != "":
		return m.invalid("entry", "entry and wasm.file are mutually exclusive")
	}

	if m.Size.Width < 0 || m.Size.Height < 0 || (m.Size.Width == 0) != (m.Size.Height == 0) {
		return m.invalid("size", "width and height must both be positive or both be omitted")
	}

	for _, feature := range m.Supports {
		if !slices.Contains(features, feature) {
			return m.invalid("supports",
				fmt.Sprintf("unknown feature: %s (must be one of: sms, tel, calendar, storePicture, inlineVideo)", feature))
		}
	}

	if !slices.Contains(transports, m.Transport) {
		return m.invalid("transport",
			fmt.Sprintf("unknown transport: %s (must be one of: auto, injected, scheme)", m.Transport))
	}

	for _, file := range []string{m.Entry, m.Wasm.File} {
		if file == "" {
			continue
		}
		if !filepath.IsLocal(file) {
			return &FileNotFoundError{ManifestPath: m.Path(), File: file}
		}
		if _, err := os.Stat(filepath.Join(m.dir, file)); err != nil {
			return &FileNotFoundError{ManifestPath: m.Path(), File: file}
		}
	}

	return nil
}

func (m *Manifest) invalid(field, message string) error {
	return &ManifestValidationError{Path: m.Path(), Field: field, Message: message}
}

// IsWasm reports whether the creative is a Wasm module rather than HTML.
func (m *Manifest) IsWasm() bool {
	return m.Wasm.File != ""
}

// SupportsMap returns the declared features as the map MRAID supports() reads.
func (m *Manifest) SupportsMap() map[string]bool {
	out := make(map[string]bool, len(features))
	for _, f := range features {
		out[f] = slices.Contains(m.Supports, f)
	}
	return out
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, ManifestFile)
}

// EntryPath returns the path of the HTML entry document.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.dir, m.Entry)
}

// WasmPath returns the path of the Wasm module.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the bundle directory.
func (m *Manifest) Dir() string {
	return m.dir
}
