package creative

import (
	"fmt"
)

// ManifestNotFoundError occurs when manifest.yaml is not found in a directory.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at '%s': %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml cannot be parsed as valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when manifest.yaml fails validation.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("manifest validation failed at '%s': %s (field: %s)",
			e.Path, e.Message, e.Field)
	}
	return fmt.Sprintf("manifest validation failed at '%s': %s", e.Path, e.Message)
}

// FileNotFoundError occurs when a file referenced in the manifest is missing
// or lies outside the bundle.
type FileNotFoundError struct {
	ManifestPath string
	File         string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file '%s' not found in bundle (referenced in manifest '%s')",
		e.File, e.ManifestPath)
}

// ScriptError occurs when a creative script cannot be read.
type ScriptError struct {
	Document string
	Src      string
	Err      error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("failed to load script '%s' of '%s': %v", e.Src, e.Document, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// CreativeLoadError occurs when creative loading fails.
type CreativeLoadError struct {
	CreativeName string
	Err          error
}

func (e *CreativeLoadError) Error() string {
	return fmt.Sprintf("failed to load creative '%s': %v", e.CreativeName, e.Err)
}

func (e *CreativeLoadError) Unwrap() error {
	return e.Err
}

// CreativeNotFoundError occurs when a creative is not found in the registry.
type CreativeNotFoundError struct {
	CreativeName string
}

func (e *CreativeNotFoundError) Error() string {
	return fmt.Sprintf("creative '%s' not found", e.CreativeName)
}

// CreativeAlreadyRegisteredError occurs when attempting to register a duplicate creative.
type CreativeAlreadyRegisteredError struct {
	CreativeName string
}

func (e *CreativeAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("creative '%s' is already registered", e.CreativeName)
}

// NotWasmCreativeError occurs when instantiating an HTML creative as Wasm.
type NotWasmCreativeError struct {
	CreativeName string
}

func (e *NotWasmCreativeError) Error() string {
	return fmt.Sprintf("creative '%s' is not a Wasm creative", e.CreativeName)
}

// NoCreativesFoundError occurs when no creatives are found in the configured paths.
type NoCreativesFoundError struct {
	Paths []string
}

func (e *NoCreativesFoundError) Error() string {
	return fmt.Sprintf("no creatives found in paths: %v", e.Paths)
}
