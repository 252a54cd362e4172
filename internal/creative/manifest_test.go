package creative

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/woxQAQ/creative-bridge/internal/mraid"
)

func TestParseManifest_Valid(t *testing.T) {
	dir := filepath.Join("testdata", "creatives", "banner")

	manifest, err := ParseManifest(dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	if manifest.Name != "banner" {
		t.Errorf("expected Name 'banner', got '%s'", manifest.Name)
	}
	if manifest.Version != "1.2.0" {
		t.Errorf("expected Version '1.2.0', got '%s'", manifest.Version)
	}
	if manifest.PlacementType != mraid.PlacementInline {
		t.Errorf("expected inline placement, got '%s'", manifest.PlacementType)
	}
	if manifest.Entry != "index.html" {
		t.Errorf("expected Entry 'index.html', got '%s'", manifest.Entry)
	}
	if manifest.Size.Width != 320 || manifest.Size.Height != 50 {
		t.Errorf("unexpected Size %+v", manifest.Size)
	}
	if len(manifest.Supports) != 2 {
		t.Errorf("expected 2 supported features, got %d", len(manifest.Supports))
	}
	if manifest.IsWasm() {
		t.Error("banner should not be a Wasm creative")
	}
}

func TestParseManifest_MissingName(t *testing.T) {
	dir := filepath.Join("testdata", "invalid", "missing-fields")

	_, err := ParseManifest(dir)
	var validationErr *ManifestValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ManifestValidationError, got %T", err)
	}
	if validationErr.Field != "name" {
		t.Errorf("expected Field 'name', got '%s'", validationErr.Field)
	}
}

func TestParseManifest_NotFound(t *testing.T) {
	_, err := ParseManifest(filepath.Join("testdata", "creatives", "nonexistent"))
	if err == nil {
		t.Fatal("ParseManifest() should fail for nonexistent directory")
	}

	if _, ok := err.(*ManifestNotFoundError); !ok {
		t.Errorf("expected ManifestNotFoundError, got %T", err)
	}
}

func TestParseManifest_InvalidYAML(t *testing.T) {
	_, err := ParseManifest(filepath.Join("testdata", "invalid", "invalid-yaml"))
	if err == nil {
		t.Fatal("ParseManifest() should fail for invalid YAML")
	}

	if _, ok := err.(*ManifestParseError); !ok {
		t.Errorf("expected ManifestParseError, got %T", err)
	}
}

func TestParseManifest_ValidationErrors(t *testing.T) {
	tests := []struct {
		dir   string
		field string
	}{
		{"missing-fields", "name"},
		{"bad-placement", "placement_type"},
		{"bad-feature", "supports"},
		{"entry-and-wasm", "entry"},
		{"bad-size", "size"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			_, err := ParseManifest(filepath.Join("testdata", "invalid", tt.dir))

			validationErr, ok := err.(*ManifestValidationError)
			if !ok {
				t.Fatalf("expected ManifestValidationError, got %T (%v)", err, err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("expected Field '%s', got '%s'", tt.field, validationErr.Field)
			}
		})
	}
}

func TestParseManifest_FileNotFound(t *testing.T) {
	for _, dir := range []string{"missing-entry", "escaping-entry"} {
		_, err := ParseManifest(filepath.Join("testdata", "invalid", dir))
		if _, ok := err.(*FileNotFoundError); !ok {
			t.Errorf("%s: expected FileNotFoundError, got %T", dir, err)
		}
	}
}

func TestManifest_Paths(t *testing.T) {
	dir := filepath.Join("testdata", "creatives", "banner")

	manifest, err := ParseManifest(dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	if manifest.Path() != filepath.Join(dir, "manifest.yaml") {
		t.Errorf("unexpected Path '%s'", manifest.Path())
	}
	if manifest.EntryPath() != filepath.Join(dir, "index.html") {
		t.Errorf("unexpected EntryPath '%s'", manifest.EntryPath())
	}
	if manifest.Dir() != dir {
		t.Errorf("expected Dir '%s', got '%s'", dir, manifest.Dir())
	}
}

func TestManifest_SupportsMap(t *testing.T) {
	m := &Manifest{Supports: []string{"sms", "inlineVideo"}}

	supports := m.SupportsMap()
	if len(supports) != 5 {
		t.Fatalf("expected all 5 features, got %d", len(supports))
	}
	if !supports["sms"] || !supports["inlineVideo"] {
		t.Errorf("declared features should be true: %v", supports)
	}
	if supports["tel"] || supports["calendar"] {
		t.Errorf("undeclared features should be false: %v", supports)
	}
}
