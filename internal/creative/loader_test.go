package creative

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/wasm"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// emptyModule is a valid Wasm 1.0 module with no sections.
var emptyModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // Magic number: \0asm
	0x01, 0x00, 0x00, 0x00, // Version: 1
}

// writeWasmBundle creates a Wasm creative bundle in a temp directory.
func writeWasmBundle(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "name: " + name + "\nversion: 1.0.0\nplacement_type: interstitial\nwasm:\n  file: ad.wasm\n  args: [\"--autoplay\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ad.wasm"), emptyModule, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newRuntime(t *testing.T, logger *zap.Logger) *wasm.Runtime {
	t.Helper()
	ctx := context.Background()
	runtime, err := wasm.NewRuntime(ctx, logger, wasm.DefaultRuntimeConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { runtime.Close(ctx) })
	return runtime
}

func TestLoader_LoadCreative_HTML(t *testing.T) {
	loader := NewLoader(nil, zaptest.NewLogger(t))

	c, err := loader.LoadCreative(context.Background(), filepath.Join("testdata", "creatives", "banner"))
	if err != nil {
		t.Fatalf("LoadCreative() failed: %v", err)
	}

	if c.Name() != "banner" || c.Version() != "1.2.0" {
		t.Errorf("unexpected creative %s %s", c.Name(), c.Version())
	}
	if c.PlacementType() != mraid.PlacementInline {
		t.Errorf("expected inline placement, got %s", c.PlacementType())
	}
	if len(c.Scripts()) != 2 {
		t.Errorf("expected 2 scripts, got %d", len(c.Scripts()))
	}
	if c.Compiled != nil {
		t.Error("HTML creative should not carry a compiled module")
	}

	frame := c.Frame(mraid.Size{Width: 360, Height: 640})
	if frame != (mraid.Rect{X: 20, Y: 295, Width: 320, Height: 50}) {
		t.Errorf("unexpected frame %+v", frame)
	}
}

func TestLoader_LoadCreative_Wasm(t *testing.T) {
	logger := zaptest.NewLogger(t)
	loader := NewLoader(newRuntime(t, logger), logger)
	dir := writeWasmBundle(t, t.TempDir(), "spinner")

	c, err := loader.LoadCreative(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadCreative() failed: %v", err)
	}

	if c.Compiled == nil {
		t.Fatal("Wasm creative should carry a compiled module")
	}
	if c.Compiled.Size != len(emptyModule) {
		t.Errorf("Size = %d, want %d", c.Compiled.Size, len(emptyModule))
	}
	if c.Scripts() != nil {
		t.Error("Wasm creative should have no scripts")
	}

	frame := c.Frame(mraid.Size{Width: 360, Height: 640})
	if frame != (mraid.Rect{Width: 360, Height: 640}) {
		t.Errorf("unsized creative should fill the screen, got %+v", frame)
	}
}

func TestLoader_LoadCreative_WasmWithoutRuntime(t *testing.T) {
	loader := NewLoader(nil, zap.NewNop())
	dir := writeWasmBundle(t, t.TempDir(), "spinner")

	_, err := loader.LoadCreative(context.Background(), dir)
	if _, ok := err.(*CreativeLoadError); !ok {
		t.Errorf("expected CreativeLoadError, got %T", err)
	}
}

func TestLoader_LoadCreative_ManifestNotFound(t *testing.T) {
	loader := NewLoader(nil, zap.NewNop())

	_, err := loader.LoadCreative(context.Background(), filepath.Join("testdata", "creatives", "nonexistent"))
	if _, ok := err.(*ManifestNotFoundError); !ok {
		t.Errorf("expected ManifestNotFoundError, got %T", err)
	}
}

func TestLoader_DiscoverCreatives(t *testing.T) {
	loader := NewLoader(nil, zaptest.NewLogger(t))

	creatives, err := loader.DiscoverCreatives(context.Background(), []string{
		filepath.Join("testdata", "creatives"),
		filepath.Join("testdata", "does-not-exist"),
	})
	if err != nil {
		t.Fatalf("DiscoverCreatives() failed: %v", err)
	}

	if len(creatives) != 2 {
		t.Fatalf("expected 2 creatives, got %d", len(creatives))
	}
}

func TestLoader_DiscoverCreatives_BundlePath(t *testing.T) {
	loader := NewLoader(nil, zaptest.NewLogger(t))

	creatives, err := loader.DiscoverCreatives(context.Background(), []string{
		filepath.Join("testdata", "creatives", "interstitial"),
	})
	if err != nil {
		t.Fatalf("DiscoverCreatives() failed: %v", err)
	}

	if len(creatives) != 1 || creatives[0].Name() != "interstitial" {
		t.Fatalf("expected the interstitial bundle, got %v", creatives)
	}
}

func TestLoader_DiscoverCreatives_NoneValid(t *testing.T) {
	loader := NewLoader(nil, zap.NewNop())

	_, err := loader.DiscoverCreatives(context.Background(), []string{filepath.Join("testdata", "invalid")})
	if _, ok := err.(*NoCreativesFoundError); !ok {
		t.Errorf("expected NoCreativesFoundError, got %T", err)
	}
}
