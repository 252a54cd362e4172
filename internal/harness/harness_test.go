package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/woxQAQ/creative-bridge/internal/config"
	"github.com/woxQAQ/creative-bridge/internal/creative"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/trace"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.HarnessConfig {
	t.Helper()
	return &config.HarnessConfig{
		CreativePaths: []string{filepath.Join("testdata", "creatives")},
		LogLevel:      "debug",
		Transport:     "auto",
		ActionsQueue:  config.ActionsQueueConfig{PollInterval: 20 * time.Millisecond},
		Screen:        config.ScreenConfig{Width: 320, Height: 480},
		Run:           config.RunConfig{Duration: 400 * time.Millisecond},
		Wasm: config.WasmConfig{
			MemoryPages:      16,
			MaxInstances:     4,
			ExecutionTimeout: 5,
		},
	}
}

func newHarness(t *testing.T, cfg *config.HarnessConfig) *Harness {
	t.Helper()
	ctx := context.Background()
	h, err := New(ctx, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create harness: %v", err)
	}
	t.Cleanup(func() { _ = h.Close(ctx) })
	return h
}

func TestNew_LoadsCreatives(t *testing.T) {
	h := newHarness(t, testConfig(t))

	if got := h.Creatives().Registry().Count(); got != 3 {
		t.Fatalf("Expected 3 creatives, got %d", got)
	}
	for _, name := range []string{"expanding-banner", "scheme-banner", "wasm-seed"} {
		if !h.Creatives().IsLoaded(name) {
			t.Errorf("Creative %s should be loaded", name)
		}
	}
}

func TestNew_NoCreatives(t *testing.T) {
	cfg := testConfig(t)
	cfg.CreativePaths = []string{t.TempDir()}

	h := newHarness(t, cfg)

	_, err := h.Run(context.Background(), "")
	var notFound *creative.NoCreativesFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NoCreativesFoundError, got %v", err)
	}
}

func TestHarness_RunUnknownCreative(t *testing.T) {
	h := newHarness(t, testConfig(t))

	_, err := h.Run(context.Background(), "missing")
	var notFound *creative.CreativeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected CreativeNotFoundError, got %v", err)
	}
}

func TestHarness_RunExpandingCreative(t *testing.T) {
	h := newHarness(t, testConfig(t))

	result, err := h.Run(context.Background(), "expanding-banner")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Creative != "expanding-banner" {
		t.Errorf("Creative = %s, want expanding-banner", result.Creative)
	}
	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.State != mraid.StateExpanded {
		t.Errorf("State = %s, want %s", result.State, mraid.StateExpanded)
	}
	if !result.UseCustomClose {
		t.Error("UseCustomClose should be true")
	}
	if result.Elapsed < 400*time.Millisecond {
		t.Errorf("Elapsed = %v, expected the run to last the configured duration", result.Elapsed)
	}
}

func TestHarness_RunDefaultsToFirstCreative(t *testing.T) {
	h := newHarness(t, testConfig(t))

	result, err := h.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Creative != "expanding-banner" {
		t.Errorf("Creative = %s, want expanding-banner", result.Creative)
	}
}

func TestHarness_RunWithActionsQueue(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport = "injected"
	cfg.ActionsQueue.Enabled = true

	h := newHarness(t, cfg)

	result, err := h.Run(context.Background(), "expanding-banner")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != mraid.StateExpanded {
		t.Errorf("State = %s, want %s", result.State, mraid.StateExpanded)
	}
}

func TestHarness_RunSchemeCreative(t *testing.T) {
	h := newHarness(t, testConfig(t))

	result, err := h.Run(context.Background(), "scheme-banner")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != mraid.StateHidden {
		t.Errorf("State = %s, want %s", result.State, mraid.StateHidden)
	}
}

func TestHarness_RunWasmCreative(t *testing.T) {
	h := newHarness(t, testConfig(t))

	result, err := h.Run(context.Background(), "wasm-seed")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.RunID == "" {
		t.Error("RunID should be the instance ID")
	}
	if result.State != mraid.StateDefault {
		t.Errorf("State = %s, want %s", result.State, mraid.StateDefault)
	}
	if n := h.runtime.InstanceCount(); n != 0 {
		t.Errorf("Instance should be closed after the run, %d still tracked", n)
	}
}

func TestHarness_Trace(t *testing.T) {
	cfg := testConfig(t)
	cfg.Trace.Path = filepath.Join(t.TempDir(), "run.cbor")

	ctx := context.Background()
	h, err := New(ctx, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create harness: %v", err)
	}
	if _, err := h.Run(ctx, "expanding-banner"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := h.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := trace.ReadFile(cfg.Trace.Path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var expanded, pushedState bool
	for _, rec := range records {
		switch {
		case rec.Direction == trace.ToNative && rec.Action == "expand":
			expanded = true
		case rec.Direction == trace.ToPage && rec.Action == "MmJsBridge.mraid.setState":
			pushedState = true
		}
	}
	if !expanded {
		t.Error("Trace should contain the expand dispatch")
	}
	if !pushedState {
		t.Error("Trace should contain setState pushes")
	}
}
