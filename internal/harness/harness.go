// Package harness runs creative bundles against the reference native host.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/woxQAQ/creative-bridge/internal/config"
	"github.com/woxQAQ/creative-bridge/internal/creative"
	"github.com/woxQAQ/creative-bridge/internal/host"
	"github.com/woxQAQ/creative-bridge/internal/jsruntime"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/trace"
	"github.com/woxQAQ/creative-bridge/internal/wasm"
	"go.uber.org/zap"
)

// Harness owns the long-lived pieces shared by runs: the Wasm runtime, the
// creative catalog and the trace recorder.
type Harness struct {
	cfg       *config.HarnessConfig
	logger    *zap.Logger
	runtime   *wasm.Runtime
	creatives *creative.Manager
	recorder  *trace.FileRecorder
}

// Result summarizes one run.
type Result struct {
	Creative string
	// RunID is the page ID of an HTML creative or the instance ID of a Wasm one.
	RunID          string
	State          mraid.State
	UseCustomClose bool
	Elapsed        time.Duration
}

// New initializes the Wasm runtime, opens the trace and loads every creative
// under the configured paths.
func New(ctx context.Context, cfg *config.HarnessConfig, logger *zap.Logger) (*Harness, error) {
	wasmConfig := &wasm.RuntimeConfig{
		MemoryPages:      cfg.Wasm.MemoryPages,
		DebugEnabled:     cfg.Wasm.Debug,
		CacheDir:         cfg.Wasm.CacheDir,
		MaxInstances:     cfg.Wasm.MaxInstances,
		ExecutionTimeout: time.Duration(cfg.Wasm.ExecutionTimeout) * time.Second,
	}

	runtime, err := wasm.NewRuntime(ctx, logger, wasmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Wasm runtime: %w", err)
	}

	h := &Harness{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "harness")),
		runtime: runtime,
	}

	if cfg.Trace.Path != "" {
		recorder, err := trace.NewFileRecorder(cfg.Trace.Path)
		if err != nil {
			_ = runtime.Close(ctx)
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		h.recorder = recorder
	}

	h.creatives = creative.NewManager(cfg.CreativePaths, runtime, wasm.NewHostFunctions(logger), logger)
	if err := h.creatives.LoadAll(ctx); err != nil {
		_ = h.Close(ctx)
		return nil, err
	}

	h.logger.Info("Harness initialized",
		zap.Int("creatives", h.creatives.Registry().Count()),
		zap.String("trace", cfg.Trace.Path),
	)
	return h, nil
}

// Creatives returns the creative catalog.
func (h *Harness) Creatives() *creative.Manager {
	return h.creatives
}

// Run runs the named creative, or the first one by name when name is empty,
// until ctx is done or the configured run duration elapses.
func (h *Harness) Run(ctx context.Context, name string) (*Result, error) {
	c, err := h.pick(name)
	if err != nil {
		return nil, err
	}

	if d := h.cfg.Run.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	logger := h.logger.With(zap.String("creative", c.Name()))
	logger.Info("Running creative",
		zap.String("version", c.Version()),
		zap.String("placement_type", string(c.PlacementType())),
		zap.Bool("wasm", c.Manifest.IsWasm()),
	)

	start := time.Now()
	var result *Result
	if c.Manifest.IsWasm() {
		result, err = h.runWasm(ctx, c)
	} else {
		result, err = h.runHTML(ctx, c)
	}
	if result != nil {
		result.Creative = c.Name()
		result.Elapsed = time.Since(start)
		logger.Info("Creative run finished",
			zap.String("run_id", result.RunID),
			zap.String("state", string(result.State)),
			zap.Duration("elapsed", result.Elapsed),
		)
	}
	return result, err
}

func (h *Harness) pick(name string) (*creative.Creative, error) {
	if name != "" {
		return h.creatives.GetCreative(name)
	}
	list := h.creatives.Registry().List()
	if len(list) == 0 {
		return nil, &creative.NoCreativesFoundError{Paths: h.cfg.CreativePaths}
	}
	return list[0], nil
}

func (h *Harness) screen() mraid.Size {
	return mraid.Size{Width: h.cfg.Screen.Width, Height: h.cfg.Screen.Height}
}

// newHost builds the native layer and the simulated device around it.
func (h *Harness) newHost(c *creative.Creative, opts host.Options) (*host.Native, *host.Container) {
	var recorder trace.Recorder
	if h.recorder != nil {
		recorder = h.recorder
	}
	native := host.New(opts, recorder, h.logger)

	containerOpts := host.ContainerOptions{
		PlacementType: c.PlacementType(),
		Screen:        h.screen(),
		Frame:         c.Frame(h.screen()),
		Supports:      c.Manifest.SupportsMap(),
	}
	if h.cfg.VAST.Enabled {
		containerOpts.VASTDuration = h.cfg.VAST.Duration
	}
	container := host.NewContainer(native, containerOpts, h.logger)
	host.NewDevice(native, host.Location{
		Latitude:  h.cfg.Location.Latitude,
		Longitude: h.cfg.Location.Longitude,
	}, h.logger)
	host.NewVideos(native, h.logger)

	return native, container
}

func (h *Harness) transport(c *creative.Creative) string {
	if t := c.Manifest.Transport; t != "" {
		return t
	}
	return h.cfg.Transport
}

func (h *Harness) runHTML(ctx context.Context, c *creative.Creative) (*Result, error) {
	transport := h.transport(c)
	queue := h.cfg.ActionsQueue.Enabled && transport != jsruntime.TransportScheme

	native, container := h.newHost(c, host.Options{
		Injected:     transport != jsruntime.TransportScheme,
		ActionsQueue: queue,
	})

	page, err := jsruntime.New(native, jsruntime.Options{
		Screen:       h.screen(),
		Transport:    transport,
		ActionsQueue: queue,
		PollInterval: h.cfg.ActionsQueue.PollInterval,
	}, h.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	native.Attach(page)

	done := make(chan error, 1)
	go func() { done <- page.Run(ctx) }()

	for _, script := range c.Scripts() {
		if err := page.RunScript(ctx, script.Name, script.Source); err != nil {
			if ctx.Err() != nil {
				break
			}
			h.logger.Error("Creative script failed",
				zap.String("creative", c.Name()),
				zap.String("script", script.Name),
				zap.Error(err),
			)
		}
	}

	err = <-done
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = nil
	}

	return &Result{
		RunID:          page.ID(),
		State:          container.State(),
		UseCustomClose: container.UseCustomClose(),
	}, err
}

func (h *Harness) runWasm(ctx context.Context, c *creative.Creative) (*Result, error) {
	// Guests cannot be called into, so pushes always go through the queue.
	native, container := h.newHost(c, host.Options{Injected: true, ActionsQueue: true})

	stdout := zap.NewStdLog(h.logger.Named("creative").With(zap.String("creative", c.Name()))).Writer()
	instance, err := h.creatives.Instantiate(ctx, c.Name(), native, stdout)
	if err != nil {
		return nil, err
	}
	defer instance.Close(context.WithoutCancel(ctx))

	err = instance.Run(ctx)
	if ctx.Err() != nil {
		err = nil
	}

	return &Result{
		RunID:          instance.ID,
		State:          container.State(),
		UseCustomClose: container.UseCustomClose(),
	}, err
}

// Close releases the Wasm runtime and flushes the trace.
func (h *Harness) Close(ctx context.Context) error {
	var errs []error
	if err := h.runtime.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close Wasm runtime: %w", err))
	}
	if h.recorder != nil {
		if err := h.recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace: %w", err))
		}
	}
	return errors.Join(errs...)
}
