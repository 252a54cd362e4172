// Package jsruntime hosts creative script in a goja VM and exposes the
// bridge to it: window.mraid, window.MMJS and the MmJsBridge entry points
// the native layer pushes through.
package jsruntime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/internal/mmjs"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/vast"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Transport selection modes.
const (
	TransportAuto     = "auto"
	TransportInjected = "injected"
	TransportScheme   = "scheme"
)

// DefaultPollInterval is how often the actions queue is drained.
const DefaultPollInterval = 100 * time.Millisecond

// Options configures a page.
type Options struct {
	// Screen is the initial screen size, which is also the initial max size.
	Screen mraid.Size
	// Transport is one of TransportAuto, TransportInjected or TransportScheme.
	Transport string
	// ActionsQueue enables polling the native actions queue when the host asks for it.
	ActionsQueue bool
	// PollInterval is the actions queue polling period.
	PollInterval time.Duration
}

// DefaultOptions returns options for a 320x480 screen with automatic transport selection.
func DefaultOptions() Options {
	return Options{
		Screen:       mraid.Size{Width: 320, Height: 480},
		Transport:    TransportAuto,
		ActionsQueue: true,
		PollInterval: DefaultPollInterval,
	}
}

// ActionsQueue is implemented by generic namespaces that batch native-to-page
// calls instead of evaluating them directly.
type ActionsQueue interface {
	UseActionsQueue() bool
	// GetActionsQueue returns a JSON array of {functionName, args}, or "" when empty.
	GetActionsQueue() string
}

// Page is one creative page: a script VM plus the bridge state it owns.
//
// Every VM access happens on the goroutine running Run. Other goroutines
// hand work to it with Do, Exec or Invoke.
type Page struct {
	id   string
	opts Options
	env  bridge.Environment

	vm      *goja.Runtime
	bridge  *bridge.Bridge
	mraid   *mraid.Engine
	vast    *vast.Overlay
	mmjs    *mmjs.API
	scripts []string

	rootLogger   *zap.Logger
	logger       *zap.Logger
	scriptLogger *zap.Logger
	scriptLevel  zap.AtomicLevel

	mu      sync.Mutex
	jobs    []func()
	wake    chan struct{}
	done    chan struct{}
	started atomic.Bool
}

// New builds a page over env and installs the creative-facing globals.
func New(env bridge.Environment, opts Options, logger *zap.Logger) (*Page, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	id := uuid.NewString()
	logger = logger.With(zap.String("page_id", id))

	level := zap.NewAtomicLevelAt(max(zapcore.InfoLevel, logger.Level()))
	p := &Page{
		id:           id,
		opts:         opts,
		env:          env,
		vm:           goja.New(),
		rootLogger:   logger,
		logger:       logger.With(zap.String("component", "page")),
		scriptLogger: logger.Named("script").WithOptions(zap.IncreaseLevel(level)),
		scriptLevel:  level,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}

	p.bridge = bridge.New(selectTransport(env, opts.Transport, logger), logger)
	p.mraid = mraid.New(p.bridge, opts.Screen, logger)
	p.vast = vast.New(p.bridge, logger)
	p.mmjs = mmjs.New(p.bridge, logger)

	if err := p.installGlobals(); err != nil {
		return nil, err
	}
	if err := p.installBridge(); err != nil {
		return nil, err
	}
	if err := p.installMRAID(); err != nil {
		return nil, err
	}
	if err := p.installMMJS(); err != nil {
		return nil, err
	}
	p.scripts = []string{"mraid.js", "mm.js"}
	if opts.ActionsQueue {
		p.scripts = append(p.scripts, "actionsQueue.js")
	}

	p.logger.Debug("Page created", zap.String("transport", string(p.bridge.Transport().Kind())))
	return p, nil
}

func selectTransport(env bridge.Environment, mode string, logger *zap.Logger) bridge.Transport {
	switch mode {
	case TransportInjected:
		return bridge.NewInjectedTransport(env, logger)
	case TransportScheme:
		return bridge.NewSchemeTransport(env, logger)
	}
	return bridge.SelectTransport(env, logger)
}

// ID returns the page identifier.
func (p *Page) ID() string { return p.id }

// The accessors below must only be used from page work (Do, Exec).

func (p *Page) Bridge() *bridge.Bridge { return p.bridge }
func (p *Page) MRAID() *mraid.Engine   { return p.mraid }
func (p *Page) VAST() *vast.Overlay    { return p.vast }
func (p *Page) MMJS() *mmjs.API        { return p.mmjs }
func (p *Page) VM() *goja.Runtime      { return p.vm }

// Run is the page's script thread. It announces the installed bridge files
// to the native layer, then runs queued work and drains the actions queue
// until ctx is done.
func (p *Page) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(p.done)

	stop := context.AfterFunc(ctx, func() {
		p.vm.Interrupt(ctx.Err())
	})
	defer stop()

	p.safely("announce", p.announce)

	var tick <-chan time.Time
	queue := p.actionsQueue()
	if queue != nil {
		ticker := time.NewTicker(p.opts.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
		p.logger.Debug("Polling actions queue", zap.Duration("interval", p.opts.PollInterval))
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Page stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-p.wake:
			p.drain()
		case <-tick:
			p.safely("actions queue", func() { p.pollActions(queue) })
		}
	}
}

func (p *Page) announce() {
	for _, file := range p.scripts {
		p.bridge.Call(protocol.ModuleGeneric, "fileLoaded", protocol.NewParam("filename", file))
	}
}

// Do queues fn to run on the page's script thread. It never blocks.
func (p *Page) Do(fn func()) {
	select {
	case <-p.done:
		p.logger.Warn("Dropping page work", zap.Error(ErrPageClosed))
		return
	default:
	}

	p.mu.Lock()
	p.jobs = append(p.jobs, fn)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Exec runs fn on the script thread and waits for it. A panic in fn,
// including a script exception escaping a listener, becomes a *PanicError.
func (p *Page) Exec(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	p.Do(func() {
		result <- p.protect(fn)
	})

	select {
	case err := <-result:
		return err
	case <-p.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrPageClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunScript evaluates creative script source on the script thread.
func (p *Page) RunScript(ctx context.Context, name, src string) error {
	return p.Exec(ctx, func() error {
		if _, err := p.vm.RunScript(name, src); err != nil {
			return &ScriptError{Name: name, Err: err}
		}
		return nil
	})
}

// Eval evaluates an expression and returns its exported value.
func (p *Page) Eval(ctx context.Context, src string) (any, error) {
	var out any
	err := p.Exec(ctx, func() error {
		v, err := p.vm.RunString(src)
		if err != nil {
			return &ScriptError{Name: "eval", Err: err}
		}
		out = v.Export()
		return nil
	})
	return out, err
}

// Invoke queues a call to the global function at a dotted path, the way
// the native layer pushes into the page (for example
// "MmJsBridge.callbackManager.callCallback").
func (p *Page) Invoke(path string, args ...any) {
	p.Do(func() {
		if err := p.callPath(path, args); err != nil {
			p.logger.Error("Native push failed", zap.String("function", path), zap.Error(err))
		}
	})
}

func (p *Page) drain() {
	for {
		p.mu.Lock()
		jobs := p.jobs
		p.jobs = nil
		p.mu.Unlock()

		if len(jobs) == 0 {
			return
		}
		for _, job := range jobs {
			p.safely("job", job)
		}
	}
}

// safely runs fn and logs anything that escapes it; this is the top-level
// handler for uncaught script exceptions.
func (p *Page) safely(what string, fn func()) {
	if err := p.protect(func() error { fn(); return nil }); err != nil {
		p.logger.Error("Uncaught exception", zap.String("in", what), zap.Error(err))
	}
}

func (p *Page) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
