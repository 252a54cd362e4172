package wasm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// ModuleLoader compiles creative modules into the runtime's module cache.
type ModuleLoader struct {
	runtime *Runtime
	logger  *zap.Logger
}

func NewModuleLoader(runtime *Runtime, logger *zap.Logger) *ModuleLoader {
	return &ModuleLoader{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-loader")),
	}
}

// LoadFile compiles the module at path. The path is the cache key.
func (l *ModuleLoader) LoadFile(ctx context.Context, path string) (*CompiledModule, error) {
	if cached, ok := l.runtime.GetCompiledModule(path); ok {
		return cached, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creative module: %w", err)
	}
	return l.compile(ctx, path, path, data)
}

// Load compiles an in-memory module under name, reusing a cached one.
func (l *ModuleLoader) Load(ctx context.Context, name string, data []byte) (*CompiledModule, error) {
	if cached, ok := l.runtime.GetCompiledModule(name); ok {
		return cached, nil
	}
	return l.compile(ctx, name, "", data)
}

func (l *ModuleLoader) compile(ctx context.Context, name, path string, data []byte) (*CompiledModule, error) {
	start := time.Now()
	compiled, err := l.runtime.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, &CompileError{Module: name, Err: err}
	}

	imports, err := hostImports(name, compiled)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	module := &CompiledModule{
		Module:     compiled,
		Name:       name,
		Path:       path,
		Size:       len(data),
		Imports:    imports,
		CompiledAt: time.Now(),
	}
	l.runtime.StoreCompiledModule(module)

	l.logger.Info("Compiled creative module",
		zap.String("module", name),
		zap.Int("size", module.Size),
		zap.Strings("imports", imports),
		zap.Duration("duration", time.Since(start)),
	)
	return module, nil
}

// hostImports lists the module's imports as "module.function", failing on
// any the harness does not provide.
func hostImports(name string, compiled wazero.CompiledModule) ([]string, error) {
	var imports []string
	for _, fn := range compiled.ImportedFunctions() {
		module, function, _ := fn.Import()
		switch module {
		case HostModuleName, wasi_snapshot_preview1.ModuleName:
			imports = append(imports, module+"."+function)
		default:
			return nil, &ImportError{Module: name, ImportModule: module, Function: function}
		}
	}
	return imports, nil
}
