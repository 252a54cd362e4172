package creative

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/woxQAQ/creative-bridge/internal/wasm"
	"go.uber.org/zap"
)

// Loader loads creative bundles from disk.
type Loader struct {
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new creative loader. runtime may be nil when only HTML
// creatives are loaded.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	l := &Loader{logger: logger.With(zap.String("component", "creative-loader"))}
	if runtime != nil {
		l.moduleLoader = wasm.NewModuleLoader(runtime, logger)
	}
	return l
}

// LoadCreative loads a single bundle from a directory.
func (l *Loader) LoadCreative(ctx context.Context, dir string) (*Creative, error) {
	l.logger.Debug("Loading creative", zap.String("dir", dir))

	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading creative",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.String("placement_type", string(manifest.PlacementType)),
	)

	c := &Creative{Manifest: manifest, LoadedAt: time.Now()}

	if manifest.IsWasm() {
		if l.moduleLoader == nil {
			return nil, &CreativeLoadError{CreativeName: manifest.Name, Err: errors.New("no Wasm runtime configured")}
		}
		compiled, err := l.moduleLoader.LoadFile(ctx, manifest.WasmPath())
		if err != nil {
			return nil, &CreativeLoadError{CreativeName: manifest.Name, Err: err}
		}
		c.Compiled = compiled

		l.logger.Info("Wasm creative loaded",
			zap.String("name", manifest.Name),
			zap.Int("size", compiled.Size),
		)
		return c, nil
	}

	f, err := os.Open(manifest.EntryPath())
	if err != nil {
		return nil, &CreativeLoadError{CreativeName: manifest.Name, Err: err}
	}
	defer f.Close()

	doc, err := ParseDocument(f, manifest.Entry, filepath.Dir(manifest.EntryPath()))
	if err != nil {
		return nil, &CreativeLoadError{CreativeName: manifest.Name, Err: err}
	}
	c.Document = doc

	if len(doc.Skipped) > 0 {
		l.logger.Info("Skipped scripts the harness does not load",
			zap.String("name", manifest.Name),
			zap.Strings("scripts", doc.Skipped),
		)
	}
	l.logger.Info("HTML creative loaded",
		zap.String("name", manifest.Name),
		zap.String("title", doc.Title),
		zap.Int("scripts", len(doc.Scripts)),
	)

	return c, nil
}

// DiscoverCreatives loads every bundle directly under the given paths. A
// path that is itself a bundle is loaded as one.
func (l *Loader) DiscoverCreatives(ctx context.Context, paths []string) ([]*Creative, error) {
	var creatives []*Creative
	var errs []error

	for _, basePath := range paths {
		l.logger.Debug("Scanning creative directory", zap.String("path", basePath))

		if _, err := os.Stat(filepath.Join(basePath, ManifestFile)); err == nil {
			c, err := l.LoadCreative(ctx, basePath)
			if err != nil {
				l.logger.Error("Failed to load creative", zap.String("dir", basePath), zap.Error(err))
				errs = append(errs, err)
				continue
			}
			creatives = append(creatives, c)
			continue
		}

		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Creative path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			dir := filepath.Join(basePath, entry.Name())
			c, err := l.LoadCreative(ctx, dir)
			if err != nil {
				l.logger.Error("Failed to load creative", zap.String("dir", dir), zap.Error(err))
				errs = append(errs, err)
				continue
			}
			creatives = append(creatives, c)
		}
	}

	if len(creatives) > 0 && len(errs) > 0 {
		l.logger.Warn("Some creatives failed to load",
			zap.Int("loaded", len(creatives)),
			zap.Int("failed", len(errs)),
		)
	}

	if len(creatives) == 0 {
		return nil, &NoCreativesFoundError{Paths: paths}
	}

	return creatives, nil
}
