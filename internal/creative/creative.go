package creative

import (
	"time"

	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/wasm"
)

// Creative is a loaded bundle: its manifest plus either the scripts of its
// HTML entry or its compiled Wasm module.
type Creative struct {
	Manifest *Manifest

	// Document is set for HTML creatives.
	Document *Document

	// Compiled is set for Wasm creatives.
	Compiled *wasm.CompiledModule

	LoadedAt time.Time
}

// Name returns the creative name.
func (c *Creative) Name() string {
	return c.Manifest.Name
}

// Version returns the creative version.
func (c *Creative) Version() string {
	return c.Manifest.Version
}

// PlacementType returns where the creative is meant to be placed.
func (c *Creative) PlacementType() mraid.PlacementType {
	return c.Manifest.PlacementType
}

// Scripts returns the scripts of an HTML creative in execution order.
func (c *Creative) Scripts() []Script {
	if c.Document == nil {
		return nil
	}
	return c.Document.Scripts
}

// Frame returns the default ad frame for a screen: the declared size,
// centered, or the full screen when no size is declared.
func (c *Creative) Frame(screen mraid.Size) mraid.Rect {
	size := c.Manifest.Size
	if size.Width == 0 || size.Height == 0 {
		return mraid.Rect{Width: screen.Width, Height: screen.Height}
	}
	w, h := min(size.Width, screen.Width), min(size.Height, screen.Height)
	return mraid.Rect{
		X:      (screen.Width - w) / 2,
		Y:      (screen.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}
