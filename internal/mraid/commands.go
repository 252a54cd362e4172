package mraid

import (
	"fmt"
	"math"
	"strings"

	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Creative commands. Values come straight from creative script, so they are
// loosely typed and checked here. A nil value means the argument was not given.

func waitForReady(action string) string {
	return fmt.Sprintf("You must wait for mraid.ready before calling mraid.%s", action)
}

func (e *Engine) loading(action string) bool {
	if e.state == StateLoading {
		e.fail(waitForReady(action), action)
		return true
	}
	return false
}

// Close asks the native layer to close the ad.
func (e *Engine) Close() {
	inlineOK := e.placementType == PlacementInline && (e.state == StateExpanded || e.state == StateResized)
	interstitialOK := e.placementType == PlacementInterstitial && e.state == StateDefault
	if !inlineOK && !interstitialOK {
		e.fail("mraid.close can only be called on inline placements in a resized or expanded state, or by interstitials in a default state", "close")
		return
	}
	e.logger.Info("Creative closing")
	e.call("close")
}

// Expand asks the native layer to expand the ad, optionally loading url.
func (e *Engine) Expand(url any) {
	if e.placementType == PlacementInterstitial || (e.state != StateDefault && e.state != StateResized) {
		e.fail("mraid.expand can only be called on inline placements in a default or resized state", "expand")
		return
	}
	if url != nil {
		if _, ok := url.(string); !ok {
			e.fail("The url passed to mraid.expand must be a string", "expand")
			return
		}
	}

	e.logger.Info("Creative expanding", zap.Any("expand_properties", e.ExpandProperties()))
	e.call("expand",
		protocol.NewParam("width", optional(e.expand.width)),
		protocol.NewParam("height", optional(e.expand.height)),
		protocol.NewParam("useCustomClose", optional(e.expand.useCustomClose)),
		protocol.NewParam("url", url),
	)
}

// Resize asks the native layer to resize the ad with the stored resize properties.
func (e *Engine) Resize() {
	if e.loading("resize") {
		return
	}
	if e.resize == nil {
		e.fail("mraid.setResizeProperties must be called before calling mraid.resize", "resize")
		return
	}
	if e.state == StateExpanded || e.placementType == PlacementInterstitial {
		e.fail("mraid.resize() cannot be called in an expanded state", "resize")
		return
	}

	p := e.resize
	var closePosition any
	if p.CustomClosePosition != "" {
		closePosition = string(p.CustomClosePosition)
	}
	e.logger.Info("Creative resizing", zap.Any("resize_properties", p))
	e.call("resize",
		protocol.NewParam("width", p.Width),
		protocol.NewParam("height", p.Height),
		protocol.NewParam("customClosePosition", closePosition),
		protocol.NewParam("offsetX", p.OffsetX),
		protocol.NewParam("offsetY", p.OffsetY),
		protocol.NewParam("allowOffscreen", optional(p.AllowOffscreen)),
	)
}

// Open asks the native layer to open url in a browser.
func (e *Engine) Open(url any) {
	e.urlCommand("open", url)
}

// PlayVideo asks the native layer to play the video at url.
func (e *Engine) PlayVideo(url any) {
	e.urlCommand("playVideo", url)
}

// StorePicture asks the native layer to save the picture at url.
func (e *Engine) StorePicture(url any) {
	e.urlCommand("storePicture", url)
}

func (e *Engine) urlCommand(action string, url any) {
	if e.loading(action) {
		return
	}
	if _, ok := url.(string); !ok {
		e.fail(fmt.Sprintf("The url passed to mraid.%s must be a string", action), action)
		return
	}
	e.call(action, protocol.NewParam("url", url))
}

// CreateCalendarEvent passes a calendar event description to the native layer.
func (e *Engine) CreateCalendarEvent(params any) {
	if e.loading("createCalendarEvent") {
		return
	}
	e.call("createCalendarEvent", protocol.NewParam("parameters", params))
}

// UseCustomClose records whether the creative draws its own close control
// and tells the native layer.
func (e *Engine) UseCustomClose(v any) {
	if e.loading("useCustomClose") {
		return
	}
	b, ok := v.(bool)
	if !ok {
		e.fail("The parameter passed to mraid.useCustomClose must be a boolean", "useCustomClose")
		return
	}
	e.expand.useCustomClose = &b
	e.call("useCustomClose", protocol.NewParam("useCustomClose", b))
}

// Supports reports whether the native layer supports feature. It returns
// false and fires an error while loading.
func (e *Engine) Supports(feature string) bool {
	if e.loading("supports") {
		return false
	}
	return e.supports[feature]
}

// SetExpandProperties validates each field on its own. A width or height
// that is missing or invalid clears the stored value, and an invalid one also
// fires an error. useCustomClose is kept when missing. A field present with a
// nil value was given as null and is invalid.
func (e *Engine) SetExpandProperties(props Props) {
	e.expand.width = e.expandDimension(props, "width")
	e.expand.height = e.expandDimension(props, "height")
	if v, present := props["useCustomClose"]; present {
		if b, ok := v.(bool); ok {
			e.expand.useCustomClose = &b
		} else {
			e.fail("useCustomClose must be a boolean", "setExpandProperties")
		}
	}
	e.logger.Debug("Stored expand properties", zap.Any("expand_properties", e.ExpandProperties()))
}

func (e *Engine) expandDimension(props Props, name string) *float64 {
	v, present := props[name]
	if !present {
		return nil
	}
	n, ok := finite(v)
	if !ok || !(n >= minSize) {
		e.fail(name+" must be a number greater than or equal to 50", "setExpandProperties")
		return nil
	}
	return &n
}

// SetOrientationProperties replaces the orientation properties. Invalid
// fields fire an error and fall back to their defaults; the result is
// always sent to the native layer.
func (e *Engine) SetOrientationProperties(props Props) {
	if e.loading("setOrientationProperties") {
		return
	}

	next := OrientationProperties{
		AllowOrientationChange: true,
		ForceOrientation:       OrientationNone,
	}
	if v, present := props["allowOrientationChange"]; present && v != nil {
		if b, ok := v.(bool); ok {
			next.AllowOrientationChange = b
		} else {
			e.fail("allowOrientationChange must be a boolean", "setOrientationProperties")
		}
	}
	if v, present := props["forceOrientation"]; present && v != nil {
		if s, ok := v.(string); ok && validOrientation(s) {
			next.ForceOrientation = ForceOrientation(s)
		} else {
			e.fail("forceOrientation must be one of the following case sensitive values: "+quoteList(forceOrientations),
				"setOrientationProperties")
		}
	}

	e.orientation = next
	e.call("setOrientationProperties",
		protocol.NewParam("allowOrientationChange", next.AllowOrientationChange),
		protocol.NewParam("forceOrientation", string(next.ForceOrientation)),
	)
}

// SetResizeProperties validates and stores resize properties. The stored
// properties are cleared first, so after any failure resize is unavailable
// until a call succeeds.
func (e *Engine) SetResizeProperties(props Props) {
	const action = "setResizeProperties"
	e.resize = nil

	width, okW := finite(props["width"])
	height, okH := finite(props["height"])
	offsetX, okX := finite(props["offsetX"])
	offsetY, okY := finite(props["offsetY"])
	if !okW || !(width >= minSize) || !okH || !(height >= minSize) || !okX || !okY {
		e.fail("width, height, offsetX, and offsetY are required when calling mraid.setResizeProperties() and they must be numbers. Width and height must be greater than or equal to 50", action)
		return
	}

	next := ResizeProperties{Width: width, Height: height, OffsetX: offsetX, OffsetY: offsetY}

	if v := props["customClosePosition"]; v != nil {
		s, ok := v.(string)
		if !ok || !validClosePosition(s) {
			e.fail("customClosePosition must be one of the following case sensitive values: "+quoteList(closePositions), action)
			return
		}
		next.CustomClosePosition = ClosePosition(s)
	}
	if v := props["allowOffscreen"]; v != nil {
		b, ok := v.(bool)
		if !ok {
			e.fail("allowOffscreen must be a boolean", action)
			return
		}
		next.AllowOffscreen = &b
	}

	allowOffscreen := next.AllowOffscreen == nil || *next.AllowOffscreen
	if !allowOffscreen && (next.Width > e.maxSize.Width || next.Height > e.maxSize.Height) {
		e.fail("allowOffscreen was false but the width or height was bigger than the max width or height", action)
		return
	}

	button := closeButtonRect(e.defaultPosition, next)
	if !fitsMaxSize(button, e.maxSize) {
		e.fail("The close button will appear offscreen", action)
		return
	}

	e.resize = &next
	e.logger.Debug("Stored resize properties", zap.Any("resize_properties", next))
}

func validOrientation(s string) bool {
	for _, o := range forceOrientations {
		if string(o) == s {
			return true
		}
	}
	return false
}

func validClosePosition(s string) bool {
	for _, p := range closePositions {
		if string(p) == s {
			return true
		}
	}
	return false
}

func quoteList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + string(v) + `"`
	}
	return strings.Join(quoted, ", ")
}

func number(v any) (float64, bool) {
	return protocol.AsNumber(v)
}

// finite is number restricted to values that survive JSON encoding.
func finite(v any) (float64, bool) {
	n, ok := protocol.AsNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// optional turns an unset pointer into nil so the parameter is omitted.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
