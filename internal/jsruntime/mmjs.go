package jsruntime

import (
	"errors"

	"github.com/dop251/goja"
	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/internal/inlinevideo"
	"github.com/woxQAQ/creative-bridge/internal/mmjs"
	"github.com/woxQAQ/creative-bridge/internal/vast"
	"go.uber.org/zap"
)

// installMMJS installs window.MMJS.
func (p *Page) installMMJS() error {
	root := p.vm.NewObject()

	groups := map[string]map[string]native{
		"device":       p.deviceFuncs(),
		"media":        p.mediaFuncs(),
		"calendar":     p.calendarFuncs(),
		"notification": p.notificationFuncs(),
	}
	for name, funcs := range groups {
		obj := p.vm.NewObject()
		if err := p.setFuncs(obj, funcs); err != nil {
			return err
		}
		if err := root.Set(name, obj); err != nil {
			return err
		}
	}

	vastObj, err := p.vastObject()
	if err != nil {
		return err
	}
	if err := root.Set("vast", vastObj); err != nil {
		return err
	}
	if err := root.Set("InlineVideo", p.newInlineVideo); err != nil {
		return err
	}
	return p.vm.GlobalObject().Set("MMJS", root)
}

func (p *Page) deviceFuncs() map[string]native {
	d := p.mmjs.Device
	undefined := goja.Undefined()
	arg := func(call goja.FunctionCall, i int) any { return export(call.Argument(i)) }

	return map[string]native{
		"openInBrowser": func(call goja.FunctionCall) goja.Value {
			d.OpenInBrowser(arg(call, 0), p.callbackFor(call.Argument(1)))
			return undefined
		},
		"isSchemeAvailable": func(call goja.FunctionCall) goja.Value {
			d.IsSchemeAvailable(arg(call, 0), p.callbackFor(call.Argument(1)))
			return undefined
		},
		"isPackageAvailable": func(call goja.FunctionCall) goja.Value {
			d.IsPackageAvailable(arg(call, 0), p.callbackFor(call.Argument(1)))
			return undefined
		},
		"call": func(call goja.FunctionCall) goja.Value {
			d.Call(arg(call, 0), p.callbackFor(call.Argument(1)))
			return undefined
		},
		"composeSms": func(call goja.FunctionCall) goja.Value {
			d.ComposeSMS(arg(call, 0), arg(call, 1), p.callbackFor(call.Argument(2)))
			return undefined
		},
		"composeEmail": func(call goja.FunctionCall) goja.Value {
			opts := objectArg(call.Argument(0))
			d.ComposeEmail(mmjs.EmailOptions{
				Recipients: opts["recipients"],
				Subject:    opts["subject"],
				Message:    opts["message"],
				Type:       opts["type"],
			}, p.callbackFor(call.Argument(1)))
			return undefined
		},
		// openMap(address, [callback]) or openMap(latitude, longitude, [callback]).
		"openMap": func(call goja.FunctionCall) goja.Value {
			if address, ok := arg(call, 0).(string); ok {
				d.OpenMapAddress(address, p.callbackFor(call.Argument(1)))
				return undefined
			}
			lat, okLat := numberArg(call, 0)
			lng, okLng := numberArg(call, 1)
			if okLat && okLng {
				d.OpenMapCoordinates(lat, lng, p.callbackFor(call.Argument(2)))
				return undefined
			}
			p.logger.Debug("openMap called without an address or coordinates")
			return undefined
		},
		// openAppStore(appId, [callback]) or
		// openAppStore(appId, affiliateId, campaignId, [callback]).
		"openAppStore": func(call goja.FunctionCall) goja.Value {
			appID, affiliateID, campaignID, cb := p.optionalPair(call)
			d.OpenAppStore(appID, affiliateID, campaignID, cb)
			return undefined
		},
		"getLocation": func(call goja.FunctionCall) goja.Value {
			d.GetLocation(p.callbackFor(call.Argument(0)))
			return undefined
		},
	}
}

func (p *Page) mediaFuncs() map[string]native {
	m := p.mmjs.Media
	undefined := goja.Undefined()

	return map[string]native{
		"isSourceTypeAvailable": func(call goja.FunctionCall) goja.Value {
			m.IsSourceTypeAvailable(export(call.Argument(0)), p.callbackFor(call.Argument(1)))
			return undefined
		},
		"getAvailableSourceTypes": func(call goja.FunctionCall) goja.Value {
			m.GetAvailableSourceTypes(p.callbackFor(call.Argument(0)))
			return undefined
		},
		"getPictureFromPhotoLibrary": func(call goja.FunctionCall) goja.Value {
			m.GetPictureFromPhotoLibrary(export(call.Argument(0)), p.callbackFor(call.Argument(1)))
			return undefined
		},
		"openCamera": func(call goja.FunctionCall) goja.Value {
			m.OpenCamera(export(call.Argument(0)), export(call.Argument(1)), p.callbackFor(call.Argument(2)))
			return undefined
		},
		// savePictureToPhotoLibrary(url, [callback]) or
		// savePictureToPhotoLibrary(url, name, description, [callback]).
		"savePictureToPhotoLibrary": func(call goja.FunctionCall) goja.Value {
			url, name, description, cb := p.optionalPair(call)
			m.SavePictureToPhotoLibrary(url, name, description, cb)
			return undefined
		},
	}
}

func (p *Page) calendarFuncs() map[string]native {
	c := p.mmjs.Calendar
	return map[string]native{
		"addEvent": func(call goja.FunctionCall) goja.Value {
			c.AddEvent(export(call.Argument(0)), p.callbackFor(call.Argument(1)))
			return goja.Undefined()
		},
		"addReminder": func(call goja.FunctionCall) goja.Value {
			c.AddReminder(export(call.Argument(0)), p.callbackFor(call.Argument(1)))
			return goja.Undefined()
		},
	}
}

func (p *Page) notificationFuncs() map[string]native {
	n := p.mmjs.Notification
	return map[string]native{
		"vibrate": func(call goja.FunctionCall) goja.Value {
			n.Vibrate(export(call.Argument(0)), p.callbackFor(call.Argument(1)), p.callbackFor(call.Argument(2)))
			return goja.Undefined()
		},
	}
}

// optionalPair reads (first, [callback]) or (first, second, third, [callback]).
func (p *Page) optionalPair(call goja.FunctionCall) (first, second, third any, cb bridge.Callback) {
	first = export(call.Argument(0))
	if cb = p.callbackFor(call.Argument(1)); cb != nil {
		return first, nil, nil, cb
	}
	return first, export(call.Argument(1)), export(call.Argument(2)), p.callbackFor(call.Argument(3))
}

func numberArg(call goja.FunctionCall, i int) (float64, bool) {
	switch v := export(call.Argument(i)).(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func (p *Page) vastObject() (*goja.Object, error) {
	o := p.vast
	undefined := goja.Undefined()

	obj := p.vm.NewObject()
	err := p.setFuncs(obj, map[string]native{
		"addEventListener": func(call goja.FunctionCall) goja.Value {
			o.AddEventListener(call.Argument(0).String(), listenerFor[vast.Event](p, call.Argument(1)))
			return undefined
		},
		"removeEventListener": func(call goja.FunctionCall) goja.Value {
			if l, ok := removalFor[vast.Event](p, call.Argument(1)); ok {
				o.RemoveEventListener(call.Argument(0).String(), l)
			}
			return undefined
		},
		"play":              func(goja.FunctionCall) goja.Value { o.Play(); return undefined },
		"pause":             func(goja.FunctionCall) goja.Value { o.Pause(); return undefined },
		"close":             func(goja.FunctionCall) goja.Value { o.Close(); return undefined },
		"skip":              func(goja.FunctionCall) goja.Value { o.Skip(); return undefined },
		"restart":           func(goja.FunctionCall) goja.Value { o.Restart(); return undefined },
		"triggerTimeUpdate": func(goja.FunctionCall) goja.Value { o.TriggerTimeUpdate(); return undefined },
		"seek": func(call goja.FunctionCall) goja.Value {
			o.Seek(export(call.Argument(0)))
			return undefined
		},
		"setTimeInterval": func(call goja.FunctionCall) goja.Value {
			o.SetTimeInterval(export(call.Argument(0)))
			return undefined
		},
	})
	if err != nil {
		return nil, err
	}

	getters := map[string]func() any{
		"state":       func() any { return o.State() },
		"currentTime": func() any { return o.CurrentTime() },
		"duration": func() any {
			if d, ok := o.Duration(); ok {
				return d
			}
			return nil
		},
	}
	for name, get := range getters {
		if err := p.defineGetter(obj, name, get); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// newInlineVideo is the MMJS.InlineVideo constructor:
// new MMJS.InlineVideo(options, [onReady]).
func (p *Page) newInlineVideo(call goja.ConstructorCall) *goja.Object {
	this := call.This
	opts := objectArg(call.Argument(0))

	var onReady func(*inlinevideo.Video)
	if fn, ok := functionObject(call.Argument(1)); ok {
		onReady = func(*inlinevideo.Video) {
			p.callFunction(fn, p.vm.GlobalObject(), []any{this})
		}
	}

	video, err := inlinevideo.New(p.bridge, inlinevideo.Options(opts), onReady, p.rootLogger)
	if err != nil {
		var missing *inlinevideo.MissingOptionError
		if errors.As(err, &missing) {
			p.logger.Error("Not all required values provided to InlineVideo constructor",
				zap.String("option", missing.Option))
			return this
		}
		p.logger.Error("Failed to create inline video", zap.Error(err))
		return this
	}

	if err := p.bindInlineVideo(this, video); err != nil {
		p.logger.Error("Failed to bind inline video", zap.Error(err))
	}
	return this
}

func (p *Page) bindInlineVideo(obj *goja.Object, v *inlinevideo.Video) error {
	undefined := goja.Undefined()
	err := p.setFuncs(obj, map[string]native{
		"play":               func(goja.FunctionCall) goja.Value { v.Play(); return undefined },
		"pause":              func(goja.FunctionCall) goja.Value { v.Pause(); return undefined },
		"stop":               func(goja.FunctionCall) goja.Value { v.Stop(); return undefined },
		"triggerTimeUpdate":  func(goja.FunctionCall) goja.Value { v.TriggerTimeUpdate(); return undefined },
		"expandToFullScreen": func(goja.FunctionCall) goja.Value { v.ExpandToFullScreen(); return undefined },
		"mute":               func(goja.FunctionCall) goja.Value { v.Mute(); return undefined },
		"unmute":             func(goja.FunctionCall) goja.Value { v.Unmute(); return undefined },
		"remove":             func(goja.FunctionCall) goja.Value { v.Remove(); return undefined },
		"seek": func(call goja.FunctionCall) goja.Value {
			v.Seek(export(call.Argument(0)))
			return undefined
		},
		"reposition": func(call goja.FunctionCall) goja.Value {
			v.Reposition(export(call.Argument(0)), export(call.Argument(1)), export(call.Argument(2)), export(call.Argument(3)))
			return undefined
		},
		"updateVideoURL": func(call goja.FunctionCall) goja.Value {
			v.UpdateVideoURL(export(call.Argument(0)))
			return undefined
		},
		"addEventListener": func(call goja.FunctionCall) goja.Value {
			v.AddEventListener(call.Argument(0).String(), listenerFor[inlinevideo.Event](p, call.Argument(1)))
			return undefined
		},
		"removeEventListener": func(call goja.FunctionCall) goja.Value {
			if l, ok := removalFor[inlinevideo.Event](p, call.Argument(1)); ok {
				v.RemoveEventListener(call.Argument(0).String(), l)
			}
			return undefined
		},
		"canPlay": func(goja.FunctionCall) goja.Value { return p.vm.ToValue(v.CanPlay()) },
		"invalid": func(goja.FunctionCall) goja.Value { return p.vm.ToValue(v.Invalid()) },
	})
	if err != nil {
		return err
	}

	getters := map[string]func() any{
		"duration": v.Duration,
		"url":      v.URL,
		"state":    func() any { return string(v.State()) },
		"muted":    func() any { return v.Muted() },
		"expanded": func() any { return v.Expanded() },
		"position": func() any {
			pos := v.Position()
			return map[string]any{"width": pos.Width, "height": pos.Height, "x": pos.X, "y": pos.Y}
		},
	}
	for name, get := range getters {
		if err := p.defineGetter(obj, name, get); err != nil {
			return err
		}
	}
	return nil
}
