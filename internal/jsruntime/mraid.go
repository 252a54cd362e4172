package jsruntime

import (
	"github.com/dop251/goja"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
)

// installMRAID installs window.mraid over the page's engine.
func (p *Page) installMRAID() error {
	e := p.mraid
	undefined := goja.Undefined()
	value := p.toValue

	obj := p.vm.NewObject()
	err := p.setFuncs(obj, map[string]native{
		"addEventListener": func(call goja.FunctionCall) goja.Value {
			e.AddEventListener(call.Argument(0).String(), listenerFor[mraid.Event](p, call.Argument(1)))
			return undefined
		},
		"removeEventListener": func(call goja.FunctionCall) goja.Value {
			if l, ok := removalFor[mraid.Event](p, call.Argument(1)); ok {
				e.RemoveEventListener(call.Argument(0).String(), l)
			}
			return undefined
		},

		"close": func(goja.FunctionCall) goja.Value {
			e.Close()
			return undefined
		},
		"expand": func(call goja.FunctionCall) goja.Value {
			e.Expand(export(call.Argument(0)))
			return undefined
		},
		"resize": func(goja.FunctionCall) goja.Value {
			e.Resize()
			return undefined
		},
		"open": func(call goja.FunctionCall) goja.Value {
			e.Open(export(call.Argument(0)))
			return undefined
		},
		"playVideo": func(call goja.FunctionCall) goja.Value {
			e.PlayVideo(export(call.Argument(0)))
			return undefined
		},
		"storePicture": func(call goja.FunctionCall) goja.Value {
			e.StorePicture(export(call.Argument(0)))
			return undefined
		},
		"createCalendarEvent": func(call goja.FunctionCall) goja.Value {
			e.CreateCalendarEvent(export(call.Argument(0)))
			return undefined
		},
		"useCustomClose": func(call goja.FunctionCall) goja.Value {
			e.UseCustomClose(export(call.Argument(0)))
			return undefined
		},
		"supports": func(call goja.FunctionCall) goja.Value {
			return value(e.Supports(call.Argument(0).String()))
		},
		"setExpandProperties": func(call goja.FunctionCall) goja.Value {
			e.SetExpandProperties(propsArg(call.Argument(0)))
			return undefined
		},
		"setOrientationProperties": func(call goja.FunctionCall) goja.Value {
			e.SetOrientationProperties(propsArg(call.Argument(0)))
			return undefined
		},
		"setResizeProperties": func(call goja.FunctionCall) goja.Value {
			e.SetResizeProperties(propsArg(call.Argument(0)))
			return undefined
		},

		"getVersion": func(goja.FunctionCall) goja.Value {
			return value(e.Version())
		},
		"getState": func(goja.FunctionCall) goja.Value {
			return value(string(e.State()))
		},
		"getPlacementType": func(goja.FunctionCall) goja.Value {
			return value(string(e.PlacementType()))
		},
		"isViewable": func(goja.FunctionCall) goja.Value {
			return value(e.IsViewable())
		},
		"getCurrentPosition": func(goja.FunctionCall) goja.Value {
			return value(rectObject(e.CurrentPosition()))
		},
		"getDefaultPosition": func(goja.FunctionCall) goja.Value {
			return value(rectObject(e.DefaultPosition()))
		},
		"getMaxSize": func(goja.FunctionCall) goja.Value {
			return value(sizeObject(e.MaxSize()))
		},
		"getScreenSize": func(goja.FunctionCall) goja.Value {
			return value(sizeObject(e.ScreenSize()))
		},
		"getExpandProperties": func(goja.FunctionCall) goja.Value {
			props := e.ExpandProperties()
			return value(map[string]any{
				"width":          props.Width,
				"height":         props.Height,
				"useCustomClose": props.UseCustomClose,
				"isModal":        props.IsModal,
			})
		},
		"getResizeProperties": func(goja.FunctionCall) goja.Value {
			props, ok := e.ResizeProperties()
			if !ok {
				return p.vm.NewObject()
			}
			fields := map[string]any{
				"width":   props.Width,
				"height":  props.Height,
				"offsetX": props.OffsetX,
				"offsetY": props.OffsetY,
			}
			if props.CustomClosePosition != "" {
				fields["customClosePosition"] = string(props.CustomClosePosition)
			}
			if props.AllowOffscreen != nil {
				fields["allowOffscreen"] = *props.AllowOffscreen
			}
			return value(fields)
		},
		"getOrientationProperties": func(goja.FunctionCall) goja.Value {
			props := e.OrientationProperties()
			return value(map[string]any{
				"allowOrientationChange": props.AllowOrientationChange,
				"forceOrientation":       string(props.ForceOrientation),
			})
		},
	})
	if err != nil {
		return err
	}
	return p.vm.GlobalObject().Set("mraid", obj)
}
