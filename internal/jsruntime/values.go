package jsruntime

import (
	"github.com/dop251/goja"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
)

type native = func(goja.FunctionCall) goja.Value

// export converts a script value to Go, mapping undefined and null to nil.
func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func defined(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v)
}

// functionObject returns v as a function object, if it is one.
func functionObject(v goja.Value) (*goja.Object, bool) {
	if _, ok := goja.AssertFunction(v); !ok {
		return nil, false
	}
	obj, ok := v.(*goja.Object)
	return obj, ok
}

func objectArg(v goja.Value) map[string]any {
	m, _ := export(v).(map[string]any)
	return m
}

// propsArg reads a properties object for the MRAID setters. Undefined fields
// are left out; null fields are kept as nil so they still count as given.
func propsArg(v goja.Value) mraid.Props {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	props := make(mraid.Props)
	for _, key := range obj.Keys() {
		if field := obj.Get(key); defined(field) {
			props[key] = export(field)
		}
	}
	return props
}

func (p *Page) toValue(v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return t
	case map[string]any:
		return p.plainObject(t)
	}
	return p.vm.ToValue(v)
}

// plainObject builds an ordinary script object, distinct on every call.
func (p *Page) plainObject(fields map[string]any) *goja.Object {
	obj := p.vm.NewObject()
	for k, v := range fields {
		_ = obj.Set(k, p.toValue(v))
	}
	return obj
}

func (p *Page) setFuncs(obj *goja.Object, funcs map[string]native) error {
	for name, fn := range funcs {
		if err := obj.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) defineGetter(obj *goja.Object, name string, get func() any) error {
	getter := p.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return p.toValue(get())
	})
	return obj.DefineAccessorProperty(name, getter, goja.Undefined(), goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func rectObject(r mraid.Rect) map[string]any {
	return map[string]any{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height}
}

func sizeObject(s mraid.Size) map[string]any {
	return map[string]any{"width": s.Width, "height": s.Height}
}

// rectFrom reads a complete rectangle; anything partial yields nil.
func rectFrom(v any) *mraid.Rect {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	x, okX := protocol.AsNumber(m["x"])
	y, okY := protocol.AsNumber(m["y"])
	w, okW := protocol.AsNumber(m["width"])
	h, okH := protocol.AsNumber(m["height"])
	if !okX || !okY || !okW || !okH {
		return nil
	}
	return &mraid.Rect{X: x, Y: y, Width: w, Height: h}
}

func sizeFrom(v any) *mraid.Size {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	w, okW := protocol.AsNumber(m["width"])
	h, okH := protocol.AsNumber(m["height"])
	if !okW || !okH {
		return nil
	}
	return &mraid.Size{Width: w, Height: h}
}

func numberPtr(v any) *float64 {
	n, ok := protocol.AsNumber(v)
	if !ok {
		return nil
	}
	return &n
}
