package jsruntime

import (
	"github.com/dop251/goja"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/vast"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// installBridge installs MmJsBridge: the entry points the native layer
// calls to answer callbacks and push state.
func (p *Page) installBridge() error {
	root := p.vm.NewObject()

	logging := p.vm.NewObject()
	logFuncs := p.vm.NewObject()
	if err := p.setFuncs(logFuncs, map[string]native{
		"error": p.logFunc(zapcore.ErrorLevel),
		"warn":  p.logFunc(zapcore.WarnLevel),
		"info":  p.logFunc(zapcore.InfoLevel),
		"debug": p.logFunc(zapcore.DebugLevel),
	}); err != nil {
		return err
	}
	if err := p.setFuncs(logging, map[string]native{
		"setLogLevel": func(call goja.FunctionCall) goja.Value {
			p.setScriptLogLevel(call.Argument(0).String())
			return goja.Undefined()
		},
	}); err != nil {
		return err
	}
	if err := logging.Set("log", logFuncs); err != nil {
		return err
	}

	callbacks := p.vm.NewObject()
	if err := p.setFuncs(callbacks, map[string]native{
		"callCallback":       p.callCallback,
		"generateCallbackId": p.generateCallbackID,
	}); err != nil {
		return err
	}

	mraidNatives := p.vm.NewObject()
	if err := p.setFuncs(mraidNatives, p.mraidNatives()); err != nil {
		return err
	}

	vastNatives := p.vm.NewObject()
	if err := p.setFuncs(vastNatives, p.vastNatives()); err != nil {
		return err
	}

	for name, obj := range map[string]*goja.Object{
		"logging":         logging,
		"callbackManager": callbacks,
		"mraid":           mraidNatives,
		"vast":            vastNatives,
	} {
		if err := root.Set(name, obj); err != nil {
			return err
		}
	}
	return p.vm.GlobalObject().Set("MmJsBridge", root)
}

func (p *Page) callCallback(call goja.FunctionCall) goja.Value {
	handle := call.Argument(0).String()
	args := make([]any, 0, len(call.Arguments))
	for _, a := range call.Arguments[min(1, len(call.Arguments)):] {
		args = append(args, export(a))
	}
	p.bridge.Callbacks().Invoke(handle, args...)
	return goja.Undefined()
}

func (p *Page) generateCallbackID(call goja.FunctionCall) goja.Value {
	cb := p.callbackFor(call.Argument(0))
	if cb == nil {
		p.logger.Warn("generateCallbackId called without a function")
		return goja.Null()
	}
	return p.vm.ToValue(p.bridge.Callbacks().Register(cb))
}

func (p *Page) mraidNatives() map[string]native {
	e := p.mraid
	undefined := goja.Undefined()

	return map[string]native{
		"fireMRAIDEvent": func(call goja.FunctionCall) goja.Value {
			args := make([]any, 0, len(call.Arguments))
			for _, a := range call.Arguments[min(1, len(call.Arguments)):] {
				args = append(args, export(a))
			}
			ev, err := mraid.EventFromArgs(call.Argument(0).String(), args)
			if err != nil {
				p.logger.Warn("Ignoring MRAID event", zap.Error(err))
				return undefined
			}
			e.Fire(ev)
			return undefined
		},
		"throwMraidError": func(call goja.FunctionCall) goja.Value {
			e.ThrowError(call.Argument(0).String(), call.Argument(1).String())
			return undefined
		},
		"setPlacementType": func(call goja.FunctionCall) goja.Value {
			e.SetPlacementType(mraid.PlacementType(call.Argument(0).String()))
			return undefined
		},
		"setPositions": func(call goja.FunctionCall) goja.Value {
			positions := objectArg(call.Argument(0))
			e.SetPositions(mraid.Positions{
				CurrentPosition: rectFrom(positions["currentPosition"]),
				MaxSize:         sizeFrom(positions["maxSize"]),
				ScreenSize:      sizeFrom(positions["screenSize"]),
			})
			return undefined
		},
		"setState": func(call goja.FunctionCall) goja.Value {
			e.SetState(mraid.State(call.Argument(0).String()), rectFrom(export(call.Argument(1))))
			return undefined
		},
		"setSupports": func(call goja.FunctionCall) goja.Value {
			supports := make(map[string]bool)
			for feature, v := range objectArg(call.Argument(0)) {
				b, _ := v.(bool)
				supports[feature] = b
			}
			e.SetSupports(supports)
			return undefined
		},
		"setViewable": func(call goja.FunctionCall) goja.Value {
			e.SetViewable(call.Argument(0).ToBoolean())
			return undefined
		},
	}
}

func (p *Page) vastNatives() map[string]native {
	o := p.vast
	undefined := goja.Undefined()

	return map[string]native{
		"enableWebOverlay": func(call goja.FunctionCall) goja.Value {
			var snapshot *vast.Snapshot
			if current := objectArg(call.Argument(0)); current != nil {
				snapshot = &vast.Snapshot{
					CurrentTime: numberPtr(current["currentTime"]),
					Duration:    numberPtr(current["duration"]),
				}
				snapshot.State, _ = current["state"].(string)
			}
			o.EnableWebOverlay(snapshot)
			return undefined
		},
		"setState": func(call goja.FunctionCall) goja.Value {
			o.SetState(call.Argument(0).String())
			return undefined
		},
		"setCurrentTime": func(call goja.FunctionCall) goja.Value {
			o.SetCurrentTime(call.Argument(0).ToFloat())
			return undefined
		},
		"setDuration": func(call goja.FunctionCall) goja.Value {
			o.SetDuration(call.Argument(0).ToFloat())
			return undefined
		},
		"fireErrorEvent": func(call goja.FunctionCall) goja.Value {
			o.FireError(call.Argument(0).String())
			return undefined
		},
	}
}
