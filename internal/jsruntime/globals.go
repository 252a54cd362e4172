package jsruntime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var scriptLogLevels = map[string]zapcore.Level{
	"ERROR": zapcore.ErrorLevel,
	"WARN":  zapcore.WarnLevel,
	"INFO":  zapcore.InfoLevel,
	"DEBUG": zapcore.DebugLevel,
}

// installGlobals sets up window, console and the disabled popup functions.
func (p *Page) installGlobals() error {
	global := p.vm.GlobalObject()
	if err := global.Set("window", global); err != nil {
		return err
	}
	if err := global.Set("self", global); err != nil {
		return err
	}

	console := p.vm.NewObject()
	if err := p.setFuncs(console, map[string]native{
		"log":   p.consoleFunc(zapcore.InfoLevel),
		"info":  p.consoleFunc(zapcore.InfoLevel),
		"debug": p.consoleFunc(zapcore.DebugLevel),
		"warn":  p.consoleFunc(zapcore.WarnLevel),
		"error": p.consoleFunc(zapcore.ErrorLevel),
	}); err != nil {
		return err
	}
	if err := global.Set("console", console); err != nil {
		return err
	}

	// The real alert stays reachable for the bridge's own diagnostics.
	hidden := func(call goja.FunctionCall) goja.Value {
		p.scriptLogger.Info("[JS Alert]", zap.String("message", call.Argument(0).String()))
		return goja.Undefined()
	}
	if err := global.Set("mmHiddenAlert", hidden); err != nil {
		return err
	}
	for _, name := range []string{"alert", "confirm", "prompt"} {
		fn := p.vm.ToValue(p.popupFunc(name))
		if err := global.DefineDataProperty(name, fn, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) popupFunc(name string) native {
	return func(goja.FunctionCall) goja.Value {
		p.scriptLogger.Error("Calling the function is not allowed", zap.String("function", name))
		return goja.Undefined()
	}
}

func (p *Page) consoleFunc(level zapcore.Level) native {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		if ce := p.scriptLogger.Check(level, strings.Join(parts, " ")); ce != nil {
			ce.Write(zap.String("source", "console"))
		}
		return goja.Undefined()
	}
}

// logFunc implements the bridge's printf-style log: each extra argument
// replaces the next %s, objects as JSON.
func (p *Page) logFunc(level zapcore.Level) native {
	return func(call goja.FunctionCall) goja.Value {
		if ce := p.scriptLogger.Check(level, formatScriptLog(call.Arguments)); ce != nil {
			ce.Write()
		}
		return goja.Undefined()
	}
}

func formatScriptLog(args []goja.Value) string {
	if len(args) == 0 {
		return ""
	}
	message := args[0].String()
	for _, arg := range args[1:] {
		message = strings.Replace(message, "%s", replacement(arg), 1)
	}
	return message
}

func replacement(v goja.Value) string {
	x := export(v)
	switch t := x.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
	return v.String()
}

func (p *Page) setScriptLogLevel(name string) {
	level, ok := scriptLogLevels[name]
	if !ok {
		return
	}
	p.scriptLevel.SetLevel(level)
	p.logger.Debug("Script log level changed", zap.String("level", name))
}
