package jsruntime

import (
	"encoding/json"
	"strings"

	"github.com/dop251/goja"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// queuedAction is one entry of the native actions queue.
type queuedAction struct {
	FunctionName string `json:"functionName"`
	Args         []any  `json:"args"`
}

// actionsQueue returns the generic namespace as an actions queue when the
// page has the queue enabled and the native layer asks for it.
func (p *Page) actionsQueue() ActionsQueue {
	if !p.opts.ActionsQueue {
		return nil
	}
	ns, ok := p.env.Namespace(protocol.InjectedPrefix)
	if !ok {
		return nil
	}
	queue, ok := ns.(ActionsQueue)
	if !ok || !queue.UseActionsQueue() {
		return nil
	}
	return queue
}

// pollActions drains one batch from the queue. A failing entry stops the
// rest of its batch.
func (p *Page) pollActions(queue ActionsQueue) {
	raw := queue.GetActionsQueue()
	if raw == "" {
		return
	}
	p.logger.Debug("Actions queue batch", zap.String("queue", raw))

	var actions []queuedAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		p.logger.Error("Malformed actions queue", zap.String("queue", raw), zap.Error(err))
		return
	}
	for i, action := range actions {
		if err := p.callPath(action.FunctionName, action.Args); err != nil {
			p.logger.Error("Queued action failed",
				zap.String("function", action.FunctionName),
				zap.Int("dropped", len(actions)-i-1),
				zap.Error(err))
			return
		}
	}
}

// callPath calls the function at a dotted path from the global object, with
// its parent object as this.
func (p *Page) callPath(path string, args []any) error {
	segments := strings.Split(path, ".")
	parent := p.vm.GlobalObject()
	for _, segment := range segments[:len(segments)-1] {
		next := parent.Get(segment)
		if next == nil || goja.IsUndefined(next) || goja.IsNull(next) {
			return &PathNotFoundError{Path: path, Segment: segment}
		}
		parent = next.ToObject(p.vm)
	}

	last := segments[len(segments)-1]
	target := parent.Get(last)
	if target == nil || goja.IsUndefined(target) {
		return &PathNotFoundError{Path: path, Segment: last}
	}
	fn, ok := goja.AssertFunction(target)
	if !ok {
		return &NotCallableError{Path: path}
	}

	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = p.toValue(a)
	}
	if _, err := fn(parent, values...); err != nil {
		return &ScriptError{Name: path, Err: err}
	}
	return nil
}
