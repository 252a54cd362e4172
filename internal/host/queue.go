package host

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type queuedAction struct {
	FunctionName string `json:"functionName"`
	Args         []any  `json:"args"`
}

// ActionsQueue batches native-to-page calls for the page to poll.
type ActionsQueue struct {
	mu      sync.Mutex
	pending []queuedAction
	logger  *zap.Logger
}

func NewActionsQueue(logger *zap.Logger) *ActionsQueue {
	return &ActionsQueue{logger: logger.With(zap.String("component", "actions-queue"))}
}

// Enqueue adds a call to a page function by dotted path.
func (q *ActionsQueue) Enqueue(functionName string, args ...any) {
	if args == nil {
		args = []any{}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, queuedAction{FunctionName: functionName, Args: args})
}

// UseActionsQueue tells the page to poll this queue.
func (q *ActionsQueue) UseActionsQueue() bool {
	return true
}

// GetActionsQueue hands out the pending batch as JSON and empties the queue.
// It returns "" when nothing is pending.
func (q *ActionsQueue) GetActionsQueue() string {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(pending) == 0 {
		return ""
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		q.logger.Error("Dropping unencodable actions batch", zap.Int("actions", len(pending)), zap.Error(err))
		return ""
	}
	return string(raw)
}

// Len returns the number of pending calls.
func (q *ActionsQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
