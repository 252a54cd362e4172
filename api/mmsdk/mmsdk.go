// Package mmsdk is the contract between Wasm creatives and the harness host
// module. Guests built for wasip1 get the bindings in guest.go; the host
// implements the same imports in internal/wasm.
//
// Strings and buffers cross the boundary as (ptr, len) pairs into guest
// linear memory, so every pointer and length is a uint32.
package mmsdk

import (
	"encoding/json"
	"fmt"

	"github.com/woxQAQ/creative-bridge/pkg/protocol"
)

// Module is the import module name of the host functions.
const Module = "mmsdk"

// Host imports:
//
//	call_native(module_ptr, module_len, action_ptr, action_len, payload_ptr, payload_len) -> status
//	poll_actions(buf_ptr, buf_cap) -> size
//	log_message(level, ptr, length)
//
// call_native takes an injected-handler payload (a JSON object of
// parameters). An empty module addresses the generic namespace.
const (
	FuncCallNative  = "call_native"
	FuncPollActions = "poll_actions"
	FuncLogMessage  = "log_message"
)

// call_native status codes.
const (
	StatusOK uint32 = iota
	StatusNamespaceMissing
	StatusActionMissing
	StatusMemoryFault
)

// Log levels accepted by log_message.
const (
	LogDebug uint32 = iota
	LogInfo
	LogWarn
	LogError
)

// StatusError is a non-zero call_native status.
type StatusError struct {
	Module string
	Action string
	Status uint32
}

func (e *StatusError) Error() string {
	var reason string
	switch e.Status {
	case StatusNamespaceMissing:
		reason = "no injected namespace"
	case StatusActionMissing:
		reason = "action not handled"
	case StatusMemoryFault:
		reason = "memory fault"
	default:
		reason = fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("native call %s.%s failed: %s", e.Module, e.Action, reason)
}

// Action is one native-to-creative push delivered by poll_actions.
type Action struct {
	// FunctionName is the dotted script function, e.g. "MmJsBridge.mraid.setState".
	FunctionName string            `json:"functionName"`
	Args         []json.RawMessage `json:"args"`
}

// DecodeActions parses a poll_actions batch.
func DecodeActions(batch []byte) ([]Action, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	var actions []Action
	if err := json.Unmarshal(batch, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode actions batch: %w", err)
	}
	return actions, nil
}

// EncodePayload builds a call_native payload from named parameters.
// Nil values are omitted.
func EncodePayload(params map[string]any) ([]byte, error) {
	return protocol.EncodeInjectedPayload(protocol.ParamsFromMap(params))
}
