//go:build wasip1

package mmsdk

import (
	"unsafe"
)

//go:wasmimport mmsdk call_native
func callNative(modulePtr, moduleLen, actionPtr, actionLen, payloadPtr, payloadLen uint32) uint32

//go:wasmimport mmsdk poll_actions
func pollActions(bufPtr, bufCap uint32) uint32

//go:wasmimport mmsdk log_message
func logMessage(level, ptr, length uint32)

func stringPtr(s string) (uint32, uint32) {
	if s == "" {
		return 0, 0
	}
	return uint32(uintptr(unsafe.Pointer(unsafe.StringData(s)))), uint32(len(s))
}

func bytesPtr(b []byte) (uint32, uint32) {
	if len(b) == 0 {
		return 0, 0
	}
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b)))), uint32(len(b))
}

// CallNative invokes action on the native layer. An empty module addresses
// the generic namespace.
func CallNative(module, action string, params map[string]any) error {
	payload, err := EncodePayload(params)
	if err != nil {
		return err
	}
	mPtr, mLen := stringPtr(module)
	aPtr, aLen := stringPtr(action)
	pPtr, pLen := bytesPtr(payload)
	if status := callNative(mPtr, mLen, aPtr, aLen, pPtr, pLen); status != StatusOK {
		return &StatusError{Module: module, Action: action, Status: status}
	}
	return nil
}

// FileLoaded announces a bridge script, which is what seeds MRAID state.
func FileLoaded(filename string) error {
	return CallNative("", "fileLoaded", map[string]any{"filename": filename})
}

// PollActions drains the pushes queued since the last poll. It grows its
// buffer when the host reports a larger batch.
func PollActions() ([]Action, error) {
	buf := make([]byte, 4096)
	for {
		ptr, _ := bytesPtr(buf)
		size := pollActions(ptr, uint32(len(buf)))
		if size == 0 {
			return nil, nil
		}
		if int(size) <= len(buf) {
			return DecodeActions(buf[:size])
		}
		buf = make([]byte, size)
	}
}

// Log writes a message to the harness log.
func Log(level uint32, msg string) {
	ptr, length := stringPtr(msg)
	logMessage(level, ptr, length)
}
