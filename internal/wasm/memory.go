package wasm

import (
	"github.com/tetratelabs/wazero/api"
)

// Memory is a bounds-checked view of a guest's linear memory.
type Memory struct {
	mem api.Memory
}

// NewMemory creates a memory helper.
func NewMemory(module api.Module) *Memory {
	return &Memory{mem: module.Memory()}
}

// ReadBytes copies length bytes starting at ptr.
func (m *Memory) ReadBytes(ptr, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, &MemoryAccessError{Operation: "read", Address: ptr, Length: length}
	}
	buf, ok := m.mem.Read(ptr, length)
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: ptr, Length: length}
	}
	// Read returns a view; the guest may reuse the buffer after the call.
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// ReadString reads a string of length bytes starting at ptr.
func (m *Memory) ReadString(ptr, length uint32) (string, error) {
	buf, err := m.ReadBytes(ptr, length)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteBytes writes data into a guest-owned buffer at ptr.
func (m *Memory) WriteBytes(ptr uint32, data []byte) error {
	if m.mem == nil || !m.mem.Write(ptr, data) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: uint32(len(data))}
	}
	return nil
}
