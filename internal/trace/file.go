package trace

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
)

// FileRecorder appends records to a file. It is safe for concurrent use.
type FileRecorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	closed  bool
}

// NewFileRecorder opens path for appending, creating it if needed.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &FileRecorder{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Record appends rec.
func (r *FileRecorder) Record(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.encoder.Encode(rec)
}

// Close closes the file. Calling it again is a no-op.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ReadFile decodes every record in the trace file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// ParamsFrom converts wire parameters, dropping Null ones.
func ParamsFrom(params []protocol.Param) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		if p.IsNull() {
			continue
		}
		out = append(out, Param{Name: p.Name, Value: p.Value})
	}
	return out
}

var _ Recorder = (*FileRecorder)(nil)
