package wasm

import (
	"fmt"
	"time"
)

// CompileError reports a creative module wazero rejected.
type CompileError struct {
	Module string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile creative module %q: %v", e.Module, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ImportError reports an import the harness does not provide. Creatives may
// only import the mmsdk host module and WASI preview1.
type ImportError struct {
	Module       string
	ImportModule string
	Function     string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("creative module %q imports %s.%s, which the harness does not provide",
		e.Module, e.ImportModule, e.Function)
}

// InstantiateError wraps a failed instantiation.
type InstantiateError struct {
	Module     string
	InstanceID string
	Err        error
}

func (e *InstantiateError) Error() string {
	return fmt.Sprintf("instantiate creative module %q as %s: %v", e.Module, e.InstanceID, e.Err)
}

func (e *InstantiateError) Unwrap() error {
	return e.Err
}

type NotCompiledError struct {
	Module string
}

func (e *NotCompiledError) Error() string {
	return fmt.Sprintf("creative module %q has not been compiled", e.Module)
}

type ExportNotFoundError struct {
	InstanceID string
	Export     string
}

func (e *ExportNotFoundError) Error() string {
	return fmt.Sprintf("creative %s does not export %q", e.InstanceID, e.Export)
}

// InstanceLimitError is returned when RuntimeConfig.MaxInstances creatives are live.
type InstanceLimitError struct {
	Max int
}

func (e *InstanceLimitError) Error() string {
	return fmt.Sprintf("%d creative instances already running", e.Max)
}

// MemoryAccessError reports a guest pointer range outside linear memory.
type MemoryAccessError struct {
	Operation string
	Address   uint32
	Length    uint32
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("guest memory %s of %d bytes at %d is out of range", e.Operation, e.Length, e.Address)
}

// ExitError reports a creative that called proc_exit with a non-zero code.
type ExitError struct {
	InstanceID string
	Code       uint32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("creative %s exited with code %d", e.InstanceID, e.Code)
}

type TimeoutError struct {
	InstanceID string
	Timeout    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("creative %s did not finish within %v", e.InstanceID, e.Timeout)
}
