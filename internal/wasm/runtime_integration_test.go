package wasm

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/woxQAQ/creative-bridge/internal/host"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// guestImport describes the single function a test guest imports.
type guestImport struct {
	module string
	name   string
	params int
	result bool
}

// guestModule assembles a Wasm binary with one page of exported memory, an
// optional import, an optional data segment at offset 0 and a _start
// function with the given body.
func guestModule(imp *guestImport, body []byte, data string) []byte {
	out := []byte{
		0x00, 0x61, 0x73, 0x6d, // Magic
		0x01, 0x00, 0x00, 0x00, // Version
	}

	var types [][]byte
	startType, startFunc := byte(0), byte(0)
	if imp != nil {
		sig := []byte{0x60}
		sig = append(sig, uleb(uint32(imp.params))...)
		for range imp.params {
			sig = append(sig, 0x7f)
		}
		if imp.result {
			sig = append(sig, 0x01, 0x7f)
		} else {
			sig = append(sig, 0x00)
		}
		types = append(types, sig)
		startType, startFunc = 1, 1
	}
	types = append(types, []byte{0x60, 0x00, 0x00})

	typeSec := uleb(uint32(len(types)))
	for _, sig := range types {
		typeSec = append(typeSec, sig...)
	}
	out = append(out, section(0x01, typeSec)...)

	if imp != nil {
		importSec := []byte{0x01}
		importSec = append(importSec, wasmName(imp.module)...)
		importSec = append(importSec, wasmName(imp.name)...)
		importSec = append(importSec, 0x00, 0x00)
		out = append(out, section(0x02, importSec)...)
	}

	out = append(out, section(0x03, []byte{0x01, startType})...)
	out = append(out, section(0x05, []byte{0x01, 0x00, 0x01})...)

	exportSec := []byte{0x02}
	exportSec = append(exportSec, wasmName("_start")...)
	exportSec = append(exportSec, 0x00, startFunc)
	exportSec = append(exportSec, wasmName("memory")...)
	exportSec = append(exportSec, 0x02, 0x00)
	out = append(out, section(0x07, exportSec)...)

	fn := append([]byte{0x00}, body...)
	codeSec := []byte{0x01}
	codeSec = append(codeSec, uleb(uint32(len(fn)))...)
	codeSec = append(codeSec, fn...)
	out = append(out, section(0x0a, codeSec)...)

	if data != "" {
		dataSec := []byte{0x01, 0x00, 0x41, 0x00, 0x0b}
		dataSec = append(dataSec, wasmName(data)...)
		out = append(out, section(0x0b, dataSec)...)
	}
	return out
}

func section(id byte, content []byte) []byte {
	return append(append([]byte{id}, uleb(uint32(len(content)))...), content...)
}

func wasmName(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func i32Const(v int32) []byte {
	out := []byte{0x41}
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

var (
	callImport = []byte{0x10, 0x00}
	i32Store   = []byte{0x36, 0x02, 0x00}
	end        = []byte{0x0b}
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

const statusAddr = 1024

// callNativeGuest calls call_native once and stores the status at statusAddr.
func callNativeGuest(module, action, payload string) []byte {
	m, a, p := int32(len(module)), int32(len(action)), int32(len(payload))
	body := concat(
		i32Const(statusAddr),
		i32Const(0), i32Const(m),
		i32Const(m), i32Const(a),
		i32Const(m+a), i32Const(p),
		callImport,
		i32Store,
		end,
	)
	return guestModule(&guestImport{module: HostModuleName, name: "call_native", params: 6, result: true},
		body, module+action+payload)
}

type testHost struct {
	runtime *Runtime
	loader  *ModuleLoader
	manager *InstanceManager
}

func newTestHost(t *testing.T, logger *zap.Logger, config *RuntimeConfig) *testHost {
	t.Helper()
	ctx := context.Background()

	runtime, err := NewRuntime(ctx, logger, config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { runtime.Close(ctx) })

	return &testHost{
		runtime: runtime,
		loader:  NewModuleLoader(runtime, logger),
		manager: NewInstanceManager(runtime, NewHostFunctions(logger), logger),
	}
}

func (h *testHost) run(t *testing.T, name string, wasm []byte, native *host.Native) *Instance {
	t.Helper()
	ctx := context.Background()

	if _, err := h.loader.Load(ctx, name, wasm); err != nil {
		t.Fatalf("Failed to load module: %v", err)
	}
	config := &InstanceConfig{ModuleName: name}
	if native != nil {
		config.Native = native
	}
	instance, err := h.manager.Instantiate(ctx, config)
	if err != nil {
		t.Fatalf("Failed to instantiate: %v", err)
	}
	t.Cleanup(func() { instance.Close(ctx) })

	if err := instance.Run(ctx); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return instance
}

func readUint32(t *testing.T, instance *Instance, addr uint32) uint32 {
	t.Helper()
	buf, err := instance.Memory().ReadBytes(addr, 4)
	if err != nil {
		t.Fatal(err)
	}
	return binary.LittleEndian.Uint32(buf)
}

func TestModuleLoader_Load(t *testing.T) {
	h := newTestHost(t, zaptest.NewLogger(t), nil)
	ctx := context.Background()

	wasmBytes := []byte{
		0x00, 0x61, 0x73, 0x6d, // Magic number: \0asm
		0x01, 0x00, 0x00, 0x00, // Version: 1
	}

	module, err := h.loader.Load(ctx, "empty", wasmBytes)
	if err != nil {
		t.Fatalf("Failed to load module: %v", err)
	}
	if module.Name != "empty" {
		t.Errorf("Module name = %s, want 'empty'", module.Name)
	}

	module2, err := h.loader.Load(ctx, "empty", wasmBytes)
	if err != nil {
		t.Fatalf("Failed to load module from cache: %v", err)
	}
	if module2 != module {
		t.Error("Cache should return the same module instance")
	}
}

func TestModuleLoader_FileSource(t *testing.T) {
	h := newTestHost(t, zaptest.NewLogger(t), nil)

	wasmFile := filepath.Join(t.TempDir(), "creative.wasm")
	if err := os.WriteFile(wasmFile, callNativeGuest("mraid", "close", "{}"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	module, err := h.loader.LoadFile(context.Background(), wasmFile)
	if err != nil {
		t.Fatalf("Failed to load module from file: %v", err)
	}
	if module.Path != wasmFile || module.Name != wasmFile {
		t.Errorf("Name = %s, Path = %s, want %s", module.Name, module.Path, wasmFile)
	}
	if len(module.Imports) != 1 || module.Imports[0] != "mmsdk.call_native" {
		t.Errorf("Imports = %v, want [mmsdk.call_native]", module.Imports)
	}
}

func TestModuleLoader_InvalidBinary(t *testing.T) {
	h := newTestHost(t, zaptest.NewLogger(t), nil)

	_, err := h.loader.Load(context.Background(), "broken", []byte("not wasm"))
	var compErr *CompileError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompileError, got %v", err)
	}
}

func TestModuleLoader_UnsupportedImport(t *testing.T) {
	h := newTestHost(t, zaptest.NewLogger(t), nil)

	wasm := guestModule(&guestImport{module: "env", name: "fetch", params: 0}, end, "")
	_, err := h.loader.Load(context.Background(), "fetching", wasm)

	var importErr *ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if importErr.ImportModule != "env" || importErr.Function != "fetch" {
		t.Errorf("unexpected error fields: %+v", importErr)
	}
}

func TestCallNative_RoutesToNativeLayer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	h := newTestHost(t, logger, nil)

	native := host.New(host.Options{Injected: true}, nil, logger)
	var got []protocol.Call
	native.Handle(protocol.ModuleMRAID, "expand", func(call protocol.Call) {
		got = append(got, call)
	})

	instance := h.run(t, "expand", callNativeGuest("mraid", "expand", `{"width":320,"height":480}`), native)

	if status := readUint32(t, instance, statusAddr); status != StatusOK {
		t.Errorf("status = %d, want %d", status, StatusOK)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 native call, got %d", len(got))
	}
	if got[0].Action != "expand" || got[0].Module != protocol.ModuleMRAID {
		t.Errorf("call = %+v", got[0])
	}
	if w, ok := got[0].Number("width"); !ok || w != 320 {
		t.Errorf("width = %v (%v)", w, ok)
	}
}

func TestCallNative_GenericModule(t *testing.T) {
	logger := zaptest.NewLogger(t)
	h := newTestHost(t, logger, nil)

	native := host.New(host.Options{Injected: true}, nil, logger)
	var filename string
	native.Handle(protocol.ModuleGeneric, "fileLoaded", func(call protocol.Call) {
		filename, _ = call.String("filename")
	})

	instance := h.run(t, "loaded", callNativeGuest("", "fileLoaded", `{"filename":"creative.wasm"}`), native)

	if status := readUint32(t, instance, statusAddr); status != StatusOK {
		t.Errorf("status = %d, want %d", status, StatusOK)
	}
	if filename != "creative.wasm" {
		t.Errorf("filename = %q", filename)
	}
}

func TestCallNative_Status(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name   string
		native *host.Native
		want   uint32
	}{
		{"unbound instance", nil, StatusNamespaceMissing},
		{"scheme-only native layer", host.New(host.Options{}, nil, logger), StatusNamespaceMissing},
		{"unhandled action", host.New(host.Options{Injected: true}, nil, logger), StatusActionMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost(t, logger, nil)
			instance := h.run(t, "close", callNativeGuest("mraid", "close", "{}"), tt.native)
			if status := readUint32(t, instance, statusAddr); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestPollActions(t *testing.T) {
	logger := zaptest.NewLogger(t)
	h := newTestHost(t, logger, nil)

	native := host.New(host.Options{Injected: true, ActionsQueue: true}, nil, logger)
	native.Push("MmJsBridge.mraid.setState", "default")

	// First poll offers a 4-byte buffer, second a large one.
	body := concat(
		i32Const(0), i32Const(256), i32Const(4), callImport, i32Store,
		i32Const(4), i32Const(256), i32Const(512), callImport, i32Store,
		i32Const(8), i32Const(256), i32Const(512), callImport, i32Store,
		end,
	)
	wasm := guestModule(&guestImport{module: HostModuleName, name: "poll_actions", params: 2, result: true}, body, "")
	instance := h.run(t, "poll", wasm, native)

	want := `[{"functionName":"MmJsBridge.mraid.setState","args":["default"]}]`
	if got := readUint32(t, instance, 0); got != uint32(len(want)) {
		t.Errorf("short poll size = %d, want %d", got, len(want))
	}
	if got := readUint32(t, instance, 4); got != uint32(len(want)) {
		t.Errorf("poll size = %d, want %d", got, len(want))
	}
	if got := readUint32(t, instance, 8); got != 0 {
		t.Errorf("empty poll size = %d, want 0", got)
	}

	batch, err := instance.Memory().ReadString(256, uint32(len(want)))
	if err != nil {
		t.Fatal(err)
	}
	if batch != want {
		t.Errorf("batch = %s, want %s", batch, want)
	}
	if native.Queue().Len() != 0 {
		t.Error("queue should be drained")
	}
}

func TestLogMessage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := newTestHost(t, zap.New(core), nil)

	msg := "creative ready"
	body := concat(i32Const(int32(LogWarn)), i32Const(0), i32Const(int32(len(msg))), callImport, end)
	wasm := guestModule(&guestImport{module: HostModuleName, name: "log_message", params: 3}, body, msg)
	instance := h.run(t, "logger", wasm, nil)

	entries := logs.FilterMessage(msg).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
	if id := entries[0].ContextMap()["instance_id"]; id != instance.ID {
		t.Errorf("instance_id = %v, want %s", id, instance.ID)
	}
}

func TestInstance_Timeout(t *testing.T) {
	logger := zaptest.NewLogger(t)
	config := DefaultRuntimeConfig()
	config.ExecutionTimeout = 50 * time.Millisecond
	h := newTestHost(t, logger, config)
	ctx := context.Background()

	// loop { br 0 }
	body := []byte{0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b}
	if _, err := h.loader.Load(ctx, "spin", guestModule(nil, body, "")); err != nil {
		t.Fatal(err)
	}
	instance, err := h.manager.Instantiate(ctx, &InstanceConfig{ModuleName: "spin"})
	if err != nil {
		t.Fatal(err)
	}
	defer instance.Close(ctx)

	err = instance.Run(ctx)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestInstanceManager_Errors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	config := DefaultRuntimeConfig()
	config.MaxInstances = 1
	h := newTestHost(t, logger, config)
	ctx := context.Background()

	_, err := h.manager.Instantiate(ctx, &InstanceConfig{ModuleName: "missing"})
	var notFound *NotCompiledError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotCompiledError, got %v", err)
	}

	if _, err := h.loader.Load(ctx, "noop", guestModule(nil, end, "")); err != nil {
		t.Fatal(err)
	}
	first, err := h.manager.Instantiate(ctx, &InstanceConfig{ModuleName: "noop"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := h.runtime.GetInstance(first.ID); !ok {
		t.Error("instance should be tracked")
	}

	_, err = h.manager.Instantiate(ctx, &InstanceConfig{ModuleName: "noop"})
	var limitErr *InstanceLimitError
	if !errors.As(err, &limitErr) {
		t.Errorf("expected InstanceLimitError, got %v", err)
	}

	_, err = first.Call(ctx, "render")
	var exportErr *ExportNotFoundError
	if !errors.As(err, &exportErr) || exportErr.Export != "render" {
		t.Errorf("expected ExportNotFoundError for render, got %v", err)
	}

	if err := first.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if h.runtime.InstanceCount() != 0 {
		t.Error("closed instance should be untracked")
	}
	if _, err := h.manager.Instantiate(ctx, &InstanceConfig{ModuleName: "noop"}); err != nil {
		t.Errorf("Instantiate() after Close() failed: %v", err)
	}
}

func TestMemory_Bounds(t *testing.T) {
	h := newTestHost(t, zaptest.NewLogger(t), nil)
	instance := h.run(t, "noop", guestModule(nil, end, "abc"), nil)

	mem := instance.Memory()
	if s, err := mem.ReadString(0, 3); err != nil || s != "abc" {
		t.Errorf("ReadString() = %q, %v", s, err)
	}

	_, err := mem.ReadBytes(65535, 2)
	var accessErr *MemoryAccessError
	if !errors.As(err, &accessErr) {
		t.Errorf("expected MemoryAccessError, got %v", err)
	}

	if err := mem.WriteBytes(65536, []byte{1}); err == nil {
		t.Error("WriteBytes() past the end should fail")
	}
}
