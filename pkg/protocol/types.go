package protocol

// Wire types shared by the creative side of the bridge and the native host.
// This package defines the call shape and the two encodings used between them.

const (
	// InjectedPrefix is the global name prefix of native handler namespaces.
	// The namespace for a module is InjectedPrefix followed by the capitalized module name.
	InjectedPrefix = "MmInjectedFunctions"

	// DefaultScheme is the URL scheme used for calls without a module.
	DefaultScheme = "mmsdk"
)

// Module names used by the bridge surfaces.
const (
	ModuleGeneric     = ""
	ModuleMRAID       = "mraid"
	ModuleMMJS        = "mmjs"
	ModuleInlineVideo = "inlineVideo"
	ModuleVAST        = "vast"
)

type null struct{}

// Null marks a parameter that must be left out of the wire payload.
var Null any = null{}

// Param is a single named call parameter.
type Param struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// IsNull reports whether the parameter is omitted from the wire.
func (p Param) IsNull() bool {
	return IsNull(p.Value)
}

// IsNull reports whether v is the Null sentinel.
func IsNull(v any) bool {
	_, ok := v.(null)
	return ok
}

// NewParam builds a parameter, mapping a missing (nil) value to Null.
func NewParam(name string, value any) Param {
	if value == nil {
		value = Null
	}
	return Param{Name: name, Value: value}
}

// Call is one creative-to-native invocation.
type Call struct {
	// Module is the API module; empty for generic calls.
	Module string `json:"module"`
	Action string `json:"action"`
	Params []Param `json:"params,omitempty"`
}

// Value returns the value of the named parameter.
func (c Call) Value(name string) (any, bool) {
	for _, p := range c.Params {
		if p.Name == name && !p.IsNull() {
			return p.Value, true
		}
	}
	return nil, false
}

// Values returns the non-null parameters as a map.
func (c Call) Values() map[string]any {
	out := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		if p.IsNull() {
			continue
		}
		out[p.Name] = p.Value
	}
	return out
}
