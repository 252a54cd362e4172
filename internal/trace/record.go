// Package trace records bridge traffic between a page and the native layer
// as a stream of CBOR records.
package trace

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction tells which way a record travelled.
type Direction uint8

const (
	// ToNative is a creative-to-native dispatch.
	ToNative Direction = 1
	// ToPage is a native-to-creative push (callback or setter).
	ToPage Direction = 2
)

func (d Direction) String() string {
	switch d {
	case ToNative:
		return "to-native"
	case ToPage:
		return "to-page"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Param is one named value of a dispatch.
type Param struct {
	Name  string `cbor:"1,keyasint"`
	Value any    `cbor:"2,keyasint,omitempty"`
}

// Record is one traced call. Integer keys keep the stream compact.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	PageID    string    `cbor:"2,keyasint,omitempty"`
	Direction Direction `cbor:"3,keyasint"`

	// Transport is "injected" or "scheme" for dispatches.
	Transport string `cbor:"4,keyasint,omitempty"`
	Module    string `cbor:"5,keyasint,omitempty"`

	// Action is the native action, or the dotted script function for pushes.
	Action string  `cbor:"6,keyasint"`
	Params []Param `cbor:"7,keyasint,omitempty"`
	Args   []any   `cbor:"8,keyasint,omitempty"`
}

// Recorder receives trace records. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(rec Record) error
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyQuiet,
		IndefLength:    cbor.IndefLengthAllowed,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// Encode encodes a single record.
func Encode(rec Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

// NewEncoder returns a record stream encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// Decode reads every record from r until EOF.
func Decode(r io.Reader) ([]Record, error) {
	dec := decMode.NewDecoder(r)

	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, &DecodeError{Index: len(records), Err: err}
		}
		records = append(records, rec)
	}
}
