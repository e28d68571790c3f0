/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipfix

import (
	"encoding/json"
	"fmt"
	"io"
)

// DataType is the scalar wire representation of one Information Element
// value. The MessageBuffer itself never inspects DataType internals beyond
// Length/DefaultLength (used to reason about MTU) and Encode/Decode (used
// to move bytes); field identity and ordering are the Template's concern.
type DataType interface {
	json.Marshaler
	json.Unmarshaler
	fmt.Stringer

	// Type returns the IANA abstract data type name, e.g. "unsigned32".
	Type() string

	// Length returns the actual wire length of the value, which may be
	// smaller than DefaultLength when reduced-length encoding applies.
	Length() uint16

	// DefaultLength returns the type's length as defined by RFC 7011.
	DefaultLength() uint16

	// Decode reads Length() bytes from r and reconstructs the value.
	Decode(r io.Reader) (int, error)

	// Encode writes the value to w in IPFIX binary format.
	Encode(w io.Writer) (int, error)

	// Value returns the Go-native value held by the DataType.
	Value() interface{}

	// IsReducedLength reports whether the value was constructed with a
	// custom, reduced-length encoding per RFC 7011 §6.2.
	IsReducedLength() bool

	// WithLength returns a constructor that produces DataTypes pinned to
	// a reduced length, leaving the receiver's own length unaffected.
	WithLength(uint16) DataTypeConstructor

	// SetLength fixes the length used on the next Encode/Decode.
	SetLength(uint16) DataType

	// Clone returns a detached copy carrying the same value.
	Clone() DataType

	// SetValue assigns the internal value, panicking if v cannot be
	// asserted to the type's native Go representation.
	SetValue(v any) DataType
}

// DataTypeConstructor builds a fresh, zero-valued DataType instance.
type DataTypeConstructor func() DataType

// ErrUndefinedEncoding is returned by callers that look up a DataType
// constructor by an unrecognized IANA abstract type name or number.
var ErrUndefinedEncoding = fmt.Errorf("ipfix: undefined data type encoding")

// LookupConstructor resolves an IANA abstract data type name (as used in
// the "type" column of the Information Element registry) to its
// DataTypeConstructor.
func LookupConstructor(name string) (DataTypeConstructor, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedEncoding, name)
	}
	return c, nil
}

// SupportedTypes returns every DataType constructor known to this package.
func SupportedTypes() []DataTypeConstructor {
	cs := make([]DataTypeConstructor, 0, len(constructors))
	for _, c := range constructors {
		cs = append(cs, c)
	}
	return cs
}

// DataTypeFromNumber resolves the IANA-assigned numeric data type
// identifier (RFC 7011 §3.1) to its constructor.
func DataTypeFromNumber(id uint8) (DataTypeConstructor, error) {
	switch id {
	case 0:
		return NewOctetArray, nil
	case 1:
		return NewUnsigned8, nil
	case 2:
		return NewUnsigned16, nil
	case 3:
		return NewUnsigned32, nil
	case 4:
		return NewUnsigned64, nil
	case 7:
		return NewSigned32, nil
	case 8:
		return NewSigned64, nil
	case 10:
		return NewFloat64, nil
	case 11:
		return NewBoolean, nil
	case 12:
		return NewMacAddress, nil
	case 13:
		return NewString, nil
	case 14:
		return NewDateTimeSeconds, nil
	case 15:
		return NewDateTimeMilliseconds, nil
	case 16:
		return NewDateTimeMicroseconds, nil
	case 17:
		return NewDateTimeNanoseconds, nil
	case 18:
		return NewIPv4Address, nil
	case 19:
		return NewIPv6Address, nil
	default:
		return nil, fmt.Errorf("%w: data type id %d is not supported", ErrUndefinedEncoding, id)
	}
}

var constructors = map[string]DataTypeConstructor{
	"octetArray":           NewOctetArray,
	"unsigned8":            NewUnsigned8,
	"unsigned16":           NewUnsigned16,
	"unsigned32":           NewUnsigned32,
	"unsigned64":           NewUnsigned64,
	"signed32":             NewSigned32,
	"signed64":             NewSigned64,
	"float64":              NewFloat64,
	"boolean":              NewBoolean,
	"macAddress":           NewMacAddress,
	"string":               NewString,
	"dateTimeSeconds":      NewDateTimeSeconds,
	"dateTimeMilliseconds": NewDateTimeMilliseconds,
	"dateTimeMicroseconds": NewDateTimeMicroseconds,
	"dateTimeNanoseconds":  NewDateTimeNanoseconds,
	"ipv4Address":          NewIPv4Address,
	"ipv6Address":          NewIPv6Address,
}

var (
	_ json.Marshaler   = DataType(nil)
	_ json.Unmarshaler = DataType(nil)
	_ fmt.Stringer     = DataType(nil)
)
