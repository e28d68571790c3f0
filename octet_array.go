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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// OctetArray is the RFC 7011 octetArray data type: an opaque byte
// sequence whose length is never implied by the type itself. Its length
// must be set externally, either via WithLength/SetLength when wiring up
// a Template field, or implicitly when decoding a variable-length field.
type OctetArray struct {
	value []byte

	length uint16
}

func NewOctetArray() DataType {
	return &OctetArray{}
}

var _ DataType = &OctetArray{}

func (t *OctetArray) String() string {
	return fmt.Sprintf("%v", t.value)
}

func (*OctetArray) Type() string {
	return "octetArray"
}

// Length reports t.length directly rather than a fixed DefaultLength,
// since an OctetArray's size on the wire is only known once SetValue or
// a Template field (fixed or variable-length) has assigned it.
func (t *OctetArray) Length() uint16 {
	return t.length
}

func (t *OctetArray) Value() interface{} {
	return t.value
}

// SetValue accepts a raw []byte directly, or a base64-encoded string
// (the form JSON round-trips a byte slice through).
func (t *OctetArray) SetValue(v any) DataType {
	switch b := v.(type) {
	case string:
		decoded, _ := base64.StdEncoding.DecodeString(b)
		t.value = decoded
		t.length = uint16(len(decoded))
	case []byte:
		t.value = b
		t.length = uint16(len(b))
	default:
		panic(fmt.Errorf("%T cannot be asserted to %T in %T", v, t.value, t))
	}
	return t
}

func (*OctetArray) DefaultLength() uint16 {
	return 0
}

func (t *OctetArray) Clone() DataType {
	return &OctetArray{
		value: t.value,
	}
}

// WithLength returns a DataTypeConstructor function with a fixed, given length
func (*OctetArray) WithLength(length uint16) DataTypeConstructor {
	return func() DataType {
		return &OctetArray{
			length: length,
		}
	}
}

func (t *OctetArray) SetLength(length uint16) DataType {
	t.length = length
	return t
}

// IsReducedLength is always false: reduced-length encoding has no
// meaning for an already-arbitrary-length byte sequence.
func (*OctetArray) IsReducedLength() bool {
	return false
}

func (t *OctetArray) Decode(in io.Reader) (int, error) {
	b := make([]byte, t.Length())
	n, err := in.Read(b)
	if err != nil {
		return n, fmt.Errorf("failed to read data in %T, %w", t, err)
	}
	t.value = b
	return n, nil
}

func (t *OctetArray) Encode(w io.Writer) (int, error) {
	b := make([]byte, len(t.value))
	copy(b, t.value)
	return w.Write(b)
}

// MarshalJSON renders the byte sequence as a quoted "0x"-prefixed hex
// string rather than a JSON array of small integers, which is far more
// compact and readable for anything beyond a handful of octets.
func (t *OctetArray) MarshalJSON() ([]byte, error) {
	hexString := ""
	if t.value != nil {
		hexString = "0x" + hex.EncodeToString(t.value)
	}
	return []byte(fmt.Sprintf("%q", hexString)), nil
}

// UnmarshalJSON is the inverse of MarshalJSON: it expects a quoted
// "0x"-prefixed hex string, not the default byte-array-of-integers form.
func (t *OctetArray) UnmarshalJSON(in []byte) error {
	decoded, err := hex.DecodeString(string(in)[3 : len(in)-1])
	if err != nil {
		return err
	}
	t.value = decoded
	return nil
}

var _ DataTypeConstructor = NewOctetArray
var _ DataType = &OctetArray{}
