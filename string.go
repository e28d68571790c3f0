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

// String is the RFC 7011 string data type: a UTF-8 byte sequence with no
// implied length, carried as a variable-length Template field.
type String struct {
	value string

	length uint16
}

func NewString() DataType {
	return &String{}
}

var _ DataType = &String{}

func (t *String) String() string {
	return t.value
}

func (*String) Type() string {
	return "string"
}

func (t *String) Value() interface{} {
	return t.value
}

func (t *String) SetValue(v any) DataType {
	b, ok := v.(string)
	if !ok {
		panic(fmt.Errorf("%T cannot be asserted to %T", v, t.value))
	}
	t.value = b
	t.length = uint16(len(b))
	return t
}

// Length reports t.length directly: a String's wire size is only known
// once SetValue or a Template field (via WithLength/SetLength) has
// assigned it.
func (t *String) Length() uint16 {
	return t.length
}

func (*String) DefaultLength() uint16 {
	return 0
}

func (t *String) Clone() DataType {
	return &String{
		value: t.value,
	}
}

func (*String) WithLength(length uint16) DataTypeConstructor {
	return func() DataType {
		return &String{
			length: length,
		}
	}
}

func (t *String) SetLength(length uint16) DataType {
	t.length = length
	return t
}

func (*String) IsReducedLength() bool {
	return false
}

// Decode does not reject non-UTF-8 input: RFC 7011 §6.1 only says
// Collecting Processes SHOULD detect and ignore invalid UTF-8, which is
// a policy decision left to the caller rather than enforced here.
func (t *String) Decode(in io.Reader) (int, error) {
	b := make([]byte, t.Length())
	n, err := in.Read(b)
	if err != nil {
		return n, fmt.Errorf("failed to read data in %T, %w", t, err)
	}
	t.value = string(b)
	return n, nil
}

func (t *String) Encode(w io.Writer) (int, error) {
	b := []byte(t.value)
	return w.Write(b)
}

func (t *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

func (t *String) UnmarshalJSON(in []byte) error {
	return json.Unmarshal(in, &t.value)
}

var _ DataTypeConstructor = NewString
var _ DataType = &String{}
