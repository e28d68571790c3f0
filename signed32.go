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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Signed32 is the RFC 7011 signed32 data type. Reduced-length encodings
// sign-extend the missing high-order bits from the stored value's sign
// bit, not zero-fill them, since the value is two's-complement.
type Signed32 struct {
	value int32

	length        uint16
	reducedLength bool
}

func NewSigned32() DataType {
	return &Signed32{}
}

var _ DataType = &Signed32{}

func (t *Signed32) String() string {
	return fmt.Sprintf("%v", t.value)
}

func (*Signed32) Type() string {
	return "signed32"
}

func (t *Signed32) Value() interface{} {
	return t.value
}

func (t *Signed32) SetValue(v any) DataType {
	switch ty := v.(type) {
	case float64:
		t.value = int32(ty)
	case int:
		t.value = int32(ty)
	case int32:
		t.value = ty
	default:
		panic(fmt.Errorf("%T cannot be asserted to %T", v, t.value))
	}
	return t
}

func (t *Signed32) Length() uint16 {
	if t.length > 0 {
		return t.length
	}
	return t.DefaultLength()
}

func (*Signed32) DefaultLength() uint16 {
	return 4
}

func (t *Signed32) Clone() DataType {
	return &Signed32{
		value: t.value,
	}
}

func (t *Signed32) WithLength(length uint16) DataTypeConstructor {
	if length > 0 && length < t.DefaultLength() {
		return func() DataType {
			return &Signed32{
				length:        length,
				reducedLength: true,
			}
		}
	}
	return NewSigned32
}

func (t *Signed32) SetLength(length uint16) DataType {
	if length > 0 && length < t.DefaultLength() {
		t.length = length
		t.reducedLength = true
	} else {
		t.length = t.DefaultLength()
	}
	return t
}

func (t *Signed32) IsReducedLength() bool {
	return t.reducedLength
}

func (t *Signed32) Decode(in io.Reader) (int, error) {
	b := make([]byte, t.Length())
	n, err := in.Read(b)
	if err != nil {
		return n, fmt.Errorf("failed to read data in %T, %w", t, err)
	}
	if !t.reducedLength {
		t.value = int32(binary.BigEndian.Uint32(b))
		return n, nil
	}
	// a reduced-length encoding omits the high-order bytes; sign-extend
	// from the transmitted value's sign bit rather than zero-fill, since
	// this is a two's-complement integer.
	full := make([]byte, t.DefaultLength())
	pad := t.DefaultLength() - t.Length()
	if b[0]&0x80 != 0 {
		for i := uint16(0); i < pad; i++ {
			full[i] = 0xFF
		}
	}
	copy(full[pad:], b)
	t.value = int32(binary.BigEndian.Uint32(full))
	return n, nil
}

func (t *Signed32) Encode(w io.Writer) (int, error) {
	if !t.reducedLength {
		b := make([]byte, t.Length())
		binary.BigEndian.PutUint32(b, uint32(t.value))
		return w.Write(b)
	}
	full := make([]byte, t.DefaultLength())
	binary.BigEndian.PutUint32(full, uint32(t.value))
	return w.Write(full[t.DefaultLength()-t.Length():])
}

func (t *Signed32) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

func (t *Signed32) UnmarshalJSON(in []byte) error {
	return json.Unmarshal(in, &t.value)
}

var _ DataTypeConstructor = NewSigned32
var _ DataType = &Signed32{}
