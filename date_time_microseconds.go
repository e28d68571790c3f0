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
	"math"
	"time"
)

// DateTimeMicroseconds is the RFC 7011 dateTimeMicroseconds data type:
// an NTP era-0 64-bit timestamp (32-bit seconds, 32-bit fraction, low
// 11 bits reserved) relative to ntpEpoch.
type DateTimeMicroseconds struct {
	value    time.Time
	seconds  uint32
	fraction float64
}

func NewDateTimeMicroseconds() DataType {
	return &DateTimeMicroseconds{}
}

var _ DataType = &DateTimeMicroseconds{}

func (t *DateTimeMicroseconds) String() string {
	return fmt.Sprintf("%v", t.value)
}

func (*DateTimeMicroseconds) Type() string {
	return "dateTimeMicroseconds"
}

func (t *DateTimeMicroseconds) Value() interface{} {
	return t.value
}

func (t *DateTimeMicroseconds) SetValue(v any) DataType {
	b, ok := v.(time.Time)
	if !ok {
		panic(fmt.Errorf("%T cannot be asserted to %T", v, t.value))
	}
	t.value = b
	return t
}

func (t *DateTimeMicroseconds) Length() uint16 {
	return t.DefaultLength()
}

func (*DateTimeMicroseconds) DefaultLength() uint16 {
	return 8
}

func (t *DateTimeMicroseconds) Clone() DataType {
	return &DateTimeMicroseconds{
		value: t.value,
	}
}

// WithLength ignores length: DateTimeMicroseconds is never
// reduced-length encodable.
func (*DateTimeMicroseconds) WithLength(length uint16) DataTypeConstructor {
	return NewDateTimeMicroseconds
}

func (t *DateTimeMicroseconds) SetLength(length uint16) DataType {
	return t
}

func (*DateTimeMicroseconds) IsReducedLength() bool {
	return false
}

func (t *DateTimeMicroseconds) Decode(in io.Reader) (int, error) {
	b := make([]byte, t.Length())
	n, err := in.Read(b)
	if err != nil {
		return n, fmt.Errorf("failed to read data in %T, %w", t, err)
	}
	half := t.Length() / 2
	t.seconds = binary.BigEndian.Uint32(b[:half])
	// RFC 7011 §6.1.9 reserves the low 11 bits of the fraction field;
	// mask them off before interpreting it.
	t.fraction = float64(binary.BigEndian.Uint32(b[half:t.Length()])&0xFFFFF800) / math.Pow(2, 32)
	t.value = ntpEpoch.Add(time.Duration(t.seconds)*time.Second + time.Duration(t.fraction*float64(time.Second)))
	return n, nil
}

func (t *DateTimeMicroseconds) Encode(w io.Writer) (int, error) {
	elapsed := t.value.Sub(ntpEpoch).Seconds()
	seconds := uint32(elapsed)
	fraction := elapsed - float64(seconds)

	b := binary.BigEndian.AppendUint32(nil, seconds)
	b = binary.BigEndian.AppendUint32(b, uint32(fraction*math.Pow(2, 32))&0xFFFFF800)
	return w.Write(b)
}

func (t *DateTimeMicroseconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

func (t *DateTimeMicroseconds) UnmarshalJSON(in []byte) error {
	return json.Unmarshal(in, &t.value)
}

var _ DataTypeConstructor = NewDateTimeMicroseconds
var _ DataType = &DateTimeMicroseconds{}
