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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// VariableLengthMarker is the Template-level field length (0xFFFF) that
// marks a field as variable-length per RFC 7011 §7.
const VariableLengthMarker uint16 = 0xFFFF

// Field is one entry of a Template's field list: an Information Element
// reference paired with the Template-declared length that governs how the
// field is framed on the wire. A fixed length smaller than the IE's
// DefaultLength is a reduced-length encoding (RFC 7011 §6.2); a length of
// VariableLengthMarker means the field carries its own 1- or 3-byte length
// prefix in every record (RFC 7011 §7).
//
// This collapses the upstream split between fixed-length and
// variable-length field implementations into one struct: the framing
// decision is a property of TemplateLength, not of the type.
type Field struct {
	IE InformationElement

	// TemplateLength is the length this field was declared with in its
	// Template: the IE's DefaultLength, a reduced length, or
	// VariableLengthMarker.
	TemplateLength uint16
}

// NewField builds a Field from an Information Element using its default
// wire length.
func NewField(ie InformationElement) Field {
	return Field{IE: ie, TemplateLength: ie.defaultFieldLength()}
}

// NewReducedLengthField builds a Field encoded with a non-default fixed
// length.
func NewReducedLengthField(ie InformationElement, length uint16) Field {
	return Field{IE: ie, TemplateLength: length}
}

// NewVariableLengthField builds a Field that carries its own length prefix
// on the wire.
func NewVariableLengthField(ie InformationElement) Field {
	return Field{IE: ie, TemplateLength: VariableLengthMarker}
}

func (ie *InformationElement) defaultFieldLength() uint16 {
	dt, err := ie.NewDataType()
	if err != nil {
		return 0
	}
	return dt.DefaultLength()
}

// IsVariableLength reports whether this field is framed with a length
// prefix on the wire.
func (f Field) IsVariableLength() bool {
	return f.TemplateLength == VariableLengthMarker
}

// MinLength is the smallest number of wire octets one instance of this
// field can occupy: the length prefix plus zero payload bytes for a
// variable-length field, or the declared fixed length otherwise.
func (f Field) MinLength() uint16 {
	if f.IsVariableLength() {
		return 1
	}
	return f.TemplateLength
}

// EncLength is the number of octets occupied by this field's Template
// descriptor entry: always 4 (IE id + length), plus 4 more when the IE is
// enterprise-specific and therefore carries a PEN.
func (f Field) EncLength() uint16 {
	if f.IE.IsEnterprise() {
		return 8
	}
	return 4
}

// Encode writes value on the wire using this field's framing and IE type.
func (f Field) Encode(w io.Writer, value DataType) (int, error) {
	if !f.IsVariableLength() {
		value.SetLength(f.TemplateLength)
		return value.Encode(w)
	}

	length := value.Length()
	var prefix []byte
	if length >= 255 {
		prefix = []byte{0xFF}
		prefix = binary.BigEndian.AppendUint16(prefix, length)
	} else {
		prefix = []byte{byte(length)}
	}
	n, err := w.Write(prefix)
	if err != nil {
		return n, fmt.Errorf("ipfix: writing variable-length prefix for %s: %w", f.IE.Name, err)
	}
	m, err := value.Encode(w)
	return n + m, err
}

// Decode reads one instance of this field from r, constructing a fresh
// DataType from the field's Information Element.
func (f Field) Decode(r io.Reader) (DataType, int, error) {
	value, err := f.IE.NewDataType()
	if err != nil {
		return nil, 0, fmt.Errorf("ipfix: decoding field %s: %w", f.IE.Name, err)
	}

	if !f.IsVariableLength() {
		value.SetLength(f.TemplateLength)
		n, err := value.Decode(r)
		return value, n, err
	}

	lb := make([]byte, 1)
	n, err := io.ReadFull(r, lb)
	if err != nil {
		return nil, n, fmt.Errorf("ipfix: reading variable-length prefix for %s: %w", f.IE.Name, err)
	}

	length := uint16(lb[0])
	if lb[0] == 0xFF {
		llb := make([]byte, 2)
		m, err := io.ReadFull(r, llb)
		n += m
		if err != nil {
			return nil, n, fmt.Errorf("ipfix: reading long-form length for %s: %w", f.IE.Name, err)
		}
		length = binary.BigEndian.Uint16(llb)
	}

	value.SetLength(length)
	buf := make([]byte, length)
	m, err := io.ReadFull(r, buf)
	n += m
	if err != nil {
		return nil, n, fmt.Errorf("ipfix: reading value for %s: %w", f.IE.Name, err)
	}

	if _, err := value.Decode(bytes.NewReader(buf)); err != nil {
		return nil, n, err
	}
	return value, n, nil
}
