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

// Record is the dictionary-decode representation of one Data Set entry:
// a mapping from Information Element name to its Go-native value.
type Record map[string]interface{}

// Template describes the field order, identity, and length of records in
// a Data Set, and, when ScopeFieldCount is non-zero, doubles as an Options
// Template describing records scoped to a management entity (RFC 7011
// §3.4.2.2). The MessageBuffer treats Template as an opaque collaborator:
// it only calls MinLength/EncLength to reason about MTU, and the
// encode/decode methods below to move bytes.
type Template struct {
	Id     uint16
	Fields []Field

	// ScopeFieldCount is non-zero only for Options Templates, and counts
	// how many of the leading Fields are scope fields.
	ScopeFieldCount uint16
}

// NativeSetID returns the Set ID a Template Set carrying this Template
// must use: OptionsTemplateSetID for an Options Template, TemplateSetID
// otherwise.
func (t *Template) NativeSetID() uint16 {
	if t.ScopeFieldCount > 0 {
		return OptionsTemplateSetID
	}
	return TemplateSetID
}

// MinLength is the smallest number of octets one Data Set record
// conforming to this Template can occupy: the sum of every field's
// MinLength.
func (t *Template) MinLength() uint16 {
	var n uint16
	for _, f := range t.Fields {
		n += f.MinLength()
	}
	return n
}

// HasIE reports whether this Template's field list contains ie.
func (t *Template) HasIE(ie InformationElement) bool {
	for _, f := range t.Fields {
		if f.IE.Id == ie.Id && f.IE.EnterpriseId == ie.EnterpriseId {
			return true
		}
	}
	return false
}

// EncLength is the number of octets this Template's descriptor occupies
// inside a Template Set or Options Template Set, including its own
// 4-octet (or 6-octet, for options) record header.
func (t *Template) EncLength() uint16 {
	var n uint16 = 4
	if t.ScopeFieldCount > 0 {
		n += 2
	}
	for _, f := range t.Fields {
		n += f.EncLength()
	}
	return n
}

// EncodeTemplateTo writes this Template's descriptor record to w, in the
// layout appropriate for its NativeSetID (TemplateSetID or
// OptionsTemplateSetID).
func (t *Template) EncodeTemplateTo(w io.Writer) (int, error) {
	var hdr []byte
	if setID := t.NativeSetID(); setID == OptionsTemplateSetID {
		hdr = make([]byte, 6)
		binary.BigEndian.PutUint16(hdr[0:2], t.Id)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(t.Fields)))
		binary.BigEndian.PutUint16(hdr[4:6], t.ScopeFieldCount)
	} else {
		hdr = make([]byte, 4)
		binary.BigEndian.PutUint16(hdr[0:2], t.Id)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(t.Fields)))
	}

	n, err := w.Write(hdr)
	if err != nil {
		return n, fmt.Errorf("ipfix: writing template header: %w", err)
	}

	for _, f := range t.Fields {
		fb := make([]byte, 4)
		id := f.IE.Id
		if f.IE.IsEnterprise() {
			id |= 0x8000
		}
		binary.BigEndian.PutUint16(fb[0:2], id)
		binary.BigEndian.PutUint16(fb[2:4], f.TemplateLength)
		m, err := w.Write(fb)
		n += m
		if err != nil {
			return n, fmt.Errorf("ipfix: writing template field: %w", err)
		}
		if f.IE.IsEnterprise() {
			pb := make([]byte, 4)
			binary.BigEndian.PutUint32(pb, f.IE.EnterpriseId)
			m, err := w.Write(pb)
			n += m
			if err != nil {
				return n, fmt.Errorf("ipfix: writing template field pen: %w", err)
			}
		}
	}
	return n, nil
}

// WithdrawalLength is the number of octets a Template Withdrawal record
// occupies in a Set carrying setID.
func WithdrawalLength(setID uint16) uint16 {
	if setID == OptionsTemplateSetID {
		return 6
	}
	return 4
}

// EncodeWithdrawalTo writes a Template Withdrawal record (a template
// descriptor with a zero field count) for tid to w.
func EncodeWithdrawalTo(w io.Writer, setID uint16, tid uint16) (int, error) {
	var hdr []byte
	if setID == OptionsTemplateSetID {
		hdr = make([]byte, 6)
	} else {
		hdr = make([]byte, 4)
	}
	binary.BigEndian.PutUint16(hdr[0:2], tid)
	return w.Write(hdr)
}

// DecodeTemplateFrom parses one Template descriptor record from buf at
// offset, which must lie within a Set carrying setID. It returns the
// parsed Template and the offset immediately following the record; for a
// Template Withdrawal the Template carries only its Id (and scope field
// count) and isWithdrawal is true.
func DecodeTemplateFrom(buf []byte, offset int, setID uint16, registry func(uint16) (InformationElement, bool)) (tmpl *Template, isWithdrawal bool, newOffset int, err error) {
	isOptions := setID == OptionsTemplateSetID
	hdrLen := 4
	if isOptions {
		hdrLen = 6
	}
	if offset+hdrLen > len(buf) {
		return nil, false, offset, newDecodeError("truncated template record header")
	}

	tid := binary.BigEndian.Uint16(buf[offset : offset+2])
	fieldCount := binary.BigEndian.Uint16(buf[offset+2 : offset+4])
	var scopeCount uint16
	if isOptions {
		scopeCount = binary.BigEndian.Uint16(buf[offset+4 : offset+6])
	}
	offset += hdrLen

	if fieldCount == 0 {
		return &Template{Id: tid, ScopeFieldCount: scopeCount}, true, offset, nil
	}

	fields := make([]Field, 0, fieldCount)
	for i := uint16(0); i < fieldCount; i++ {
		if offset+4 > len(buf) {
			return nil, false, offset, newDecodeError("truncated template field spec")
		}
		rawID := binary.BigEndian.Uint16(buf[offset : offset+2])
		length := binary.BigEndian.Uint16(buf[offset+2 : offset+4])
		offset += 4

		id := rawID &^ 0x8000
		var pen uint32
		if IsEnterpriseField(rawID) {
			if offset+4 > len(buf) {
				return nil, false, offset, newDecodeError("truncated template field pen")
			}
			pen = binary.BigEndian.Uint32(buf[offset : offset+4])
			offset += 4
		}

		ie, ok := registry(id)
		if !ok {
			ie = InformationElement{Id: id, EnterpriseId: pen, Name: fmt.Sprintf("_unknown_%d", id)}
		}
		ie.EnterpriseId = pen

		fields = append(fields, Field{IE: ie, TemplateLength: length})
	}

	return &Template{Id: tid, Fields: fields, ScopeFieldCount: scopeCount}, false, offset, nil
}

// EncodeNamedictTo encodes rec against this Template's field order into a
// scratch buffer and returns its bytes. Encoding happens against a scratch
// buffer (rather than directly into the caller's buffer) so that the
// caller can reject an oversized record without having written any of it.
func (t *Template) EncodeNamedictTo(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range t.Fields {
		v, ok := rec[f.IE.Name]
		if !ok {
			return nil, fmt.Errorf("ipfix: record missing value for field %s", f.IE.Name)
		}
		dt, err := f.IE.NewDataType()
		if err != nil {
			return nil, err
		}
		dt.SetValue(v)
		if _, err := f.Encode(&buf, dt); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// EncodeTupleTo encodes values positionally against this Template's own
// field order into a scratch buffer.
func (t *Template) EncodeTupleTo(values []interface{}) ([]byte, error) {
	if len(values) != len(t.Fields) {
		return nil, fmt.Errorf("ipfix: tuple encode: template %d has %d fields but %d values given", t.Id, len(t.Fields), len(values))
	}
	rec := make(Record, len(t.Fields))
	for i, f := range t.Fields {
		rec[f.IE.Name] = values[i]
	}
	return t.EncodeNamedictTo(rec)
}

// DecodeNamedictFrom decodes one record from buf at offset against this
// Template, returning the record and the offset immediately following it.
func (t *Template) DecodeNamedictFrom(buf []byte, offset int) (Record, int, error) {
	rec := make(Record, len(t.Fields))
	r := bytes.NewReader(buf[offset:])
	for _, f := range t.Fields {
		v, _, err := f.Decode(r)
		if err != nil {
			return nil, offset, err
		}
		rec[f.IE.Name] = v.Value()
	}
	consumed := len(buf[offset:]) - r.Len()
	return rec, offset + consumed, nil
}

// DecodeTupleFrom decodes one record from buf at offset, returning only
// the values for the Information Elements in ielist, in ielist order.
// Every IE in ielist must be a member of this Template (callers filter
// with HasIE before calling).
func (t *Template) DecodeTupleFrom(buf []byte, offset int, ielist []InformationElement) ([]interface{}, int, error) {
	wanted := make(map[uint16]int, len(ielist))
	for i, ie := range ielist {
		wanted[ie.Id] = i
	}

	out := make([]interface{}, len(ielist))
	r := bytes.NewReader(buf[offset:])
	for _, f := range t.Fields {
		v, _, err := f.Decode(r)
		if err != nil {
			return nil, offset, err
		}
		if idx, ok := wanted[f.IE.Id]; ok {
			out[idx] = v.Value()
		}
	}
	consumed := len(buf[offset:]) - r.Len()
	return out, offset + consumed, nil
}
