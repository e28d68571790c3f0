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
	"net"
	"testing"
)

func testFlowTemplate() *Template {
	return &Template{
		Id: 256,
		Fields: []Field{
			NewField(InformationElement{Id: 8, Name: "sourceIPv4Address", Type: "ipv4Address"}),
			NewField(InformationElement{Id: 12, Name: "destinationIPv4Address", Type: "ipv4Address"}),
			NewField(InformationElement{Id: 2, Name: "packetDeltaCount", Type: "unsigned64"}),
		},
	}
}

func testRegistry(ies ...InformationElement) func(uint16) (InformationElement, bool) {
	m := make(map[uint16]InformationElement, len(ies))
	for _, ie := range ies {
		m[ie.Id] = ie
	}
	return func(id uint16) (InformationElement, bool) {
		ie, ok := m[id]
		return ie, ok
	}
}

func TestTemplateEncodeDecodeRoundTrip(t *testing.T) {
	tmpl := testFlowTemplate()

	var buf bytes.Buffer
	n, err := tmpl.EncodeTemplateTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if uint16(n) != tmpl.EncLength() {
		t.Fatalf("expected EncodeTemplateTo to write %d bytes, wrote %d", tmpl.EncLength(), n)
	}

	registry := testRegistry(
		InformationElement{Id: 8, Name: "sourceIPv4Address", Type: "ipv4Address"},
		InformationElement{Id: 12, Name: "destinationIPv4Address", Type: "ipv4Address"},
		InformationElement{Id: 2, Name: "packetDeltaCount", Type: "unsigned64"},
	)

	decoded, isWithdrawal, offset, err := DecodeTemplateFrom(buf.Bytes(), 0, TemplateSetID, registry)
	if err != nil {
		t.Fatal(err)
	}
	if isWithdrawal {
		t.Fatal("expected a regular template, not a withdrawal")
	}
	if offset != buf.Len() {
		t.Fatalf("expected offset to consume the whole buffer (%d), got %d", buf.Len(), offset)
	}
	if decoded.Id != tmpl.Id || len(decoded.Fields) != len(tmpl.Fields) {
		t.Fatalf("expected decoded template to match %+v, got %+v", tmpl, decoded)
	}
}

func TestTemplateWithdrawalRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if _, err := EncodeWithdrawalTo(&buf, TemplateSetID, 256); err != nil {
		t.Fatal(err)
	}

	decoded, isWithdrawal, offset, err := DecodeTemplateFrom(buf.Bytes(), 0, TemplateSetID, testRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if !isWithdrawal {
		t.Fatal("expected a withdrawal record")
	}
	if decoded == nil || decoded.Id != 256 {
		t.Fatalf("expected withdrawal to carry the withdrawn template id, got %+v", decoded)
	}
	if offset != buf.Len() {
		t.Fatalf("expected offset to consume the whole buffer, got %d", offset)
	}
}

func TestTemplateNamedictRoundTrip(t *testing.T) {
	tmpl := testFlowTemplate()

	rec := Record{
		"sourceIPv4Address":      "10.0.0.1",
		"destinationIPv4Address": "10.0.0.2",
		"packetDeltaCount":       uint64(42),
	}

	encoded, err := tmpl.EncodeNamedictTo(rec)
	if err != nil {
		t.Fatal(err)
	}

	decoded, offset, err := tmpl.DecodeNamedictFrom(encoded, 0)
	if err != nil {
		t.Fatal(err)
	}
	if offset != len(encoded) {
		t.Fatalf("expected offset to consume the whole record, got %d of %d", offset, len(encoded))
	}
	if decoded["packetDeltaCount"].(uint64) != 42 {
		t.Fatalf("expected packetDeltaCount 42, got %v", decoded["packetDeltaCount"])
	}
}

func TestTemplateTupleRoundTrip(t *testing.T) {
	tmpl := testFlowTemplate()

	// Values must line up positionally with tmpl.Fields:
	// sourceIPv4Address, destinationIPv4Address, packetDeltaCount.
	values := []interface{}{"192.0.2.1", "192.0.2.2", uint64(7)}

	encoded, err := tmpl.EncodeTupleTo(values)
	if err != nil {
		t.Fatal(err)
	}

	ielist := []InformationElement{
		{Id: 2, Name: "packetDeltaCount", Type: "unsigned64"},
		{Id: 8, Name: "sourceIPv4Address", Type: "ipv4Address"},
	}
	decoded, _, err := tmpl.DecodeTupleFrom(encoded, 0, ielist)
	if err != nil {
		t.Fatal(err)
	}
	if decoded[0].(uint64) != 7 {
		t.Fatalf("expected first tuple value 7, got %v", decoded[0])
	}
	if !decoded[1].(net.IP).Equal(net.ParseIP("192.0.2.1")) {
		t.Fatalf("expected second tuple value 192.0.2.1, got %v", decoded[1])
	}
}

func TestTemplateHasIE(t *testing.T) {
	tmpl := testFlowTemplate()
	if !tmpl.HasIE(InformationElement{Id: 8}) {
		t.Fatal("expected template to contain sourceIPv4Address")
	}
	if tmpl.HasIE(InformationElement{Id: 999}) {
		t.Fatal("expected template not to contain an unrelated IE")
	}
}

func TestTemplateNativeSetID(t *testing.T) {
	tmpl := testFlowTemplate()
	if tmpl.NativeSetID() != TemplateSetID {
		t.Fatalf("expected regular template to use TemplateSetID, got %d", tmpl.NativeSetID())
	}

	options := &Template{Id: 300, Fields: tmpl.Fields, ScopeFieldCount: 1}
	if options.NativeSetID() != OptionsTemplateSetID {
		t.Fatalf("expected options template to use OptionsTemplateSetID, got %d", options.NativeSetID())
	}
}
