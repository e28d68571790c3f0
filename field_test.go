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
	"testing"
)

func testUnsigned32IE() InformationElement {
	return InformationElement{Id: 1, Name: "octetDeltaCount", Type: "unsigned32"}
}

func TestFieldFixedLengthRoundTrip(t *testing.T) {
	f := NewField(testUnsigned32IE())
	if f.IsVariableLength() {
		t.Fatal("expected fixed-length field")
	}
	if f.MinLength() != 4 {
		t.Fatalf("expected MinLength 4, got %d", f.MinLength())
	}

	dt, _ := f.IE.NewDataType()
	dt.SetValue(1234)

	var buf bytes.Buffer
	n, err := f.Encode(&buf, dt)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 || buf.Len() != 4 {
		t.Fatalf("expected 4 encoded bytes, got %d (buf len %d)", n, buf.Len())
	}

	decoded, m, err := f.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if m != 4 {
		t.Fatalf("expected 4 decoded bytes, got %d", m)
	}
	if decoded.Value().(uint32) != 1234 {
		t.Fatalf("expected value 1234, got %v", decoded.Value())
	}
}

func TestFieldReducedLength(t *testing.T) {
	f := NewReducedLengthField(testUnsigned32IE(), 2)
	if f.MinLength() != 2 {
		t.Fatalf("expected MinLength 2, got %d", f.MinLength())
	}

	dt, _ := f.IE.NewDataType()
	dt.SetValue(42)

	var buf bytes.Buffer
	if _, err := f.Encode(&buf, dt); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2 {
		t.Fatalf("expected 2 encoded bytes for reduced-length field, got %d", buf.Len())
	}

	decoded, _, err := f.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Value().(uint32) != 42 {
		t.Fatalf("expected value 42, got %v", decoded.Value())
	}
}

func TestFieldVariableLengthShortForm(t *testing.T) {
	ie := InformationElement{Id: 13, Name: "interfaceName", Type: "string"}
	f := NewVariableLengthField(ie)
	if !f.IsVariableLength() {
		t.Fatal("expected variable-length field")
	}
	if f.MinLength() != 1 {
		t.Fatalf("expected MinLength 1 for variable-length field, got %d", f.MinLength())
	}

	dt, _ := f.IE.NewDataType()
	dt.SetValue("eth0")

	var buf bytes.Buffer
	n, err := f.Encode(&buf, dt)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 { // 1-byte length prefix + 4 payload bytes
		t.Fatalf("expected 5 encoded bytes, got %d", n)
	}

	decoded, _, err := f.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Value().(string) != "eth0" {
		t.Fatalf("expected value eth0, got %v", decoded.Value())
	}
}

func TestFieldVariableLengthLongForm(t *testing.T) {
	ie := InformationElement{Id: 13, Name: "interfaceName", Type: "string"}
	f := NewVariableLengthField(ie)

	long := bytes.Repeat([]byte("a"), 300)
	dt, _ := f.IE.NewDataType()
	dt.SetValue(string(long))

	var buf bytes.Buffer
	n, err := f.Encode(&buf, dt)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3+300 { // 0xFF + 2-byte length + payload
		t.Fatalf("expected long-form encoding of 303 bytes, got %d", n)
	}
	if buf.Bytes()[0] != 0xFF {
		t.Fatalf("expected long-form marker 0xFF, got %x", buf.Bytes()[0])
	}

	decoded, _, err := f.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Value().(string) != string(long) {
		t.Fatal("expected round-tripped long-form string to match input")
	}
}

func TestFieldEncLengthAccountsForEnterpriseBit(t *testing.T) {
	f := NewField(testUnsigned32IE())
	if f.EncLength() != 4 {
		t.Fatalf("expected EncLength 4 for IANA field, got %d", f.EncLength())
	}

	enterprise := InformationElement{Id: 1, Name: "custom", Type: "unsigned32", EnterpriseId: 12345}
	ef := NewField(enterprise)
	if ef.EncLength() != 8 {
		t.Fatalf("expected EncLength 8 for enterprise field, got %d", ef.EncLength())
	}
}
