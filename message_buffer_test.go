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
	"errors"
	"net"
	"testing"
	"time"
)

func flowTemplate(id uint16) *Template {
	return &Template{
		Id: id,
		Fields: []Field{
			NewField(InformationElement{Id: 8, Name: "sourceIPv4Address", Type: "ipv4Address"}),
			NewField(InformationElement{Id: 12, Name: "destinationIPv4Address", Type: "ipv4Address"}),
			NewField(InformationElement{Id: 2, Name: "packetDeltaCount", Type: "unsigned64"}),
		},
	}
}

// TestEncodeDecodeRoundTrip exercises S2 from the concrete scenarios: begin
// a message, add a template with export, open a data set, append a couple
// of records, serialize, then decode the exact same bytes back out again.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}

	if err := enc.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(256)
	if err := enc.AddTemplate(tmpl, true); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportEnsureSet(256); err != nil {
		t.Fatal(err)
	}
	records := []Record{
		{"sourceIPv4Address": "10.0.0.1", "destinationIPv4Address": "10.0.0.2", "packetDeltaCount": uint64(1)},
		{"sourceIPv4Address": "10.0.0.3", "destinationIPv4Address": "10.0.0.4", "packetDeltaCount": uint64(2)},
	}
	for _, rec := range records {
		if err := enc.ExportNamedict(rec); err != nil {
			t.Fatal(err)
		}
	}
	raw, err := enc.ToBytes()
	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.FromBytes(raw); err != nil {
		t.Fatal(err)
	}

	it := dec.NamedictIterator()
	count := 0
	for it.Next() {
		rec := it.Record()
		if !rec["sourceIPv4Address"].(net.IP).Equal(net.ParseIP(records[count]["sourceIPv4Address"].(string))) {
			t.Fatalf("record %d: unexpected sourceIPv4Address %v", count, rec["sourceIPv4Address"])
		}
		if rec["packetDeltaCount"].(uint64) != records[count]["packetDeltaCount"].(uint64) {
			t.Fatalf("record %d: unexpected packetDeltaCount %v", count, rec["packetDeltaCount"])
		}
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	if count != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), count)
	}
}

// TestExportRecordWithoutOpenSetFails exercises the EncodeError path: a
// caller must open a Data Set before appending records to it.
func TestExportRecordWithoutOpenSetFails(t *testing.T) {
	b, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.BeginExport(); err != nil {
		t.Fatal(err)
	}

	err = b.ExportNamedict(Record{"sourceIPv4Address": "10.0.0.1"})
	if !errors.Is(err, ErrEncodeError) {
		t.Fatalf("expected ErrEncodeError, got %v", err)
	}
}

// TestEndOfMessageRollback exercises S3: when a record does not fit
// within the MTU, the buffer rolls back to the last successfully appended
// record instead of leaving a partially written one behind.
func TestEndOfMessageRollback(t *testing.T) {
	b, err := NewMessageBuffer(1, WithMTU(MessageHeaderLength+SetHeaderLength+21))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(256)
	if err := b.AddTemplate(tmpl, false); err != nil {
		t.Fatal(err)
	}
	if err := b.ExportEnsureSet(256); err != nil {
		t.Fatal(err)
	}

	rec := Record{"sourceIPv4Address": "10.0.0.1", "destinationIPv4Address": "10.0.0.2", "packetDeltaCount": uint64(1)}
	if err := b.ExportNamedict(rec); err != nil {
		t.Fatal(err)
	}
	lengthAfterFirst := b.length

	err = b.ExportNamedict(rec)
	if !errors.Is(err, ErrEndOfMessage) {
		t.Fatalf("expected ErrEndOfMessage, got %v", err)
	}
	if b.length != lengthAfterFirst {
		t.Fatalf("expected buffer length to roll back to %d after EndOfMessage, got %d", lengthAfterFirst, b.length)
	}

	raw, err := b.ToBytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != lengthAfterFirst {
		t.Fatalf("expected finalized message to be %d bytes, got %d", lengthAfterFirst, len(raw))
	}
}

// TestDeleteTemplateWithdrawal exercises adding then withdrawing a template
// within the same message, and confirms the registry forgets it.
func TestDeleteTemplateWithdrawal(t *testing.T) {
	b, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(256)
	if err := b.AddTemplate(tmpl, true); err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteTemplate(256, true); err != nil {
		t.Fatal(err)
	}

	if _, err := b.templates.Get(b.ctx, TemplateKey{ObservationDomainId: 1, TemplateId: 256}); err == nil {
		t.Fatal("expected template to be gone from the registry after DeleteTemplate")
	}

	raw, err := b.ToBytes()
	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.FromBytes(raw); err != nil {
		t.Fatal(err)
	}
	// decoding the Template Set registers and then withdraws template 256
	it := dec.NamedictIterator()
	for it.Next() {
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	if _, err := dec.templates.Get(dec.ctx, TemplateKey{ObservationDomainId: 1, TemplateId: 256}); err == nil {
		t.Fatal("expected decoder to also forget the withdrawn template")
	}
}

// TestDecodeUnknownTemplateIsSkippedNotFatal exercises the receiver
// robustness requirement: a Data Set referencing a Template the decoder
// never saw is skipped, not treated as a fatal DecodeError.
func TestDecodeUnknownTemplateIsSkippedNotFatal(t *testing.T) {
	enc, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(300)
	// Register the template locally without exporting its descriptor, so
	// the encoded message carries a Data Set with no matching Template Set.
	if err := enc.AddTemplate(tmpl, false); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportEnsureSet(300); err != nil {
		t.Fatal(err)
	}
	rec := Record{"sourceIPv4Address": "10.0.0.1", "destinationIPv4Address": "10.0.0.2", "packetDeltaCount": uint64(1)}
	if err := enc.ExportNamedict(rec); err != nil {
		t.Fatal(err)
	}
	raw, err := enc.ToBytes()
	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.FromBytes(raw); err != nil {
		t.Fatal(err)
	}

	it := dec.NamedictIterator()
	for it.Next() {
		t.Fatal("expected no records to be yielded for an unknown template")
	}
	if it.Err() != nil {
		t.Fatalf("expected no fatal error, got %v", it.Err())
	}
}

// TestReadMessageEndOfStream exercises ReadMessage against an exhausted
// stream: a clean EOF before any bytes are read must surface as
// ErrEndOfStream, not a DecodeError.
func TestReadMessageEndOfStream(t *testing.T) {
	b, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	err = b.ReadMessage(bytes.NewReader(nil))
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

// TestWriteMessageReadMessage exercises the streaming entry points back to
// back against an in-memory pipe-like buffer.
func TestWriteMessageReadMessage(t *testing.T) {
	enc, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(256)
	if err := enc.AddTemplate(tmpl, true); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportEnsureSet(256); err != nil {
		t.Fatal(err)
	}
	rec := Record{"sourceIPv4Address": "10.0.0.1", "destinationIPv4Address": "10.0.0.2", "packetDeltaCount": uint64(9)}
	if err := enc.ExportNamedict(rec); err != nil {
		t.Fatal(err)
	}

	var wire bytes.Buffer
	if err := enc.WriteMessage(&wire); err != nil {
		t.Fatal(err)
	}

	dec, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.ReadMessage(&wire); err != nil {
		t.Fatal(err)
	}

	it := dec.NamedictIterator()
	if !it.Next() {
		t.Fatal("expected one record")
	}
	if it.Record()["packetDeltaCount"].(uint64) != 9 {
		t.Fatalf("expected packetDeltaCount 9, got %v", it.Record()["packetDeltaCount"])
	}
}

// TestNeedsFlushAndExportTime exercises the pending-content check and the
// Export Time getter/setter pair.
func TestNeedsFlushAndExportTime(t *testing.T) {
	b, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if b.NeedsFlush() {
		t.Fatal("expected a fresh buffer to not need a flush")
	}

	if err := b.BeginExport(); err != nil {
		t.Fatal(err)
	}
	if b.NeedsFlush() {
		t.Fatal("expected an empty, just-begun message to not need a flush")
	}

	fixed := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	b.SetExportTime(fixed)
	if !b.ExportTime().Equal(fixed) {
		t.Fatalf("expected ExportTime to return %v, got %v", fixed, b.ExportTime())
	}

	tmpl := flowTemplate(256)
	if err := b.AddTemplate(tmpl, true); err != nil {
		t.Fatal(err)
	}
	if !b.NeedsFlush() {
		t.Fatal("expected a buffer with an exported template to need a flush")
	}
}

// TestExportTupleRoundTrip exercises ExportTuple: values given positionally,
// in the currently open Data Set's Template field order, round-trip the
// same way ExportNamedict's by-name values do.
func TestExportTupleRoundTrip(t *testing.T) {
	enc, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(256)
	if err := enc.AddTemplate(tmpl, true); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportEnsureSet(256); err != nil {
		t.Fatal(err)
	}

	// sourceIPv4Address, destinationIPv4Address, packetDeltaCount, in that
	// template field order.
	values := []interface{}{"10.0.0.1", "10.0.0.2", uint64(5)}
	if err := enc.ExportTuple(values); err != nil {
		t.Fatal(err)
	}

	raw, err := enc.ToBytes()
	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.FromBytes(raw); err != nil {
		t.Fatal(err)
	}

	it := dec.NamedictIterator()
	if !it.Next() {
		t.Fatal("expected one record")
	}
	rec := it.Record()
	if !rec["sourceIPv4Address"].(net.IP).Equal(net.ParseIP("10.0.0.1")) {
		t.Fatalf("expected sourceIPv4Address 10.0.0.1, got %v", rec["sourceIPv4Address"])
	}
	if rec["packetDeltaCount"].(uint64) != 5 {
		t.Fatalf("expected packetDeltaCount 5, got %v", rec["packetDeltaCount"])
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
}

// TestExportTupleWrongArityFails exercises ExportTuple's arity check: the
// value count must match the open Template's field count exactly, since
// field order is now derived from the Template rather than a caller-given
// Information Element list.
func TestExportTupleWrongArityFails(t *testing.T) {
	enc, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.BeginExport(); err != nil {
		t.Fatal(err)
	}
	tmpl := flowTemplate(256)
	if err := enc.AddTemplate(tmpl, true); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportEnsureSet(256); err != nil {
		t.Fatal(err)
	}

	err = enc.ExportTuple([]interface{}{"10.0.0.1"})
	if !errors.Is(err, ErrEncodeError) {
		t.Fatalf("expected ErrEncodeError, got %v", err)
	}
}

// TestFromBytesRejectsBadVersion exercises S5: a message whose first u16
// is not ProtocolVersion must be rejected as ErrDecodeError rather than
// parsed as if it were a valid IPFIX Message.
func TestFromBytesRejectsBadVersion(t *testing.T) {
	raw := make([]byte, MessageHeaderLength)
	binary.BigEndian.PutUint16(raw[0:2], 0x0009)
	binary.BigEndian.PutUint16(raw[2:4], uint16(MessageHeaderLength))

	b, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.FromBytes(raw); !errors.Is(err, ErrDecodeError) {
		t.Fatalf("expected ErrDecodeError, got %v", err)
	}
}

// TestFromBytesRejectsMalformedSetLength exercises S6: a Set Header whose
// Length field would run past the end of the Message must be rejected as
// ErrDecodeError instead of read out of bounds.
func TestFromBytesRejectsMalformedSetLength(t *testing.T) {
	raw := make([]byte, 24)
	binary.BigEndian.PutUint16(raw[0:2], ProtocolVersion)
	binary.BigEndian.PutUint16(raw[2:4], uint16(len(raw)))
	binary.BigEndian.PutUint16(raw[16:18], 256)
	binary.BigEndian.PutUint16(raw[18:20], 100)

	b, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.FromBytes(raw); !errors.Is(err, ErrDecodeError) {
		t.Fatalf("expected ErrDecodeError, got %v", err)
	}
}
