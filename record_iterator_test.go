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

import "testing"

// TestTupleIteratorFiltersByTemplate exercises the TupleIterator admission
// rule: only Data Sets whose Template carries every requested Information
// Element are yielded, even when multiple Templates are in play.
func TestTupleIteratorFiltersByTemplate(t *testing.T) {
	enc, err := NewMessageBuffer(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.BeginExport(); err != nil {
		t.Fatal(err)
	}

	wanted := flowTemplate(256)
	other := &Template{
		Id: 257,
		Fields: []Field{
			NewField(InformationElement{Id: 2, Name: "packetDeltaCount", Type: "unsigned64"}),
		},
	}

	if err := enc.AddTemplate(wanted, true); err != nil {
		t.Fatal(err)
	}
	if err := enc.AddTemplate(other, true); err != nil {
		t.Fatal(err)
	}

	if err := enc.ExportEnsureSet(256); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportNamedict(Record{
		"sourceIPv4Address":      "10.0.0.1",
		"destinationIPv4Address": "10.0.0.2",
		"packetDeltaCount":       uint64(5),
	}); err != nil {
		t.Fatal(err)
	}

	if err := enc.ExportEnsureSet(257); err != nil {
		t.Fatal(err)
	}
	if err := enc.ExportNamedict(Record{"packetDeltaCount": uint64(99)}); err != nil {
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

	ielist := []InformationElement{
		{Id: 8, Name: "sourceIPv4Address", Type: "ipv4Address"},
		{Id: 2, Name: "packetDeltaCount", Type: "unsigned64"},
	}
	it := dec.TupleIterator(ielist)
	count := 0
	for it.Next() {
		vals := it.Record()
		if vals[1].(uint64) != 5 {
			t.Fatalf("expected only the matching template's record to be yielded, got %v", vals[1])
		}
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 record from the matching template, got %d", count)
	}
}
