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

func TestMessageHeaderRoundTrip(t *testing.T) {
	h := MessageHeader{
		Version:             ProtocolVersion,
		Length:              64,
		ExportTime:          1700000000,
		SequenceNumber:      7,
		ObservationDomainId: 99,
	}
	b := make([]byte, MessageHeaderLength)
	h.encodeTo(b)

	got := decodeMessageHeader(b)
	if got != h {
		t.Fatalf("expected %+v, got %+v", h, got)
	}
}

func TestSetHeaderRoundTrip(t *testing.T) {
	sh := SetHeader{Id: 256, Length: 40}
	b := make([]byte, SetHeaderLength)
	sh.encodeTo(b)

	got := decodeSetHeader(b)
	if got != sh {
		t.Fatalf("expected %+v, got %+v", sh, got)
	}
}
