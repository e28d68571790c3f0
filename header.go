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

import "encoding/binary"

// MessageHeader is the fixed 16-octet header every IPFIX Message begins
// with (RFC 7011 §3.1).
type MessageHeader struct {
	Version             uint16
	Length              uint16
	ExportTime          uint32
	SequenceNumber      uint32
	ObservationDomainId uint32
}

func (h *MessageHeader) encodeTo(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], h.Version)
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	binary.BigEndian.PutUint32(b[4:8], h.ExportTime)
	binary.BigEndian.PutUint32(b[8:12], h.SequenceNumber)
	binary.BigEndian.PutUint32(b[12:16], h.ObservationDomainId)
}

func decodeMessageHeader(b []byte) MessageHeader {
	return MessageHeader{
		Version:             binary.BigEndian.Uint16(b[0:2]),
		Length:              binary.BigEndian.Uint16(b[2:4]),
		ExportTime:          binary.BigEndian.Uint32(b[4:8]),
		SequenceNumber:      binary.BigEndian.Uint32(b[8:12]),
		ObservationDomainId: binary.BigEndian.Uint32(b[12:16]),
	}
}

// SetHeader is the fixed 4-octet header every Set begins with (RFC 7011
// §3.3.2).
type SetHeader struct {
	Id     uint16
	Length uint16
}

func (sh *SetHeader) encodeTo(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], sh.Id)
	binary.BigEndian.PutUint16(b[2:4], sh.Length)
}

func decodeSetHeader(b []byte) SetHeader {
	return SetHeader{
		Id:     binary.BigEndian.Uint16(b[0:2]),
		Length: binary.BigEndian.Uint16(b[2:4]),
	}
}
