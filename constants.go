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
	"embed"
	"sync"
	"time"
)

const (
	// ProtocolVersion is the only IPFIX version this package speaks.
	ProtocolVersion uint16 = 10

	// MessageHeaderLength is the fixed size, in octets, of the Message Header.
	MessageHeaderLength uint16 = 16

	// SetHeaderLength is the fixed size, in octets, of a Set Header.
	SetHeaderLength uint16 = 4

	// MaxMessageLength is the largest permissible IPFIX Message, bounded by
	// the u16 length field in the Message Header.
	MaxMessageLength uint16 = 65535

	// TemplateSetID is the reserved Set ID for Template Sets.
	TemplateSetID uint16 = 2

	// OptionsTemplateSetID is the reserved Set ID for Options Template Sets.
	OptionsTemplateSetID uint16 = 3

	// MinDataSetID is the smallest Set ID that may be used by a Data Set;
	// it doubles as the smallest valid Template ID.
	MinDataSetID uint16 = 256
)

// ntpEpoch is the NTP era-0 epoch (RFC 7011 §6.1.9) that
// dateTimeMicroseconds/dateTimeNanoseconds values are counted from,
// shared by both data types so they agree on the same reference instant.
var ntpEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

//go:embed hack/ipfix-information-elements.csv
var embeddedIERegistry embed.FS

var (
	ianaOnce     sync.Once
	ianaIEs      map[uint16]*InformationElement
	ianaIEsError error
)

// DefaultIERegistry returns the package-wide Information Element registry
// parsed from the embedded IANA CSV on first use. Subsequent calls reuse
// the parsed map.
func DefaultIERegistry() (map[uint16]*InformationElement, error) {
	ianaOnce.Do(func() {
		f, err := embeddedIERegistry.ReadFile("hack/ipfix-information-elements.csv")
		if err != nil {
			ianaIEsError = err
			return
		}
		ianaIEs, ianaIEsError = ReadIERegistryCSV(bytes.NewReader(f))
	})
	return ianaIEs, ianaIEsError
}
