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

// SetEntry is one decode-time index entry describing a single Set found
// while scanning a received Message: its byte offset (from the start of
// the Message, Set Header included), its Set ID, and its total length
// (Set Header included).
type SetEntry struct {
	Offset int
	SetID  uint16
	Length uint16
}

// SetList is the ordered index of Sets built by scanning a decoded
// Message. It exposes no policy: MessageBuffer.scanSetList populates it,
// and iteration walks it in order.
type SetList []SetEntry
