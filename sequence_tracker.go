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

import "sync"

// StreamKey scopes a SequenceTracker counter to one Observation Domain on
// one transport stream.
type StreamKey struct {
	ObservationDomainId uint32
	StreamId            string
}

// SequenceTracker maintains a monotonically increasing record counter per
// (Observation Domain, Stream) pair. A MessageBuffer snapshots the counter
// into its outgoing header at BeginExport and advances it once per
// successfully encoded or decoded record.
//
// The upstream implementation keeps this state inside the buffer itself,
// which the design notes call out as wrong for deployments running more
// than one MessageBuffer per stream: this package instead accepts an
// injected SequenceTracker (defaulting to a private, per-buffer instance)
// so that sharing across buffers is explicit at construction time.
type SequenceTracker interface {
	// Get returns the current counter value for key, 0 if unseen.
	Get(key StreamKey) uint32

	// Advance increments the counter for key by n and returns the
	// pre-increment value, the one that belongs in the message header
	// that carries the records being counted.
	Advance(key StreamKey, n uint32) uint32
}

// inMemorySequenceTracker is the default SequenceTracker: a mutex-guarded
// map, sufficient for a single process driving one or more MessageBuffers
// against the same counters.
type inMemorySequenceTracker struct {
	mu     sync.Mutex
	counts map[StreamKey]uint32
}

var _ SequenceTracker = &inMemorySequenceTracker{}

// NewSequenceTracker constructs the default in-memory SequenceTracker.
func NewSequenceTracker() SequenceTracker {
	return &inMemorySequenceTracker{counts: make(map[StreamKey]uint32)}
}

func (t *inMemorySequenceTracker) Get(key StreamKey) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[key]
}

func (t *inMemorySequenceTracker) Advance(key StreamKey, n uint32) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.counts[key]
	t.counts[key] = prev + n
	return prev
}
