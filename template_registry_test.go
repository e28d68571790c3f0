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
	"context"
	"testing"
)

func TestTemplateKeyTextRoundTrip(t *testing.T) {
	key := NewTemplateKey(7, 256)
	text, err := key.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var got TemplateKey
	if err := got.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if got != key {
		t.Fatalf("expected %+v, got %+v", key, got)
	}
}

func TestTemplateKeyUnmarshalTextRejectsMalformed(t *testing.T) {
	var key TemplateKey
	if err := key.UnmarshalText([]byte("not-a-valid-key-at-all")); err == nil {
		t.Fatal("expected an error for a malformed template key")
	}
}

func TestEphemeralRegistryAddGetDelete(t *testing.T) {
	r := NewDefaultEphemeralRegistry()
	ctx := context.Background()
	key := NewTemplateKey(1, 256)
	tmpl := flowTemplate(256)

	if _, err := r.Get(ctx, key); err == nil {
		t.Fatal("expected an error looking up a template before it was added")
	}

	if err := r.Add(ctx, key, tmpl); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.Id != tmpl.Id {
		t.Fatalf("expected to retrieve template %d, got %d", tmpl.Id, got.Id)
	}

	if err := r.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(ctx, key); err == nil {
		t.Fatal("expected template to be gone after Delete")
	}
}

func TestSequenceTrackerAdvance(t *testing.T) {
	tracker := NewSequenceTracker()
	key := StreamKey{ObservationDomainId: 1, StreamId: "default"}

	if got := tracker.Get(key); got != 0 {
		t.Fatalf("expected initial counter to be 0, got %d", got)
	}

	prev := tracker.Advance(key, 5)
	if prev != 0 {
		t.Fatalf("expected pre-increment value 0, got %d", prev)
	}
	if got := tracker.Get(key); got != 5 {
		t.Fatalf("expected counter to be 5 after advancing by 5, got %d", got)
	}

	prev = tracker.Advance(key, 3)
	if prev != 5 {
		t.Fatalf("expected pre-increment value 5, got %d", prev)
	}
	if got := tracker.Get(key); got != 8 {
		t.Fatalf("expected counter to be 8, got %d", got)
	}
}
