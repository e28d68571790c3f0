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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TemplateRegistry stores Templates observed in, or registered with, an
// IPFIX session, keyed by (Observation Domain ID, Template ID).
//
// A MessageBuffer never owns its registry outright: the registry may be
// shared between an encoding and a decoding buffer operating on the same
// Observation Domain, or hoisted to a process-wide or distributed store
// (see addons/etcd) when more than one MessageBuffer serves a stream.
// Implementations do not have to perform active expiry; this package's
// default implementation never does.
type TemplateRegistry interface {
	// GetAll returns every Template currently held by the registry.
	GetAll(ctx context.Context) map[TemplateKey]*Template

	// Get returns the Template stored at key, or an error if absent.
	Get(ctx context.Context, key TemplateKey) (*Template, error)

	// Add registers template under key, replacing any prior entry.
	Add(ctx context.Context, key TemplateKey, template *Template) error

	// Delete removes the entry at key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key TemplateKey) error

	// Name returns the name of the registry instance set at construction.
	Name() string

	// Type returns the constant type of the registry implementation.
	Type() string

	json.Marshaler
}

// StatefulTemplateRegistry is implemented by registries backed by a
// stateful connection, such as the etcd-backed registry in addons/etcd.
//
// These Start/Close semantics are leftovers of the asynchronous collector
// architecture this package was factored out of; a registry backed by a
// plain in-memory map has nothing to start and implements both as no-ops.
type StatefulTemplateRegistry interface {
	TemplateRegistry

	// Start blocks for the lifetime of the registry's stateful connection.
	// It is meant to be run in its own goroutine by the caller.
	Start(context.Context) error

	Close(context.Context) error
}

// TemplateKey identifies a Template within the scope of an Observation
// Domain. Templates with the same TemplateId in different domains are
// unrelated.
type TemplateKey struct {
	ObservationDomainId uint32
	TemplateId          uint16
}

func NewTemplateKey(observationDomainId uint32, templateId uint16) TemplateKey {
	return TemplateKey{
		ObservationDomainId: observationDomainId,
		TemplateId:          templateId,
	}
}

const templateKeySeparator string = "-"

func (k TemplateKey) String() string {
	return fmt.Sprintf("%d%s%d", k.ObservationDomainId, templateKeySeparator, k.TemplateId)
}

func (k TemplateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TemplateKey) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), templateKeySeparator)
	if len(parts) != 2 {
		return errors.New("ipfix: template key format is invalid")
	}

	odid, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return fmt.Errorf("ipfix: observation domain id is invalid: %w", err)
	}
	tid, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return fmt.Errorf("ipfix: template id is invalid: %w", err)
	}

	k.ObservationDomainId = uint32(odid)
	k.TemplateId = uint16(tid)
	return nil
}
