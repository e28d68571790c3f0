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
	"sync"
)

// EphemeralRegistry is the default in-process TemplateRegistry. It is
// memory-safe via a single RWMutex guarding the whole map, does not expire
// entries on its own, and does not persist anything across process
// restarts. This is the registry a MessageBuffer constructs for itself
// unless one is supplied explicitly.
type EphemeralRegistry struct {
	templates map[TemplateKey]*Template

	mu *sync.RWMutex

	name string
}

var _ TemplateRegistry = &EphemeralRegistry{}

// NewDefaultEphemeralRegistry creates an in-memory registry named "default".
func NewDefaultEphemeralRegistry() *EphemeralRegistry {
	return NewNamedEphemeralRegistry("default")
}

func NewNamedEphemeralRegistry(name string) *EphemeralRegistry {
	return &EphemeralRegistry{
		templates: make(map[TemplateKey]*Template),
		mu:        &sync.RWMutex{},
		name:      name,
	}
}

func (r *EphemeralRegistry) GetAll(ctx context.Context) map[TemplateKey]*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[TemplateKey]*Template, len(r.templates))
	for k, v := range r.templates {
		out[k] = v
	}
	return out
}

func (r *EphemeralRegistry) Get(ctx context.Context, key TemplateKey) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, ok := r.templates[key]
	if !ok {
		return nil, newTemplateNotFoundError(key.ObservationDomainId, key.TemplateId)
	}
	return template, nil
}

func (r *EphemeralRegistry) Delete(ctx context.Context, key TemplateKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.templates, key)
	return nil
}

func (r *EphemeralRegistry) Add(ctx context.Context, key TemplateKey, template *Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates[key] = template
	return nil
}

func (r *EphemeralRegistry) Type() string {
	return "ephemeral"
}

func (r *EphemeralRegistry) Name() string {
	return r.name
}

func (r *EphemeralRegistry) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := make(map[string]interface{}, len(r.templates))
	for k, v := range r.templates {
		s[k.String()] = v
	}
	return json.Marshal(s)
}

// SharedEphemeralRegistry adapts EphemeralRegistry into a
// StatefulTemplateRegistry by adding no-op lifecycle hooks, so it can sit
// underneath a distributed registry (such as the etcd addon) that needs
// something to own Start/Close.
type SharedEphemeralRegistry struct {
	*EphemeralRegistry
}

var _ StatefulTemplateRegistry = &SharedEphemeralRegistry{}

// NewSharedEphemeralRegistry wraps a new named EphemeralRegistry for use
// under a distributed TemplateRegistry layer.
func NewSharedEphemeralRegistry(name string) *SharedEphemeralRegistry {
	return &SharedEphemeralRegistry{EphemeralRegistry: NewNamedEphemeralRegistry(name)}
}

// Start blocks until ctx is cancelled; the ephemeral registry itself has no
// background work to run.
func (r *SharedEphemeralRegistry) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Close is a no-op: the ephemeral registry holds no external resources.
func (r *SharedEphemeralRegistry) Close(ctx context.Context) error {
	return nil
}
