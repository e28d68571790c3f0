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
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ieRegistrySnapshot is the on-disk YAML shape for a dump of the
// Information Element registry: a title, the time the dump was taken,
// and the elements themselves in no particular order.
type ieRegistrySnapshot struct {
	Title    string
	Snapshot time.Time
	Elements []*InformationElement `yaml:"elements"`
}

// MustReadYAML is ReadYAML but panics instead of returning an error,
// for callers loading a registry at program startup.
func MustReadYAML(r io.Reader) map[uint16]*InformationElement {
	m, err := ReadYAML(r)
	if err != nil {
		panic(err)
	}
	return m
}

// ReadYAML loads a registry snapshot written by WriteYAML back into an
// Information Element lookup table keyed by element ID.
func ReadYAML(r io.Reader) (map[uint16]*InformationElement, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var snap ieRegistrySnapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}

	registry := make(map[uint16]*InformationElement, len(snap.Elements))
	for _, el := range snap.Elements {
		registry[uint16(el.Id)] = el
	}
	return registry, nil
}

// MustWriteYAML is WriteYAML but panics instead of returning an error.
func MustWriteYAML(w io.Writer, registry map[uint16]*InformationElement) {
	if err := WriteYAML(w, registry); err != nil {
		panic(err)
	}
}

// WriteYAML serializes an Information Element lookup table as a
// timestamped YAML snapshot, restoring each element's ID field from
// its map key before encoding.
func WriteYAML(w io.Writer, registry map[uint16]*InformationElement) error {
	elements := make([]*InformationElement, 0, len(registry))
	for id, el := range registry {
		el.Id = id
		elements = append(elements, el)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	return enc.Encode(ieRegistrySnapshot{
		Title:    "IP Flow Information Export (IPFIX) Entities",
		Snapshot: time.Now(),
		Elements: elements,
	})
}
