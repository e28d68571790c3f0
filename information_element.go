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
	"encoding/json"

	"github.com/flowforge/ipfixcodec/iana/semantics"
	"github.com/flowforge/ipfixcodec/iana/status"
)

// InformationElementRange captures the valid value range as published by
// the IANA registry, when the registry states one.
type InformationElementRange struct {
	Low  int `json:"low,omitempty" yaml:"low,omitempty"`
	High int `json:"high,omitempty" yaml:"high,omitempty"`
}

func (r *InformationElementRange) Clone() *InformationElementRange {
	if r == nil {
		return nil
	}
	return &InformationElementRange{Low: r.Low, High: r.High}
}

// InformationElement is one row of the IANA IPFIX Information Element
// registry: a named, typed, enterprise-qualified field definition. A
// Template's field list is an ordered sequence of InformationElements;
// an IE registry (a map[uint16]*InformationElement keyed by id, see
// DefaultIERegistry) is the lookup consulted when decoding one.
type InformationElement struct {
	Constructor DataTypeConstructor `json:"-" yaml:"-"`

	Id           uint16 `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	EnterpriseId uint32 `json:"pen,omitempty" yaml:"pen,omitempty"`

	Semantics semantics.Semantic `json:"semantics,omitempty" yaml:"semantics,omitempty"`
	Status    status.Status      `json:"status,omitempty" yaml:"status,omitempty"`

	Type                  string                   `json:"type,omitempty" yaml:"type,omitempty"`
	Description           string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Units                 string                   `json:"units,omitempty" yaml:"units,omitempty"`
	Range                 *InformationElementRange `json:"range,omitempty" yaml:"range,omitempty"`
	AdditionalInformation string                   `json:"additionalInformation,omitempty" yaml:"additionalInformation,omitempty"`
	Reference             string                   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Revision              int                      `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// IsEnterprise reports whether this IE is enterprise-specific, i.e. its id
// carries the enterprise bit (RFC 7011 §3.2) or it has a non-zero
// EnterpriseId.
func (i InformationElement) IsEnterprise() bool {
	return IsEnterpriseField(i.Id) || i.EnterpriseId != 0
}

func (i InformationElement) String() string {
	b, err := json.Marshal(i)
	if err != nil {
		return i.Name
	}
	return string(b)
}

func (i *InformationElement) Clone() InformationElement {
	ie := *i
	ie.Range = i.Range.Clone()
	return ie
}

// NewDataType constructs a fresh DataType for this IE using its registered
// Constructor, which ReadIERegistryCSV populates from the Type field; an
// unset Constructor is resolved from Type via LookupConstructor.
func (i *InformationElement) NewDataType() (DataType, error) {
	if i.Constructor != nil {
		return i.Constructor(), nil
	}
	c, err := LookupConstructor(i.Type)
	if err != nil {
		return nil, err
	}
	i.Constructor = c
	return c(), nil
}

func (i *InformationElement) UnmarshalJSON(in []byte) error {
	type alias InformationElement
	a := alias{}
	if err := json.Unmarshal(in, &a); err != nil {
		return err
	}
	*i = InformationElement(a)
	if i.Type == "" {
		return nil
	}
	c, err := LookupConstructor(i.Type)
	if err != nil {
		// an unrecognized type is tolerated at load time; NewDataType will
		// surface the error only if a Template ever tries to use this IE.
		return nil
	}
	i.Constructor = c
	return nil
}
