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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadIERegistryCSV parses an Information Element registry in the 11-column
// format this package embeds by default (id, name, type, semantics,
// status, description, units, range, additionalInformation, reference,
// revision) and returns it keyed by IE id. A row naming an unrecognized
// abstract data type is kept in the map with a nil Constructor; it fails
// only if a Template later tries to build a field from it.
func ReadIERegistryCSV(r io.Reader) (map[uint16]*InformationElement, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1

	if _, err := csvReader.Read(); err != nil {
		return nil, fmt.Errorf("ipfix: reading ie registry header: %w", err)
	}

	fieldMap := make(map[uint16]*InformationElement)

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ipfix: reading ie registry row: %w", err)
		}
		if len(record) < 11 {
			continue
		}

		field := &InformationElement{}

		id, err := strconv.ParseUint(record[0], 10, 16)
		if err != nil {
			continue
		}
		field.Id = uint16(id)
		field.Name = record[1]

		if typ := record[2]; typ != "" {
			field.Type = typ
			if c, err := LookupConstructor(typ); err == nil {
				field.Constructor = c
			}
		}

		if sem := record[3]; sem != "" {
			_ = field.Semantics.UnmarshalText([]byte(sem))
		}
		if stat := record[4]; stat != "" {
			_ = field.Status.UnmarshalText([]byte(stat))
		}

		field.Description = record[5]
		field.Units = record[6]

		if fr := strings.Split(record[7], "-"); len(fr) == 2 {
			field.Range = &InformationElementRange{
				Low:  parseRangeBound(fr[0]),
				High: parseRangeBound(fr[1]),
			}
		}

		field.AdditionalInformation = record[8]
		field.Reference = record[9]

		if rev := record[10]; rev != "" {
			if r, err := strconv.Atoi(rev); err == nil {
				field.Revision = r
			}
		}

		fieldMap[field.Id] = field
	}

	return fieldMap, nil
}

func parseRangeBound(s string) int {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		v, _ := strconv.ParseInt(s, 16, 64)
		return int(v)
	}
	v, _ := strconv.Atoi(s)
	return v
}
