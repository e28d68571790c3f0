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

import "strconv"

// decodeRecordFunc decodes one record of tmpl's Data Set starting at
// offset, returning the decoded value and the offset immediately past it.
type decodeRecordFunc func(tmpl *Template, buf []byte, offset int) (interface{}, int, error)

// recordIterator is the shared engine behind NamedictIterator and
// TupleIterator: a lazy, single-pass, non-restartable walk of a decoded
// MessageBuffer's SetList. It is not exported; NamedictIterator and
// TupleIterator wrap it to give Record() a concrete return type instead
// of interface{}.
type recordIterator struct {
	mb       *MessageBuffer
	acceptFn func(*Template) bool
	decodeFn decodeRecordFunc

	setIdx int

	curTmpl   *Template
	recOffset int
	setEnd    int

	rec      interface{}
	err      error
	finished bool
}

func newRecordIterator(mb *MessageBuffer, acceptFn func(*Template) bool, decodeFn decodeRecordFunc) *recordIterator {
	return &recordIterator{mb: mb, acceptFn: acceptFn, decodeFn: decodeFn}
}

// next advances the iterator. It returns false once the SetList is
// exhausted or a DecodeError has occurred; callers distinguish the two by
// checking Err() afterward.
func (it *recordIterator) next() bool {
	if it.finished {
		return false
	}

	for {
		if it.curTmpl != nil {
			if it.recOffset+int(it.curTmpl.MinLength()) <= it.setEnd {
				rec, newOffset, err := it.decodeFn(it.curTmpl, it.mb.buffer, it.recOffset)
				if err != nil {
					it.err = err
					it.finished = true
					return false
				}
				it.rec = rec
				it.recOffset = newOffset
				it.mb.sequences.Advance(it.mb.streamKey(), 1)
				RecordsDecodedTotal.WithLabelValues(strconv.Itoa(int(it.curTmpl.Id))).Inc()
				return true
			}
			it.curTmpl = nil
		}

		if it.setIdx >= len(it.mb.setList) {
			it.finished = true
			return false
		}
		entry := it.mb.setList[it.setIdx]
		it.setIdx++

		switch {
		case entry.SetID == TemplateSetID || entry.SetID == OptionsTemplateSetID:
			if err := it.mb.decodeTemplateSet(entry, it.acceptFn); err != nil {
				it.err = err
				it.finished = true
				return false
			}
		case entry.SetID < MinDataSetID:
			SetsSkippedTotal.WithLabelValues("reserved").Inc()
			it.mb.log.V(1).Info("skipping reserved set", "setId", entry.SetID)
		default:
			key := TemplateKey{ObservationDomainId: it.mb.odid, TemplateId: entry.SetID}
			if _, accepted := it.mb.acceptedTIDs[key]; !accepted {
				SetsSkippedTotal.WithLabelValues("not_accepted").Inc()
				continue
			}
			tmpl, err := it.mb.templates.Get(it.mb.ctx, key)
			if err != nil {
				// a conformant receiver tolerates a Data Set whose Template
				// it never saw; a future extension could buffer it pending
				// a later Template instead of dropping it here.
				SetsSkippedTotal.WithLabelValues("template_missing").Inc()
				it.mb.log.V(1).Info("skipping data set with unknown template", "templateId", entry.SetID)
				continue
			}
			it.curTmpl = tmpl
			it.recOffset = entry.Offset + int(SetHeaderLength)
			it.setEnd = entry.Offset + int(entry.Length)
		}
	}
}

func (it *recordIterator) lastErr() error {
	return it.err
}

// NamedictIterator yields Data Set records as field-name → value maps. It
// accepts every Template it encounters.
type NamedictIterator struct {
	core *recordIterator
}

// NamedictIterator returns an iterator over every Data Set record in the
// buffer's decoded message, against every Template observed along the
// way.
func (b *MessageBuffer) NamedictIterator() *NamedictIterator {
	core := newRecordIterator(b, func(*Template) bool { return true }, func(tmpl *Template, buf []byte, offset int) (interface{}, int, error) {
		return tmpl.DecodeNamedictFrom(buf, offset)
	})
	return &NamedictIterator{core: core}
}

// Next advances the iterator, reporting whether a record is available via
// Record.
func (it *NamedictIterator) Next() bool { return it.core.next() }

// Record returns the most recently decoded record. Valid only after Next
// returns true.
func (it *NamedictIterator) Record() Record {
	rec, _ := it.core.rec.(Record)
	return rec
}

// Err returns the first DecodeError encountered, if any, once Next
// returns false.
func (it *NamedictIterator) Err() error { return it.core.lastErr() }

// TupleIterator yields Data Set records as ordered value slices matching
// a fixed list of Information Elements, skipping any Data Set whose
// Template does not carry every requested IE. The same MessageBuffer must
// not mix NamedictIterator and TupleIterator use, nor use two different
// TupleIterator IE lists across resets, because acceptedTIDs is not reset
// between iterations.
type TupleIterator struct {
	core   *recordIterator
	ielist []InformationElement
}

// TupleIterator returns an iterator over Data Set records whose Template
// contains every IE in ielist, yielding values in ielist order.
func (b *MessageBuffer) TupleIterator(ielist []InformationElement) *TupleIterator {
	acceptFn := func(t *Template) bool {
		for _, ie := range ielist {
			if !t.HasIE(ie) {
				return false
			}
		}
		return true
	}
	core := newRecordIterator(b, acceptFn, func(tmpl *Template, buf []byte, offset int) (interface{}, int, error) {
		return tmpl.DecodeTupleFrom(buf, offset, ielist)
	})
	return &TupleIterator{core: core, ielist: ielist}
}

// Next advances the iterator, reporting whether a record is available via
// Record.
func (it *TupleIterator) Next() bool { return it.core.next() }

// Record returns the most recently decoded tuple, in the TupleIterator's
// IE order. Valid only after Next returns true.
func (it *TupleIterator) Record() []interface{} {
	vals, _ := it.core.rec.([]interface{})
	return vals
}

// Err returns the first DecodeError encountered, if any, once Next
// returns false.
func (it *TupleIterator) Err() error { return it.core.lastErr() }
