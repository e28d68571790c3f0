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
	"io"
	"strconv"
	"time"

	"github.com/go-logr/logr"
)

// MessageBuffer owns a single, reusable byte region and alternates between
// an encoding phase and a decoding phase over its lifetime. It fuses the
// protocol's framing rules, a per-Observation-Domain Template table, and
// an MTU-bounded append protocol into one state machine; see the package
// doc comment for the division of labor with Template and the IE
// registry.
//
// A MessageBuffer is not safe for concurrent use. Callers must serialize
// access externally; iterators returned by the decode methods borrow the
// buffer's bytes and must not outlive the next BeginExport, FromBytes, or
// ReadMessage call.
type MessageBuffer struct {
	buffer []byte
	length int

	mtu uint16

	odid     uint32
	streamID string

	sequence    uint32
	exportEpoch uint32

	autoExportTime bool

	setList SetList

	curSetOff int
	curSetID  *uint16
	curTmpl   *Template

	templates    TemplateRegistry
	sequences    SequenceTracker
	acceptedTIDs map[TemplateKey]struct{}

	ieRegistry map[uint16]*InformationElement

	ctx context.Context
	log logr.Logger
}

// Option configures a MessageBuffer at construction time.
type Option func(*MessageBuffer)

// WithMTU overrides the default MTU (MaxMessageLength).
func WithMTU(mtu uint16) Option {
	return func(b *MessageBuffer) { b.mtu = mtu }
}

// WithStreamID sets the opaque transport stream identifier used to key
// sequence counters.
func WithStreamID(streamID string) Option {
	return func(b *MessageBuffer) { b.streamID = streamID }
}

// WithAutoExportTime overrides the default (enabled) auto export-time
// behavior: when enabled, ToBytes refreshes the Export Time header field
// to wall-clock time unless SetExportTime was called explicitly since.
func WithAutoExportTime(enabled bool) Option {
	return func(b *MessageBuffer) { b.autoExportTime = enabled }
}

// WithTemplateRegistry supplies a TemplateRegistry to share between
// multiple MessageBuffers operating on the same Observation Domain, or a
// distributed implementation such as addons/etcd. The default is a fresh,
// unshared EphemeralRegistry.
func WithTemplateRegistry(registry TemplateRegistry) Option {
	return func(b *MessageBuffer) { b.templates = registry }
}

// WithSequenceTracker supplies a SequenceTracker to share across multiple
// MessageBuffers serving the same stream. The default is a fresh,
// unshared in-memory tracker, which is only correct for a single
// MessageBuffer per stream.
func WithSequenceTracker(tracker SequenceTracker) Option {
	return func(b *MessageBuffer) { b.sequences = tracker }
}

// WithIERegistry overrides the default embedded IANA Information Element
// registry used to resolve field identities while decoding Template Sets.
func WithIERegistry(registry map[uint16]*InformationElement) Option {
	return func(b *MessageBuffer) { b.ieRegistry = registry }
}

// WithContext binds the context.Context used for TemplateRegistry calls
// for the lifetime of the MessageBuffer. It defaults to context.Background.
func WithContext(ctx context.Context) Option {
	return func(b *MessageBuffer) { b.ctx = ctx }
}

// WithLogger overrides the logr.Logger used for receiver-robustness
// warnings (a skipped Set, a missing Template). Defaults to the package
// root logger.
func WithLogger(log logr.Logger) Option {
	return func(b *MessageBuffer) { b.log = log }
}

// NewMessageBuffer constructs a fresh MessageBuffer scoped to odid.
func NewMessageBuffer(odid uint32, opts ...Option) (*MessageBuffer, error) {
	ieRegistry, err := DefaultIERegistry()
	if err != nil {
		return nil, err
	}

	b := &MessageBuffer{
		buffer:         make([]byte, MaxMessageLength),
		mtu:            MaxMessageLength,
		odid:           odid,
		autoExportTime: true,
		templates:      NewDefaultEphemeralRegistry(),
		sequences:      NewSequenceTracker(),
		acceptedTIDs:   make(map[TemplateKey]struct{}),
		ieRegistry:     ieRegistry,
		ctx:            context.Background(),
		log:            Log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *MessageBuffer) streamKey() StreamKey {
	return StreamKey{ObservationDomainId: b.odid, StreamId: b.streamID}
}

func (b *MessageBuffer) lookupIE(id uint16) (InformationElement, bool) {
	ie, ok := b.ieRegistry[id]
	if !ok {
		return InformationElement{}, false
	}
	return *ie, true
}

// cursor is a snapshot of everything BeginExport-phase append operations
// can mutate, taken before an operation that might overflow the MTU so it
// can be restored verbatim on EndOfMessage.
type cursor struct {
	length    int
	curSetOff int
	curSetID  *uint16
	curTmpl   *Template
}

func (b *MessageBuffer) snapshot() cursor {
	return cursor{length: b.length, curSetOff: b.curSetOff, curSetID: b.curSetID, curTmpl: b.curTmpl}
}

func (b *MessageBuffer) restore(c cursor) {
	b.length = c.length
	b.curSetOff = c.curSetOff
	b.curSetID = c.curSetID
	b.curTmpl = c.curTmpl
}

// BeginExport enters the encoding phase. If odid is given, it overrides
// the Observation Domain ID for this and all subsequent messages from
// this buffer.
func (b *MessageBuffer) BeginExport(odid ...uint32) error {
	if b.mtu < MessageHeaderLength {
		return newEncodeError("mtu is smaller than the message header")
	}
	if len(odid) > 0 {
		b.odid = odid[0]
	}

	b.setList = nil
	b.curSetOff = 0
	b.curSetID = nil
	b.curTmpl = nil

	b.sequence = b.sequences.Get(b.streamKey())

	for i := range b.buffer[:MessageHeaderLength] {
		b.buffer[i] = 0
	}
	b.length = int(MessageHeaderLength)
	return nil
}

// AddTemplate registers tmpl under (odid, tmpl.Id). When export is true,
// it is also immediately written into the current message's Template Set
// (or Options Template Set, per tmpl.NativeSetID), opening one if needed.
func (b *MessageBuffer) AddTemplate(tmpl *Template, export bool) error {
	key := TemplateKey{ObservationDomainId: b.odid, TemplateId: tmpl.Id}
	if err := b.templates.Add(b.ctx, key, tmpl); err != nil {
		return err
	}
	if !export {
		return nil
	}

	snap := b.snapshot()
	if err := b.ExportEnsureSet(tmpl.NativeSetID()); err != nil {
		b.restore(snap)
		return err
	}
	if b.length+int(tmpl.EncLength()) > int(b.mtu) {
		b.restore(snap)
		EndOfMessageTotal.Inc()
		return newEndOfMessageError("template descriptor does not fit in mtu")
	}

	n, err := tmpl.EncodeTemplateTo(&sliceWriter{buf: b.buffer, pos: b.length})
	if err != nil {
		b.restore(snap)
		return err
	}
	b.length += n
	return nil
}

// DeleteTemplate removes the registry entry for tid. When export is true,
// a Template Withdrawal record is also written into the current message.
func (b *MessageBuffer) DeleteTemplate(tid uint16, export bool) error {
	key := TemplateKey{ObservationDomainId: b.odid, TemplateId: tid}

	setID := TemplateSetID
	if existing, err := b.templates.Get(b.ctx, key); err == nil {
		setID = existing.NativeSetID()
	}

	if err := b.templates.Delete(b.ctx, key); err != nil {
		return err
	}
	if !export {
		return nil
	}

	snap := b.snapshot()
	if err := b.ExportEnsureSet(setID); err != nil {
		b.restore(snap)
		return err
	}
	if b.length+int(WithdrawalLength(setID)) > int(b.mtu) {
		b.restore(snap)
		EndOfMessageTotal.Inc()
		return newEndOfMessageError("template withdrawal does not fit in mtu")
	}

	n, err := EncodeWithdrawalTo(&sliceWriter{buf: b.buffer, pos: b.length}, setID, tid)
	if err != nil {
		b.restore(snap)
		return err
	}
	b.length += n
	return nil
}

// ExportNewSet closes any open Set and opens a new one for setID.
func (b *MessageBuffer) ExportNewSet(setID uint16) error {
	if err := b.ExportCloseSet(); err != nil {
		return err
	}

	switch {
	case setID >= MinDataSetID:
		key := TemplateKey{ObservationDomainId: b.odid, TemplateId: setID}
		tmpl, err := b.templates.Get(b.ctx, key)
		if err != nil {
			return newEncodeError(err.Error())
		}
		if b.length+int(SetHeaderLength)+int(tmpl.MinLength()) > int(b.mtu) {
			EndOfMessageTotal.Inc()
			return newEndOfMessageError("data set cannot fit even one record within mtu")
		}
		b.curSetOff = b.length
		id := setID
		b.curSetID = &id
		b.curTmpl = tmpl
		sh := SetHeader{Id: setID, Length: 0}
		sh.encodeTo(b.buffer[b.length : b.length+int(SetHeaderLength)])
		b.length += int(SetHeaderLength)
	case setID == TemplateSetID || setID == OptionsTemplateSetID:
		b.curTmpl = nil
		id := setID
		b.curSetID = &id
		b.curSetOff = b.length
		sh := SetHeader{Id: setID, Length: 0}
		sh.encodeTo(b.buffer[b.length : b.length+int(SetHeaderLength)])
		b.length += int(SetHeaderLength)
	default:
		return newEncodeError("set id is reserved")
	}
	return nil
}

// ExportCloseSet finalizes the currently open Set's header with its true
// length. It is a no-op when no Set is open.
func (b *MessageBuffer) ExportCloseSet() error {
	if b.curSetID == nil {
		return nil
	}
	setLength := uint16(b.length - b.curSetOff)
	sh := SetHeader{Id: *b.curSetID, Length: setLength}
	sh.encodeTo(b.buffer[b.curSetOff : b.curSetOff+int(SetHeaderLength)])
	b.curSetID = nil
	b.curTmpl = nil
	return nil
}

// ExportEnsureSet opens a new Set for setID unless one is already open.
func (b *MessageBuffer) ExportEnsureSet(setID uint16) error {
	if b.curSetID != nil && *b.curSetID == setID {
		return nil
	}
	return b.ExportNewSet(setID)
}

// ExportNamedict encodes rec against the currently open Data Set's
// Template and appends it. A Data Set must be open.
func (b *MessageBuffer) ExportNamedict(rec Record) error {
	if b.curSetID == nil || *b.curSetID < MinDataSetID || b.curTmpl == nil {
		return newEncodeError("no data set is open")
	}

	encoded, err := b.curTmpl.EncodeNamedictTo(rec)
	if err != nil {
		return newEncodeError(err.Error())
	}
	return b.appendRecordBytes(encoded)
}

// ExportTuple encodes values positionally against the currently open
// Data Set's Template field order and appends them. The value order
// must match the Template's own field order exactly; use ExportNamedict
// when fields should be matched by name instead.
func (b *MessageBuffer) ExportTuple(values []interface{}) error {
	if b.curSetID == nil || *b.curSetID < MinDataSetID || b.curTmpl == nil {
		return newEncodeError("no data set is open")
	}

	encoded, err := b.curTmpl.EncodeTupleTo(values)
	if err != nil {
		return newEncodeError(err.Error())
	}
	return b.appendRecordBytes(encoded)
}

func (b *MessageBuffer) appendRecordBytes(encoded []byte) error {
	if b.length+len(encoded) > int(b.mtu) {
		EndOfMessageTotal.Inc()
		return newEndOfMessageError("record does not fit in mtu")
	}
	copy(b.buffer[b.length:], encoded)
	b.length += len(encoded)
	b.sequences.Advance(b.streamKey(), 1)
	RecordsEncodedTotal.WithLabelValues(strconv.Itoa(int(b.curTmpl.Id))).Inc()
	return nil
}

// SetExportTime pins the Export Time header field and disables the
// automatic wall-clock refresh that ToBytes otherwise performs.
func (b *MessageBuffer) SetExportTime(t time.Time) {
	b.exportEpoch = uint32(t.Unix())
	b.autoExportTime = false
}

// ExportTime returns the Export Time header field as a UTC time: the value
// read from a decoded message's header, or the value that the next
// ToBytes/WriteMessage will emit while encoding.
func (b *MessageBuffer) ExportTime() time.Time {
	return time.Unix(int64(b.exportEpoch), 0).UTC()
}

// NeedsFlush reports whether this buffer holds any encoded content beyond
// the bare message header, i.e. whether a ToBytes/WriteMessage call would
// produce anything worth sending.
func (b *MessageBuffer) NeedsFlush() bool {
	return b.curSetID != nil || b.length > int(MessageHeaderLength)
}

// ToBytes closes any open Set, finalizes the Message Header, and returns
// an immutable copy of the encoded message. The MessageBuffer remains
// usable for further encoding afterward.
func (b *MessageBuffer) ToBytes() ([]byte, error) {
	if err := b.ExportCloseSet(); err != nil {
		return nil, err
	}
	if b.autoExportTime {
		b.exportEpoch = uint32(time.Now().Unix())
	}

	hdr := MessageHeader{
		Version:             ProtocolVersion,
		Length:              uint16(b.length),
		ExportTime:          b.exportEpoch,
		SequenceNumber:      b.sequence,
		ObservationDomainId: b.odid,
	}
	hdr.encodeTo(b.buffer[0:MessageHeaderLength])

	out := make([]byte, b.length)
	copy(out, b.buffer[:b.length])
	MessagesEncodedTotal.Inc()
	return out, nil
}

// WriteMessage calls ToBytes and writes the result to w in one shot.
func (b *MessageBuffer) WriteMessage(w io.Writer) error {
	out, err := b.ToBytes()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// FromBytes enters the decoding phase by copying raw into the buffer and
// parsing it as one complete IPFIX Message.
func (b *MessageBuffer) FromBytes(raw []byte) error {
	if len(raw) < int(MessageHeaderLength) {
		DecodeErrorsTotal.Inc()
		return newDecodeError("message shorter than header")
	}

	hdr := decodeMessageHeader(raw)
	if hdr.Version != ProtocolVersion {
		DecodeErrorsTotal.Inc()
		return newDecodeError("unsupported protocol version")
	}
	if hdr.Length < 20 {
		DecodeErrorsTotal.Inc()
		return newDecodeError("message length smaller than minimum")
	}
	if int(hdr.Length) != len(raw) {
		DecodeErrorsTotal.Inc()
		return newDecodeError("message length does not match byte count")
	}

	n := copy(b.buffer, raw)
	b.length = n
	b.odid = hdr.ObservationDomainId
	b.sequence = hdr.SequenceNumber
	b.exportEpoch = hdr.ExportTime

	if err := b.scanSetList(); err != nil {
		return err
	}
	MessagesDecodedTotal.Inc()
	return nil
}

// ReadMessage reads exactly one Message from r: a 16-octet header,
// followed by Length-16 octets of body.
func (b *MessageBuffer) ReadMessage(r io.Reader) error {
	hdrBuf := make([]byte, MessageHeaderLength)
	n, err := io.ReadFull(r, hdrBuf)
	if err != nil {
		if n == 0 && err == io.EOF {
			return ErrEndOfStream
		}
		DecodeErrorsTotal.Inc()
		return newDecodeError("short read of message header")
	}

	hdr := decodeMessageHeader(hdrBuf)
	if hdr.Version != ProtocolVersion {
		DecodeErrorsTotal.Inc()
		return newDecodeError("unsupported protocol version")
	}
	if hdr.Length < 20 {
		DecodeErrorsTotal.Inc()
		return newDecodeError("message length smaller than minimum")
	}

	bodyLen := int(hdr.Length) - int(MessageHeaderLength)
	bodyBuf := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, bodyBuf); err != nil {
		DecodeErrorsTotal.Inc()
		return newDecodeError("short read of message body")
	}

	copy(b.buffer, hdrBuf)
	copy(b.buffer[MessageHeaderLength:], bodyBuf)
	b.length = int(hdr.Length)
	b.odid = hdr.ObservationDomainId
	b.sequence = hdr.SequenceNumber
	b.exportEpoch = hdr.ExportTime

	if err := b.scanSetList(); err != nil {
		return err
	}
	MessagesDecodedTotal.Inc()
	return nil
}

// scanSetList walks buffer[16..length] into an ordered SetList.
func (b *MessageBuffer) scanSetList() error {
	b.curSetID = nil
	b.curTmpl = nil
	b.setList = nil

	offset := int(MessageHeaderLength)
	for offset < b.length {
		if offset+int(SetHeaderLength) > b.length {
			DecodeErrorsTotal.Inc()
			return newDecodeError("truncated set header")
		}
		sh := decodeSetHeader(b.buffer[offset : offset+int(SetHeaderLength)])
		if sh.Length < SetHeaderLength {
			DecodeErrorsTotal.Inc()
			return newDecodeError("set length smaller than set header")
		}
		if offset+int(sh.Length) > b.length {
			DecodeErrorsTotal.Inc()
			return newDecodeError("set overruns message")
		}
		b.setList = append(b.setList, SetEntry{Offset: offset, SetID: sh.Id, Length: sh.Length})
		offset += int(sh.Length)
	}
	return nil
}

// decodeTemplateSet parses every Template (or Options Template) record in
// entry, registering each under (odid, id) and consulting acceptFn to
// decide whether the Template's Data Sets should be delivered to the
// caller. A Template Withdrawal (zero field count) removes the registry
// entry instead.
func (b *MessageBuffer) decodeTemplateSet(entry SetEntry, acceptFn func(*Template) bool) error {
	offset := entry.Offset + int(SetHeaderLength)
	end := entry.Offset + int(entry.Length)

	for offset < end {
		tmpl, isWithdrawal, newOffset, err := DecodeTemplateFrom(b.buffer, offset, entry.SetID, b.lookupIE)
		if err != nil {
			DecodeErrorsTotal.Inc()
			return err
		}
		offset = newOffset

		key := TemplateKey{ObservationDomainId: b.odid, TemplateId: tmpl.Id}
		if isWithdrawal {
			_ = b.templates.Delete(b.ctx, key)
			delete(b.acceptedTIDs, key)
			continue
		}

		if err := b.templates.Add(b.ctx, key, tmpl); err != nil {
			return err
		}
		if acceptFn(tmpl) {
			b.acceptedTIDs[key] = struct{}{}
		} else {
			delete(b.acceptedTIDs, key)
		}
	}
	return nil
}

// sliceWriter is a minimal io.Writer over a fixed backing array at a given
// offset, used so Template/Field encode helpers can write directly into
// MessageBuffer's backing array without an intermediate allocation.
type sliceWriter struct {
	buf []byte
	pos int
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}
