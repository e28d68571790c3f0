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
	"errors"
	"fmt"
)

// The MessageBuffer surfaces exactly four error conditions. Callers are
// expected to errors.Is/errors.As against these sentinels rather than
// string-match messages.
var (
	// ErrEndOfMessage is returned by the encode path when the current
	// message cannot accommodate an append within mtu. It is not fatal:
	// the buffer is rolled back to its state before the failed call and
	// remains usable. Callers typically respond by calling ToBytes on the
	// current message and starting a new one with BeginExport.
	ErrEndOfMessage = errors.New("ipfix: message is full")

	// ErrDecodeError marks a wire-format violation encountered while
	// decoding. It is fatal for the current message; the buffer must be
	// reset via BeginExport or another decode call before further use.
	ErrDecodeError = errors.New("ipfix: malformed message")

	// ErrEncodeError marks caller misuse of the encode API (an MTU smaller
	// than the header, or an unregistered Template referenced by a Data
	// Set). It is fatal for the current operation, but may be recoverable
	// by the caller addressing the misuse and retrying.
	ErrEncodeError = errors.New("ipfix: invalid encode operation")

	// ErrEndOfStream is returned by ReadMessage when the underlying
	// stream yields zero bytes exactly at a message boundary. It signals
	// a normal end of input, not a failure.
	ErrEndOfStream = errors.New("ipfix: end of stream")

	// ErrTemplateNotFound is returned by a TemplateRegistry lookup that
	// finds no entry. The encode path reports such a failure as an
	// ErrEncodeError carrying its message text; the decode iterators skip a
	// Data Set whose Template is missing instead of returning an error.
	ErrTemplateNotFound = errors.New("ipfix: template not found")
)

func newTemplateNotFoundError(observationDomainId uint32, templateId uint16) error {
	return fmt.Errorf("%w: template %d in observation domain %d", ErrTemplateNotFound, templateId, observationDomainId)
}

func newEndOfMessageError(reason string) error {
	return fmt.Errorf("%w: %s", ErrEndOfMessage, reason)
}

func newDecodeError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDecodeError, reason)
}

func newEncodeError(reason string) error {
	return fmt.Errorf("%w: %s", ErrEncodeError, reason)
}
