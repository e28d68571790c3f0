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

/*
Package ipfix implements the IPFIX (IP Flow Information Export, RFC 7011) wire
protocol around a single reusable byte buffer.

# Overview

A MessageBuffer owns a fixed-size byte region and alternates between an
encoding phase and a decoding phase. On the encoding side it segments
records into Sets bounded by a configurable MTU, tracks per-domain Templates,
and maintains a monotonic sequence counter. On the decoding side it scans
an incoming message into a list of Sets and offers streaming iterators that
decode Data Set records against Templates observed earlier in the same
stream.

Templates themselves, and the wire layout of individual records, are
implemented by the Template type and the scalar DataType implementations in
this package (unsigned integers, IPv4/IPv6 addresses, timestamps, strings,
octet arrays, ...). Information Elements are looked up by element ID in an
Information Element registry (a map loaded by DefaultIERegistry, replaceable
with WithIERegistry), which decouples field identity from field layout the
same way the wire protocol does.

# History

This package grew out of an IPFIX collector built for exporting flow records
at MTU-bounded message sizes; the message/template/sequence bookkeeping it
implements used to be scattered across a collector process before being
factored out into a single, synchronous, single-threaded codec safe to
embed in either an exporter or a collector.

The package contains no TCP/UDP transport: a MessageBuffer reads from an
io.Reader and writes to an io.Writer. Template storage and the Information
Element registry are collaborators of the MessageBuffer rather than being
baked into it; see the TemplateRegistry interface and the
WithTemplateRegistry and WithIERegistry options for the seams.
*/
package ipfix
