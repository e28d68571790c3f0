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

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesEncodedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_messages_encoded_total",
		Help: "Total number of IPFIX messages produced by ToBytes/WriteMessage",
	})
	MessagesDecodedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_messages_decoded_total",
		Help: "Total number of IPFIX messages accepted by FromBytes/ReadMessage",
	})
	DecodeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_decode_errors_total",
		Help: "Total number of DecodeError occurrences",
	})
	EndOfMessageTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_end_of_message_total",
		Help: "Total number of EndOfMessage rollbacks encountered while encoding",
	})
	RecordsEncodedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipfix_records_encoded_total",
		Help: "Total number of records successfully appended to a Data Set, by template id",
	}, []string{"template_id"})
	RecordsDecodedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipfix_records_decoded_total",
		Help: "Total number of records yielded by a decode iterator, by template id",
	}, []string{"template_id"})
	SetsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipfix_sets_skipped_total",
		Help: "Total number of Sets skipped during decode, by reason",
	}, []string{"reason"})
)
