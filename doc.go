// Package typeahead turns rapidly changing search input into a bounded rate
// of asynchronous lookups.
//
// A Session owns one search stream: the raw term, the last term that was
// actually looked up, the latest results, and whether a lookup is in
// progress. SetSearchTerm trims the term, short-circuits empty input,
// ignores input whose trimmed form was already searched, and otherwise
// schedules a debounced call to the injected SearchFunc. Results of
// lookups that were superseded by newer input or by ClearSearch are
// dropped.
//
// Any number of consumers can observe a session through Subscribe. A
// Provider shares one session per scope key between consumers and closes
// it when the last one releases it.
package typeahead
