// Package index builds the read-only company → contract → category hierarchy
// from the summary input.
//
// An Index is constructed once per input load with Build and then passed
// explicitly to the filter, aggregation, and reporting packages. Building
// registers every raw category in the supplied taxonomy; nothing else mutates
// the index afterwards.
package index
