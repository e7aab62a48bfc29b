// Package aggregates defines the write boundaries of the service and the
// error codes every layer uses to classify failures.
//
// Contracts here carry no persistence detail. Implementations live in
// internal/data/aggregates and own their transactions.
package aggregates
