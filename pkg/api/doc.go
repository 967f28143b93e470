// Package api defines the splitledger.v1 wire messages.
//
// Messages are plain structs serialized as JSON by the codec in
// package apiconnect. Money amounts and percentages travel as decimal
// strings with at most two fractional digits ("12.50", "33.33"); dates
// are "YYYY-MM-DD"; timestamps are Unix seconds.
package api
