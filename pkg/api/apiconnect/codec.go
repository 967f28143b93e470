// Package apiconnect wires the splitledger.v1 services to connect-go:
// procedure names, handler constructors and clients.
package apiconnect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec serializes api messages as JSON. It replaces connect's default
// protojson codec under the same name, so clients sending
// "application/json" (or "application/connect+json") reach the handlers.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (Codec) Unmarshal(data []byte, msg any) error { return json.Unmarshal(data, msg) }
