// Package protocol implements the RFC 5730 message envelope: greetings,
// session commands, object commands with their extensions, and responses.
// Object payloads inside commands and responses are codec components resolved
// through a codec.Registry.
package protocol

import "epp-gateway/internal/epp/codec"

// NS is the EPP envelope namespace, encoded as the default namespace.
var NS = codec.EPP

// Version is the only protocol version this package speaks.
const Version = "1.0"
