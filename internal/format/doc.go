// Package format implements the file serialization formats of the file
// storage adapter.
//
// Three formats are available:
//
//	json       .json   JSON, opaque values wrapped in a hashed envelope
//	serialize  .cache  encoding/gob, round-trips registered Go types
//	yaml       .yaml   YAML, opaque values wrapped like json
//
// The textual formats cannot express arbitrary Go values. A value that has
// no JSON or YAML shape (a struct, a pointer, a byte slice) is gob-encoded,
// base64'd and stored as a single-entry map:
//
//	{"#!<sha1 of the encoded text>": "<encoded text>"}
//
// On load a map of that exact shape whose hash verifies is decoded back into
// the encoded value. Anything else is returned as plain data.
//
// Types that travel inside the gob encoding must be registered with Register.
package format
