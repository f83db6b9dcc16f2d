// Package algostring implements the AlgoString tagged-value format used
// for every key, signature, and hash in a keycard entry: a prefix
// naming the algorithm and a Base85-encoded (RFC 1924 alphabet)
// payload, joined by a colon — PREFIX:BASE85DATA.
//
// Grounded on the Anselus keycard port's AlgoString type, with the
// off-by-one in its colon-splitting fixed (the original split on the
// first ':' using a limit of 1, which never separates prefix from
// data; this implementation splits with a limit of 2).
package algostring

import (
	"strings"

	"github.com/darkwyrm/b85"

	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// Supported algorithm prefixes. The prefix is opaque at this layer —
// algorithm dispatch for signing and hashing happens in pkg/entry —
// and KnownAlgorithm reports whether a prefix is one of these tags;
// Parse and IsValid do not check it.
const (
	ED25519    = "ED25519"
	CURVE25519 = "CURVE25519"
	BLAKE3_256 = "BLAKE3-256"
	BLAKE2B256 = "BLAKE2B-256"
	SHA256     = "SHA-256"
	SHA3_256   = "SHA3-256"
)

var validPrefixes = map[string]bool{
	ED25519:    true,
	CURVE25519: true,
	BLAKE3_256: true,
	BLAKE2B256: true,
	SHA256:     true,
	SHA3_256:   true,
}

// AlgoString is a tagged-value pair: an algorithm prefix and its
// Base85-encoded payload. The zero value is invalid (both halves
// empty).
type AlgoString struct {
	Prefix string
	Data   string
}

// New builds an AlgoString directly from an algorithm prefix and raw
// (not yet Base85-encoded) payload bytes.
func New(prefix string, raw []byte) AlgoString {
	return AlgoString{Prefix: prefix, Data: b85.Encode(raw)}
}

// Parse splits s at the first colon into prefix and data. It does not
// validate that Prefix is one of the known algorithm tags — callers
// that care (signing, hashing) reject unsupported prefixes themselves
// with the specific UnsupportedEncryptionType/UnsupportedHashType kind.
func Parse(s string) (AlgoString, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return AlgoString{}, kcerror.New(kcerror.BadData, "malformed AlgoString: "+s)
	}
	return AlgoString{Prefix: parts[0], Data: parts[1]}, nil
}

// FromBytes UTF-8 decodes b and parses it as an AlgoString.
func FromBytes(b []byte) (AlgoString, error) {
	return Parse(string(b))
}

// String returns the canonical PREFIX:DATA text form.
func (a AlgoString) String() string {
	return a.Prefix + ":" + a.Data
}

// Bytes returns the canonical text form as bytes.
func (a AlgoString) Bytes() []byte {
	return []byte(a.String())
}

// IsValid reports whether both halves of the pair are non-empty.
func (a AlgoString) IsValid() bool {
	return a.Prefix != "" && a.Data != ""
}

// KnownAlgorithm reports whether Prefix is one of the closed set of
// recognized algorithm tags.
func (a AlgoString) KnownAlgorithm() bool {
	return validPrefixes[a.Prefix]
}

// RawData Base85-decodes Data, returning the raw byte payload.
// Decode errors are reported as BadData.
func (a AlgoString) RawData() ([]byte, error) {
	raw, err := b85.Decode(a.Data)
	if err != nil {
		return nil, kcerror.New(kcerror.BadData, "base85 decode: "+err.Error())
	}
	return raw, nil
}

// Equal reports structural equality on both fields.
func (a AlgoString) Equal(other AlgoString) bool {
	return a.Prefix == other.Prefix && a.Data == other.Data
}

// Empty is the zero-value AlgoString, useful for explicitly clearing a
// slot (e.g. prev_hash on a root entry).
var Empty = AlgoString{}
