package entry

import "github.com/darkwyrm/libkeycard/pkg/algostring"

// KeyBundle is the structured set of key material minted by Chain
// (§4.5.6). Per §9 Design Notes, this replaces the source's
// stringly-keyed map (e.g. "Encryption-Key.public") with named fields
// — only the fields a given rotation actually minted are populated,
// the rest remain the zero AlgoString.
type KeyBundle struct {
	SignPublic  algostring.AlgoString
	SignPrivate algostring.AlgoString

	EncryptPublic  algostring.AlgoString
	EncryptPrivate algostring.AlgoString

	// Organization-only: populated when rotate_optional mints a fresh
	// secondary signing pair instead of demoting the outgoing primary.
	AltSignPublic  algostring.AlgoString
	AltSignPrivate algostring.AlgoString

	// User-only: the contact-request signing and encryption pairs,
	// always minted on a User rotation.
	CRSignPublic     algostring.AlgoString
	CRSignPrivate    algostring.AlgoString
	CREncryptPublic  algostring.AlgoString
	CREncryptPrivate algostring.AlgoString

	// User-only, populated when rotate_optional mints a fresh
	// alternate encryption pair.
	AltEncryptPublic  algostring.AlgoString
	AltEncryptPrivate algostring.AlgoString
}
