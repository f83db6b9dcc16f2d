package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// SigningPair is an Ed25519 asymmetric key pair used for entry
// signing, custody signatures, and chain verification (§3.2).
//
// Private holds the raw 32-byte Ed25519 seed, not the 64-byte
// expanded private key ed25519.GenerateKey returns — per the spec's
// resolution of the source's ambiguity between raw-seed and
// Base85-decoded key material (§9 Design Notes), the seed is the
// canonical form carried in AlgoString.RawData(). ed25519.NewKeyFromSeed
// expands it at the point of use and the expanded form is never
// retained.
type SigningPair struct {
	Public  ed25519.PublicKey
	Private [32]byte
}

// GenerateSigningPair produces a fresh Ed25519 key pair from the
// system CSPRNG.
func GenerateSigningPair() (SigningPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SigningPair{}, kcerror.Wrap(err)
	}
	var seed [32]byte
	copy(seed[:], priv.Seed())
	return SigningPair{Public: pub, Private: seed}, nil
}

// PrivateKey expands the stored seed into a usable ed25519.PrivateKey.
func (p SigningPair) PrivateKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(p.Private[:])
}

// PublicAlgoString returns the public half tagged ED25519:....
func (p SigningPair) PublicAlgoString() algostring.AlgoString {
	return algostring.New(algostring.ED25519, p.Public)
}

// PrivateAlgoString returns the private half (raw seed) tagged ED25519:....
func (p SigningPair) PrivateAlgoString() algostring.AlgoString {
	return algostring.New(algostring.ED25519, p.Private[:])
}

// Fingerprint returns a SHA-256 hex digest of the public key's
// AlgoString form, safe to log or display without revealing the key.
func (p SigningPair) Fingerprint() string {
	sum := sha256.Sum256(p.PublicAlgoString().Bytes())
	return hex.EncodeToString(sum[:])
}

// Save writes the pair to path as JSON (§6.3), refusing to overwrite
// an existing file unless clobber is true.
func (p SigningPair) Save(path string, clobber bool) error {
	kf := jsonKeyFile{
		Type:       "signingpair",
		Encryption: "ed25519",
		PublicKey:  encodeBare(p.Public),
		PrivateKey: encodeBare(p.Private[:]),
	}
	data, err := marshalIndent(kf)
	if err != nil {
		return kcerror.Wrap(err)
	}
	return writeKeyFile(path, clobber, data)
}

// LoadSigningPair reads and validates a signing pair key file.
func LoadSigningPair(path string) (SigningPair, error) {
	kf, err := readKeyFile(path)
	if err != nil {
		return SigningPair{}, err
	}
	if kf.Type != "signingpair" || kf.Encryption != "ed25519" {
		return SigningPair{}, kcerror.New(kcerror.BadData, "not a signing pair key file")
	}
	pub, err := decodeBare(kf.PublicKey)
	if err != nil {
		return SigningPair{}, err
	}
	priv, err := decodeBare(kf.PrivateKey)
	if err != nil {
		return SigningPair{}, err
	}
	if len(pub) != ed25519.PublicKeySize || len(priv) != 32 {
		return SigningPair{}, kcerror.New(kcerror.BadData, "signing pair key length mismatch")
	}
	var out SigningPair
	out.Public = ed25519.PublicKey(pub)
	copy(out.Private[:], priv)
	return out, nil
}
