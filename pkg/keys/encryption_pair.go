package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/nacl/box"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// EncryptionPair is a Curve25519 asymmetric key pair used for
// encrypting content to a principal (§3.2). The keycard engine itself
// never encrypts a payload with it — message encryption is explicitly
// out of scope — it only generates, persists, and exposes the pair's
// AlgoString form for embedding in entries.
type EncryptionPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateEncryptionPair produces a fresh Curve25519 key pair from the
// system CSPRNG.
func GenerateEncryptionPair() (EncryptionPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return EncryptionPair{}, kcerror.Wrap(err)
	}
	return EncryptionPair{Public: *pub, Private: *priv}, nil
}

// PublicAlgoString returns the public half tagged CURVE25519:....
func (p EncryptionPair) PublicAlgoString() algostring.AlgoString {
	return algostring.New(algostring.CURVE25519, p.Public[:])
}

// PrivateAlgoString returns the private half tagged CURVE25519:....
func (p EncryptionPair) PrivateAlgoString() algostring.AlgoString {
	return algostring.New(algostring.CURVE25519, p.Private[:])
}

// Fingerprint returns a SHA-256 hex digest of the public key's
// AlgoString form, safe to log or display without revealing the key.
func (p EncryptionPair) Fingerprint() string {
	sum := sha256.Sum256(p.PublicAlgoString().Bytes())
	return hex.EncodeToString(sum[:])
}

// Save writes the pair to path as JSON (§6.3), refusing to overwrite
// an existing file unless clobber is true.
func (p EncryptionPair) Save(path string, clobber bool) error {
	kf := jsonKeyFile{
		Type:       "encryptionpair",
		Encryption: "curve25519",
		PublicKey:  encodeBare(p.Public[:]),
		PrivateKey: encodeBare(p.Private[:]),
	}
	data, err := marshalIndent(kf)
	if err != nil {
		return kcerror.Wrap(err)
	}
	return writeKeyFile(path, clobber, data)
}

// LoadEncryptionPair reads and validates an encryption pair key file.
func LoadEncryptionPair(path string) (EncryptionPair, error) {
	kf, err := readKeyFile(path)
	if err != nil {
		return EncryptionPair{}, err
	}
	if kf.Type != "encryptionpair" || kf.Encryption != "curve25519" {
		return EncryptionPair{}, kcerror.New(kcerror.BadData, "not an encryption pair key file")
	}
	pub, err := decodeBare(kf.PublicKey)
	if err != nil {
		return EncryptionPair{}, err
	}
	priv, err := decodeBare(kf.PrivateKey)
	if err != nil {
		return EncryptionPair{}, err
	}
	if len(pub) != 32 || len(priv) != 32 {
		return EncryptionPair{}, kcerror.New(kcerror.BadData, "encryption pair key length mismatch")
	}
	var out EncryptionPair
	copy(out.Public[:], pub)
	copy(out.Private[:], priv)
	return out, nil
}
