package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// secretKeyAlgo is the AlgoString prefix for XSalsa20 secret keys.
// It is deliberately not part of algostring's validPrefixes set: the
// spec's closed AlgoString algorithm list (§3.1) covers only the
// values that can appear inside an entry, and a secret key never does
// — it only ever appears in its own key file (§6.3), tagged instead by
// a separate JSON field.
const secretKeyAlgo = "SALSA20"

// SecretKey is a symmetric XSalsa20 256-bit key (§3.2).
type SecretKey struct {
	Key [32]byte
}

// GenerateSecretKey produces 32 random bytes from the system CSPRNG.
func GenerateSecretKey() (SecretKey, error) {
	var k [32]byte
	if _, err := rand.Read(k[:]); err != nil {
		return SecretKey{}, kcerror.Wrap(err)
	}
	return SecretKey{Key: k}, nil
}

// AlgoString returns the key tagged SALSA20:....
func (k SecretKey) AlgoString() algostring.AlgoString {
	return algostring.New(secretKeyAlgo, k.Key[:])
}

// Fingerprint returns a SHA-256 hex digest of the key's AlgoString
// form, safe to log or display without revealing the key.
func (k SecretKey) Fingerprint() string {
	sum := sha256.Sum256(k.AlgoString().Bytes())
	return hex.EncodeToString(sum[:])
}

// Save writes the key to path as JSON (§6.3), refusing to overwrite an
// existing file unless clobber is true.
func (k SecretKey) Save(path string, clobber bool) error {
	kf := jsonKeyFile{
		Type:       "secretkey",
		Encryption: "salsa20",
		Key:        encodeBare(k.Key[:]),
	}
	data, err := marshalIndent(kf)
	if err != nil {
		return kcerror.Wrap(err)
	}
	return writeKeyFile(path, clobber, data)
}

// LoadSecretKey reads and validates a secret key file.
func LoadSecretKey(path string) (SecretKey, error) {
	kf, err := readKeyFile(path)
	if err != nil {
		return SecretKey{}, err
	}
	if kf.Type != "secretkey" || kf.Encryption != "salsa20" {
		return SecretKey{}, kcerror.New(kcerror.BadData, "not a secret key file")
	}
	raw, err := decodeBare(kf.Key)
	if err != nil {
		return SecretKey{}, err
	}
	if len(raw) != 32 {
		return SecretKey{}, kcerror.New(kcerror.BadData, "secret key length mismatch")
	}
	var out SecretKey
	copy(out.Key[:], raw)
	return out, nil
}
