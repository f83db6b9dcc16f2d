// Package keys implements the three key-material value objects: an
// asymmetric encryption pair (Curve25519), an asymmetric signing pair
// (Ed25519), and a symmetric secret key (XSalsa20). Each knows how to
// generate fresh bytes, serialize itself to a JSON file, load itself
// back, and expose its AlgoString form for embedding in entries.
//
// Grounded on internal/persist/device_key_store.go's file-backed key
// persistence (os.MkdirAll with 0700, os.WriteFile with 0600, refuse
// overwrite via os.Stat) and on the Anselus keycard port's key
// generation calls into golang.org/x/crypto/nacl/box and
// crypto/ed25519.
package keys

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/darkwyrm/b85"

	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// keyFileDirPerm and keyFileDataPerm mirror the persistence layer's
// own permission bits for key material: private data, owner-only.
const (
	keyFileDirPerm  = 0o700
	keyFileDataPerm = 0o600
)

// jsonKeyFile is the on-disk shape shared by all three key kinds
// (§6.3). PublicKey/PrivateKey/Key hold bare Base85 text with no
// algorithm prefix — the prefix lives in the Encryption field instead.
type jsonKeyFile struct {
	Type       string `json:"type"`
	Encryption string `json:"encryption"`
	PublicKey  string `json:"publickey,omitempty"`
	PrivateKey string `json:"privatekey,omitempty"`
	Key        string `json:"key,omitempty"`
}

// writeKeyFile refuses to overwrite an existing path unless clobber is
// true, then writes data with owner-only permissions. This is the one
// write helper shared by all three key kinds, so "refuse unless
// clobber" is enforced in exactly one place.
func writeKeyFile(path string, clobber bool, data []byte) error {
	if path == "" {
		return kcerror.New(kcerror.BadParameterValue, "empty path")
	}
	if _, err := os.Stat(path); err == nil {
		if !clobber {
			return kcerror.New(kcerror.ResourceExists, path)
		}
	} else if !os.IsNotExist(err) {
		return kcerror.Wrap(err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, keyFileDirPerm); err != nil {
		return kcerror.Wrap(err)
	}
	if err := os.WriteFile(path, data, keyFileDataPerm); err != nil {
		return kcerror.Wrap(err)
	}
	return nil
}

func readKeyFile(path string) (jsonKeyFile, error) {
	if path == "" {
		return jsonKeyFile{}, kcerror.New(kcerror.BadParameterValue, "empty path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return jsonKeyFile{}, kcerror.New(kcerror.ResourceNotFound, path)
		}
		return jsonKeyFile{}, kcerror.Wrap(err)
	}
	var kf jsonKeyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return jsonKeyFile{}, kcerror.New(kcerror.BadData, "malformed key file: "+err.Error())
	}
	return kf, nil
}

func decodeBare(field string) ([]byte, error) {
	raw, err := b85.Decode(field)
	if err != nil {
		return nil, kcerror.New(kcerror.BadData, "base85 decode: "+err.Error())
	}
	return raw, nil
}

func encodeBare(raw []byte) string {
	return b85.Encode(raw)
}

func marshalIndent(kf jsonKeyFile) ([]byte, error) {
	return json.MarshalIndent(kf, "", "  ")
}
