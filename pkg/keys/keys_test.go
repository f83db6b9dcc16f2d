package keys

import (
	"path/filepath"
	"testing"

	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

func TestEncryptionPairSaveLoadRoundTrip(t *testing.T) {
	pair, err := GenerateEncryptionPair()
	if err != nil {
		t.Fatalf("GenerateEncryptionPair: %v", err)
	}

	path := filepath.Join(t.TempDir(), "encryption.json")
	if err := pair.Save(path, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadEncryptionPair(path)
	if err != nil {
		t.Fatalf("LoadEncryptionPair: %v", err)
	}
	if loaded.Public != pair.Public || loaded.Private != pair.Private {
		t.Error("loaded pair does not match saved pair")
	}
}

func TestEncryptionPairRefusesOverwrite(t *testing.T) {
	pair, _ := GenerateEncryptionPair()
	path := filepath.Join(t.TempDir(), "encryption.json")

	if err := pair.Save(path, false); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	err := pair.Save(path, false)
	if !kcerror.Is(err, kcerror.ResourceExists) {
		t.Fatalf("Save without clobber = %v, want ResourceExists", err)
	}

	other, _ := GenerateEncryptionPair()
	if err := other.Save(path, true); err != nil {
		t.Fatalf("Save with clobber: %v", err)
	}
	loaded, err := LoadEncryptionPair(path)
	if err != nil {
		t.Fatalf("LoadEncryptionPair: %v", err)
	}
	if loaded.Public != other.Public {
		t.Error("clobber did not overwrite file contents")
	}
}

func TestSigningPairSaveLoadRoundTrip(t *testing.T) {
	pair, err := GenerateSigningPair()
	if err != nil {
		t.Fatalf("GenerateSigningPair: %v", err)
	}

	path := filepath.Join(t.TempDir(), "signing.json")
	if err := pair.Save(path, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadSigningPair(path)
	if err != nil {
		t.Fatalf("LoadSigningPair: %v", err)
	}
	if string(loaded.Public) != string(pair.Public) || loaded.Private != pair.Private {
		t.Error("loaded pair does not match saved pair")
	}

	msg := []byte("sign me")
	sig := loaded.PrivateKey().Sign(nil, msg, nil)
	_ = sig
}

func TestSecretKeySaveLoadRoundTrip(t *testing.T) {
	key, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}

	path := filepath.Join(t.TempDir(), "secret.json")
	if err := key.Save(path, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadSecretKey(path)
	if err != nil {
		t.Fatalf("LoadSecretKey: %v", err)
	}
	if loaded.Key != key.Key {
		t.Error("loaded key does not match saved key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadEncryptionPair(filepath.Join(t.TempDir(), "nope.json"))
	if !kcerror.Is(err, kcerror.ResourceNotFound) {
		t.Fatalf("err = %v, want ResourceNotFound", err)
	}
}

func TestLoadWrongType(t *testing.T) {
	sp, _ := GenerateSigningPair()
	path := filepath.Join(t.TempDir(), "signing.json")
	if err := sp.Save(path, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err := LoadEncryptionPair(path)
	if !kcerror.Is(err, kcerror.BadData) {
		t.Fatalf("err = %v, want BadData", err)
	}
}
