package keycard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/clock"
	"github.com/darkwyrm/libkeycard/pkg/entry"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
	"github.com/darkwyrm/libkeycard/pkg/keys"
)

func mustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

var fixedNow = clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

func buildRootOrgKeycard(t *testing.T) (*Keycard, keys.SigningPair) {
	t.Helper()
	signPair, err := keys.GenerateSigningPair()
	if err != nil {
		t.Fatalf("GenerateSigningPair: %v", err)
	}
	encPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		t.Fatalf("GenerateEncryptionPair: %v", err)
	}

	root := entry.NewOrganizationEntry()
	if err := root.SetFields(map[string]string{
		"Name":                      "Example Org",
		"Contact-Admin":             "admin@example.com",
		"Primary-Verification-Key": signPair.PublicAlgoString().String(),
		"Encryption-Key":            encPair.PublicAlgoString().String(),
	}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}
	if err := root.SetExpiration(fixedNow, -1); err != nil {
		t.Fatalf("SetExpiration: %v", err)
	}
	if err := root.Sign(signPair.PrivateAlgoString(), "Organization"); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := root.GenerateHash(algostring.BLAKE3_256); err != nil {
		t.Fatalf("GenerateHash: %v", err)
	}

	return &Keycard{Type: entry.TypeOrganization, Entries: []*entry.Entry{root}}, signPair
}

func TestKeycardChainAndVerify(t *testing.T) {
	k, signPair := buildRootOrgKeycard(t)

	next, bundle, err := k.Chain(signPair.PrivateAlgoString(), true)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(k.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(k.Entries))
	}
	if next.Fields["Secondary-Verification-Key"] != bundle.AltSignPublic.String() {
		t.Errorf("Secondary-Verification-Key = %q, want bundle.AltSignPublic %q",
			next.Fields["Secondary-Verification-Key"], bundle.AltSignPublic.String())
	}
	if !next.PrevHash.Equal(k.Entries[0].Hash) {
		t.Errorf("PrevHash = %s, want root Hash %s", next.PrevHash, k.Entries[0].Hash)
	}

	// The caller finishes the successor exactly as it would a root entry.
	if err := next.Sign(bundle.SignPrivate, "Organization"); err != nil {
		t.Fatalf("Sign(Organization) with new primary key: %v", err)
	}
	if err := next.GenerateHash(algostring.BLAKE3_256); err != nil {
		t.Fatalf("GenerateHash: %v", err)
	}
	if err := next.IsCompliant(); err != nil {
		t.Fatalf("IsCompliant: %v", err)
	}

	if err := k.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestKeycardVerifySingleEntryOK(t *testing.T) {
	k, _ := buildRootOrgKeycard(t)
	if err := k.Verify(); err != nil {
		t.Errorf("Verify on a lone root entry: %v", err)
	}
}

func TestKeycardVerifyEmptyIsResourceNotFound(t *testing.T) {
	k := &Keycard{}
	if err := k.Verify(); !kcerror.Is(err, kcerror.ResourceNotFound) {
		t.Fatalf("Verify on empty keycard err = %v, want ResourceNotFound", err)
	}
}

func TestSaveRefusesOverwriteWithoutClobber(t *testing.T) {
	k, _ := buildRootOrgKeycard(t)
	path := filepath.Join(t.TempDir(), "card.keycard")

	if err := k.Save(path, false); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := k.Save(path, false); !kcerror.Is(err, kcerror.ResourceExists) {
		t.Fatalf("second Save without clobber err = %v, want ResourceExists", err)
	}
	if err := k.Save(path, true); err != nil {
		t.Errorf("Save with clobber: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	k, _ := buildRootOrgKeycard(t)
	path := filepath.Join(t.TempDir(), "card.keycard")

	if err := k.Save(path, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Type != entry.TypeOrganization {
		t.Errorf("Type = %v, want Organization", loaded.Type)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(loaded.Entries))
	}
	if !loaded.Entries[0].Hash.Equal(k.Entries[0].Hash) {
		t.Errorf("Hash mismatch after round trip")
	}
	if err := loaded.Verify(); err != nil {
		t.Errorf("Verify after round trip: %v", err)
	}
}

// TestS2MixedTypeKeycardLoadRejects encodes spec scenario S2.
func TestS2MixedTypeKeycardLoadRejects(t *testing.T) {
	orgK, _ := buildRootOrgKeycard(t)
	path := filepath.Join(t.TempDir(), "card.keycard")
	if err := orgK.Save(path, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	userSignPair, err := keys.GenerateSigningPair()
	if err != nil {
		t.Fatalf("GenerateSigningPair: %v", err)
	}
	userCRSignPair, err := keys.GenerateSigningPair()
	if err != nil {
		t.Fatalf("GenerateSigningPair: %v", err)
	}
	userCREncPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		t.Fatalf("GenerateEncryptionPair: %v", err)
	}

	u := entry.NewUserEntry()
	if err := u.SetFields(map[string]string{
		"Workspace-ID":                      "4418bf6c-000b-4bb3-8111-316e72030468",
		"Domain":                            "example.com",
		"Contact-Request-Verification-Key": userCRSignPair.PublicAlgoString().String(),
		"Contact-Request-Encryption-Key":   userCREncPair.PublicAlgoString().String(),
		"Public-Encryption-Key":             userCREncPair.PublicAlgoString().String(),
	}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}
	if err := u.SetExpiration(fixedNow, -1); err != nil {
		t.Fatalf("SetExpiration: %v", err)
	}
	if err := u.Sign(userSignPair.PrivateAlgoString(), "Organization"); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := u.GenerateHash(algostring.BLAKE3_256); err != nil {
		t.Fatalf("GenerateHash: %v", err)
	}
	if err := u.Sign(userSignPair.PrivateAlgoString(), "User"); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	mixed := append([]byte(nil), mustReadFile(t, path)...)
	mixed = append(mixed, []byte(beginEntryMarker+"\r\n")...)
	mixed = append(mixed, u.MakeByteString(-1)...)
	mixed = append(mixed, []byte(endEntryMarker+"\r\n")...)

	mixedPath := filepath.Join(t.TempDir(), "mixed.keycard")
	writeFile(t, mixedPath, mixed)

	_, err = Load(mixedPath)
	if !kcerror.Is(err, kcerror.BadData) {
		t.Fatalf("Load mixed-type keycard err = %v, want BadData", err)
	}
}
