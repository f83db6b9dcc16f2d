// Package entry implements the canonical serializer (C4) and the
// typed entry record (C5): field set, required-field rule, signature
// slots, hash slot, and the operations that sign, hash, verify, parse,
// and chain an entry.
//
// Grounded on the Anselus keycard port's Entry type (other_examples),
// with its bugs fixed rather than reproduced: Set used
// strings.SplitN(line, ":", 1), which never separates a key from its
// value (fixed here with strings.Cut); VerifySignature called into
// nacl/auth.Verify, an HMAC primitive, instead of verifying an Ed25519
// signature (fixed here with crypto/ed25519.Verify, matching the
// signing primitive the engine actually uses); SetExpiration formatted
// dates with the Python strftime token "%Y%m%d" instead of Go's
// reference-time layout (fixed here with "20060102").
package entry

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"strconv"
	"strings"

	"github.com/darkwyrm/gostringlist"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/clock"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// Type identifies the principal kind an entry describes (§3.4).
type Type string

const (
	TypeOrganization Type = "Organization"
	TypeUser         Type = "User"
)

// SigKind distinguishes a signature slot from the hash slot within
// signature_info (§3.4).
type SigKind int

const (
	SigKindHash SigKind = iota + 1
	SigKindSignature
)

// SigSlot is one entry in the ordered signature_info list (§3.4).
type SigSlot struct {
	Name     string
	Level    int
	Optional bool
	Kind     SigKind
}

// SigSlotList is the ordered, named list of signature slots a
// descriptor declares, mirroring the Anselus port's SigInfoList.
type SigSlotList struct {
	Items []SigSlot
}

// Contains reports whether name is a declared slot.
func (l SigSlotList) Contains(name string) bool {
	return l.IndexOf(name) >= 0
}

// IndexOf returns the position of name in Items, or -1 if absent.
func (l SigSlotList) IndexOf(name string) int {
	for i, item := range l.Items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// Entry is the shared representation for both Organization and User
// records (§3.4). Per §9 Design Notes, the source's base-class /
// subclass split becomes a single shared struct plus a small
// per-type descriptor (field_names, required_fields, signature_info)
// filled in by NewOrganizationEntry / NewUserEntry.
type Entry struct {
	Type           Type
	Fields         map[string]string
	FieldNames     gostringlist.StringList
	RequiredFields gostringlist.StringList
	Signatures     map[string]string
	SignatureInfo  SigSlotList
	PrevHash       algostring.AlgoString
	Hash           algostring.AlgoString
}

// Field returns the named field's value and whether it is set.
func (e *Entry) Field(name string) (string, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// SetField assigns one field and, per §3.4's mutation invariant,
// clears every signature and the hash — they are stale the instant
// any field changes.
func (e *Entry) SetField(name, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return kcerror.NewField(kcerror.BadData, "field value contains a line terminator", name)
	}
	e.Fields[name] = value
	e.invalidateSignatures()
	return nil
}

// SetFields assigns multiple fields atomically, validating all values
// before mutating any of them, then clears signatures and hash once.
func (e *Entry) SetFields(fields map[string]string) error {
	for name, value := range fields {
		if strings.ContainsAny(value, "\r\n") {
			return kcerror.NewField(kcerror.BadData, "field value contains a line terminator", name)
		}
	}
	for name, value := range fields {
		e.Fields[name] = value
	}
	e.invalidateSignatures()
	return nil
}

func (e *Entry) invalidateSignatures() {
	e.Signatures = make(map[string]string)
	e.Hash = algostring.Empty
}

// IndexValue parses the Index field as a decimal integer (§6.1).
func (e *Entry) IndexValue() (uint64, error) {
	v, ok := e.Fields["Index"]
	if !ok || v == "" {
		return 0, kcerror.NewField(kcerror.RequiredFieldMissing, "missing Index field", "Index")
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, kcerror.New(kcerror.BadData, "malformed Index: "+v)
	}
	return n, nil
}

// SetExpiration sets the Expires field to numdays from clk.Now(),
// using the type's default (365 days Organization, 90 days User) when
// numdays is negative, capped at 1095 days (§3.4).
func (e *Entry) SetExpiration(clk clock.Clock, numdays int) error {
	if numdays < 0 {
		switch e.Type {
		case TypeOrganization:
			numdays = 365
		case TypeUser:
			numdays = 90
		default:
			return kcerror.New(kcerror.UnsupportedKeycardType, string(e.Type))
		}
	}
	if numdays > 1095 {
		numdays = 1095
	}
	expiry := clk.Now().UTC().AddDate(0, 0, numdays)
	return e.SetField("Expires", expiry.Format("20060102"))
}

// MakeByteString is the canonical serializer (C4, §4.4): CRLF-joined
// Type line, declared fields in order, then signature slots up to and
// including level, in signature_info order. level < 0 or greater than
// the slot count means "emit everything". This is the single source
// of truth every signature and hash is computed over.
func (e *Entry) MakeByteString(level int) []byte {
	var buf bytes.Buffer
	buf.WriteString("Type:")
	buf.WriteString(string(e.Type))
	buf.WriteString("\r\n")

	for _, name := range e.FieldNames.Items {
		if v, ok := e.Fields[name]; ok && v != "" {
			buf.WriteString(name)
			buf.WriteByte(':')
			buf.WriteString(v)
			buf.WriteString("\r\n")
		}
	}

	n := len(e.SignatureInfo.Items)
	if level < 0 || level > n {
		level = n
	}
	for i := 0; i < level; i++ {
		slot := e.SignatureInfo.Items[i]
		switch slot.Kind {
		case SigKindHash:
			if e.PrevHash.IsValid() {
				buf.WriteString("Previous-Hash:")
				buf.WriteString(e.PrevHash.String())
				buf.WriteString("\r\n")
			}
			if e.Hash.IsValid() {
				buf.WriteString("Hash:")
				buf.WriteString(e.Hash.String())
				buf.WriteString("\r\n")
			}
		case SigKindSignature:
			if v, ok := e.Signatures[slot.Name]; ok && v != "" {
				buf.WriteString(slot.Name)
				buf.WriteString("-Signature:")
				buf.WriteString(v)
				buf.WriteString("\r\n")
			}
		}
	}
	return buf.Bytes()
}

// Set parses data (as produced by MakeByteString(-1)) back into the
// entry's fields, signatures, and hash (§4.5.1). The entry's Type must
// already be set (by NewOrganizationEntry/NewUserEntry) and is checked
// against the parsed Type line.
func (e *Entry) Set(data []byte) error {
	text := string(data)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && (i == 0 || text[i-1] != '\r') {
			return kcerror.New(kcerror.BadData, "entry contains a lone line feed")
		}
	}
	if strings.Contains(text, "\r\n\r\n") {
		return kcerror.New(kcerror.BadData, "entry contains a blank line")
	}
	lines := strings.Split(strings.TrimSuffix(text, "\r\n"), "\r\n")

	fields := make(map[string]string)
	sigs := make(map[string]string)
	var prevHash, hash algostring.AlgoString

	for _, line := range lines {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return kcerror.New(kcerror.BadData, "malformed line: "+line)
		}
		switch {
		case name == "Type":
			if Type(value) != e.Type {
				return kcerror.New(kcerror.UnsupportedKeycardType, "type mismatch: "+value)
			}
		case name == "Previous-Hash":
			as, err := algostring.Parse(value)
			if err != nil {
				return err
			}
			prevHash = as
		case name == "Hash":
			as, err := algostring.Parse(value)
			if err != nil {
				return err
			}
			hash = as
		case strings.HasSuffix(name, "-Signature"):
			sigName := strings.TrimSuffix(name, "-Signature")
			if !e.SignatureInfo.Contains(sigName) {
				return kcerror.New(kcerror.BadData, "unknown signature slot: "+sigName)
			}
			sigs[sigName] = value
		default:
			fields[name] = value
		}
	}

	e.Fields = fields
	e.Signatures = sigs
	e.PrevHash = prevHash
	e.Hash = hash
	return nil
}

// IsCompliant checks that the type is recognized, every required
// field is present and non-empty, and every required signature slot
// (and the hash slot) is filled (§4.5.2).
func (e *Entry) IsCompliant() error {
	if e.Type != TypeOrganization && e.Type != TypeUser {
		return kcerror.New(kcerror.UnsupportedKeycardType, string(e.Type))
	}
	for _, f := range e.RequiredFields.Items {
		if v, ok := e.Fields[f]; !ok || v == "" {
			return kcerror.NewField(kcerror.RequiredFieldMissing, "required field missing", f)
		}
	}
	for _, slot := range e.SignatureInfo.Items {
		if slot.Kind == SigKindHash {
			if !e.Hash.IsValid() {
				return kcerror.NewField(kcerror.SignatureMissing, "hash missing", slot.Name)
			}
			continue
		}
		v, present := e.Signatures[slot.Name]
		if present && v == "" {
			return kcerror.NewField(kcerror.SignatureMissing, "signature slot present but empty", slot.Name)
		}
		if !slot.Optional && !present {
			return kcerror.NewField(kcerror.SignatureMissing, "required signature missing", slot.Name)
		}
	}
	return nil
}

// Sign produces an Ed25519 signature over MakeByteString(slot's own
// level) and stores it at slot, clearing that slot and every slot
// after it first since they all become stale the moment an earlier
// one is replaced (§4.5.3). The signing key's raw payload is a 32-byte
// Ed25519 seed (§3.2); it is expanded only transiently.
func (e *Entry) Sign(signKey algostring.AlgoString, slot string) error {
	if signKey.Prefix != algostring.ED25519 {
		return kcerror.New(kcerror.UnsupportedEncryptionType, "signing key must be ED25519")
	}
	idx := e.SignatureInfo.IndexOf(slot)
	if idx < 0 {
		return kcerror.New(kcerror.BadParameterValue, "unknown signature slot "+slot)
	}
	seed, err := signKey.RawData()
	if err != nil {
		return err
	}
	if len(seed) != ed25519.SeedSize {
		return kcerror.New(kcerror.BadData, "signing key seed length mismatch")
	}
	priv := ed25519.NewKeyFromSeed(seed)

	for i := idx; i < len(e.SignatureInfo.Items); i++ {
		s := e.SignatureInfo.Items[i]
		if s.Kind == SigKindSignature {
			delete(e.Signatures, s.Name)
		} else {
			e.Hash = algostring.Empty
		}
	}

	level := e.SignatureInfo.Items[idx].Level
	sig := ed25519.Sign(priv, e.MakeByteString(level))
	e.Signatures[slot] = algostring.New(algostring.ED25519, sig).String()
	return nil
}

// GenerateHash hashes MakeByteString(the hash slot's level) under algo
// and stores the result, clearing any signature slot after the hash
// slot since it now depends on a different hash (§4.5.4).
func (e *Entry) GenerateHash(algo string) error {
	idx := -1
	for i, s := range e.SignatureInfo.Items {
		if s.Kind == SigKindHash {
			idx = i
			break
		}
	}
	if idx < 0 {
		return kcerror.New(kcerror.InternalError, "entry descriptor declares no hash slot")
	}

	e.Hash = algostring.Empty
	data := e.MakeByteString(e.SignatureInfo.Items[idx].Level)
	var digest []byte
	switch algo {
	case algostring.BLAKE3_256:
		h := blake3.New()
		h.Write(data)
		digest = h.Sum(nil)
	case algostring.BLAKE2B256:
		sum := blake2b.Sum256(data)
		digest = sum[:]
	case algostring.SHA256:
		sum := sha256.Sum256(data)
		digest = sum[:]
	case algostring.SHA3_256:
		sum := sha3.Sum256(data)
		digest = sum[:]
	default:
		return kcerror.New(kcerror.UnsupportedHashType, algo)
	}
	e.Hash = algostring.New(algo, digest)

	for i := idx + 1; i < len(e.SignatureInfo.Items); i++ {
		if e.SignatureInfo.Items[i].Kind == SigKindSignature {
			delete(e.Signatures, e.SignatureInfo.Items[i].Name)
		}
	}
	return nil
}

// VerifySignature is the inverse of Sign (§4.5.5).
func (e *Entry) VerifySignature(verifyKey algostring.AlgoString, slot string) error {
	if verifyKey.Prefix != algostring.ED25519 {
		return kcerror.New(kcerror.UnsupportedEncryptionType, "verification key must be ED25519")
	}
	idx := e.SignatureInfo.IndexOf(slot)
	if idx < 0 {
		return kcerror.New(kcerror.BadParameterValue, "unknown signature slot "+slot)
	}
	sigText, ok := e.Signatures[slot]
	if !ok || sigText == "" {
		return kcerror.NewField(kcerror.NotCompliant, "signature slot empty", slot)
	}
	sigAS, err := algostring.Parse(sigText)
	if err != nil {
		return err
	}
	if sigAS.Prefix != algostring.ED25519 {
		return kcerror.New(kcerror.UnsupportedEncryptionType, "stored signature is not ED25519")
	}
	sig, err := sigAS.RawData()
	if err != nil {
		return err
	}
	pub, err := verifyKey.RawData()
	if err != nil {
		return err
	}
	if len(pub) != ed25519.PublicKeySize {
		return kcerror.New(kcerror.BadData, "verification key length mismatch")
	}

	// Sign cleared this slot before serializing, so the signed bytes
	// stop just below the slot's own level.
	level := e.SignatureInfo.Items[idx].Level - 1
	if !ed25519.Verify(ed25519.PublicKey(pub), e.MakeByteString(level), sig) {
		return kcerror.New(kcerror.InvalidKeycard, "signature verification failed")
	}
	return nil
}

// previousKeyField names the field on the predecessor entry whose
// value is the public key a Custody signature must verify against
// (§4.5.7): the outgoing primary signing key for organizations, the
// outgoing contact-request verification key for users.
func (e *Entry) previousKeyField() (string, error) {
	switch e.Type {
	case TypeOrganization:
		return "Primary-Verification-Key", nil
	case TypeUser:
		return "Contact-Request-Verification-Key", nil
	default:
		return "", kcerror.New(kcerror.UnsupportedKeycardType, string(e.Type))
	}
}

// VerifyChain checks that e is a valid successor to prev: same type,
// a present Custody signature, prev_hash matching prev's hash, prev
// carrying the expected previous-key field, Index exactly
// prev.Index+1, and the Custody signature verifying against prev's
// key (§4.5.7).
func (e *Entry) VerifyChain(prev *Entry) error {
	if e.Type != prev.Type {
		return kcerror.New(kcerror.InvalidKeycard, "entry type mismatch in chain")
	}
	if v, ok := e.Signatures["Custody"]; !ok || v == "" {
		return kcerror.NewField(kcerror.InvalidKeycard, "custody signature missing", "Custody")
	}
	if !e.PrevHash.Equal(prev.Hash) {
		return kcerror.New(kcerror.InvalidKeycard, "previous-hash mismatch")
	}

	keyField, err := e.previousKeyField()
	if err != nil {
		return err
	}
	prevKeyText, ok := prev.Fields[keyField]
	if !ok || prevKeyText == "" {
		return kcerror.NewField(kcerror.InvalidKeycard, "previous entry missing "+keyField, keyField)
	}

	prevIndex, err := prev.IndexValue()
	if err != nil {
		return err
	}
	curIndex, err := e.IndexValue()
	if err != nil {
		return err
	}
	if curIndex != prevIndex+1 {
		return kcerror.New(kcerror.InvalidKeycard, "entry index compliance failure")
	}

	prevKey, err := algostring.Parse(prevKeyText)
	if err != nil {
		return err
	}
	return e.VerifySignature(prevKey, "Custody")
}

// Chain produces entry prev's successor: new Index, copied fields
// with public-key fields replaced by freshly minted material, and a
// Custody signature over the new entry made with prevSigningKey
// (§4.5.6). Dispatches to the type-specific key-replacement rules in
// org.go/user.go. The caller still owes the new entry its terminal
// signature (and, for the hash slot in between, GenerateHash) before
// it is compliant — exactly as for a freshly built root entry.
func (e *Entry) Chain(prevSigningKey algostring.AlgoString, rotateOptional bool) (*Entry, *KeyBundle, error) {
	switch e.Type {
	case TypeOrganization:
		return chainOrganization(e, prevSigningKey, rotateOptional)
	case TypeUser:
		return chainUser(e, prevSigningKey, rotateOptional)
	default:
		return nil, nil, kcerror.New(kcerror.UnsupportedKeycardType, string(e.Type))
	}
}
