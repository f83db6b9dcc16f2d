package entry

import (
	"strconv"

	"github.com/darkwyrm/gostringlist"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
	"github.com/darkwyrm/libkeycard/pkg/keys"
)

// NewUserEntry constructs an empty User entry with its field order,
// required fields, and signature slots filled in (§3.6). Index
// defaults to "1" and Time-To-Live to the 7-day default (§3.4).
func NewUserEntry() *Entry {
	e := &Entry{
		Type:       TypeUser,
		Fields:     make(map[string]string),
		Signatures: make(map[string]string),
		FieldNames: gostringlist.StringList{Items: []string{
			"Index", "Name", "Workspace-ID", "User-ID", "Domain",
			"Contact-Request-Verification-Key", "Contact-Request-Encryption-Key",
			"Public-Encryption-Key", "Alternate-Encryption-Key",
			"Time-To-Live", "Expires",
		}},
		RequiredFields: gostringlist.StringList{Items: []string{
			"Index", "Workspace-ID", "Domain", "Contact-Request-Verification-Key",
			"Contact-Request-Encryption-Key", "Public-Encryption-Key",
			"Time-To-Live", "Expires",
		}},
		SignatureInfo: SigSlotList{Items: []SigSlot{
			{Name: "Custody", Level: 1, Optional: true, Kind: SigKindSignature},
			{Name: "Organization", Level: 2, Optional: false, Kind: SigKindSignature},
			{Name: "Hashes", Level: 3, Optional: false, Kind: SigKindHash},
			{Name: "User", Level: 4, Optional: false, Kind: SigKindSignature},
		}},
	}
	e.Fields["Index"] = "1"
	e.Fields["Time-To-Live"] = "7"
	return e
}

// chainUser implements the User key-replacement rules of §4.5.6:
// always mint a new primary signing pair (used later by the caller to
// produce the entry's own terminal User signature; it has no field of
// its own on a User entry) and a new contact-request signing+
// encryption pair, written into Contact-Request-Verification-Key and
// Contact-Request-Encryption-Key. When rotateOptional, also mint a
// new public-encryption pair and alternate-encryption pair; otherwise
// those two fields carry over from prev unchanged.
func chainUser(prev *Entry, prevSigningKey algostring.AlgoString, rotateOptional bool) (*Entry, *KeyBundle, error) {
	prevIndex, err := prev.IndexValue()
	if err != nil {
		return nil, nil, err
	}

	next := NewUserEntry()
	for k, v := range prev.Fields {
		next.Fields[k] = v
	}
	next.Fields["Index"] = strconv.FormatUint(prevIndex+1, 10)
	next.PrevHash = prev.Hash

	signPair, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, nil, kcerror.Wrap(err)
	}
	crSignPair, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, nil, kcerror.Wrap(err)
	}
	crEncPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		return nil, nil, kcerror.Wrap(err)
	}

	bundle := &KeyBundle{
		SignPublic:       signPair.PublicAlgoString(),
		SignPrivate:      signPair.PrivateAlgoString(),
		CRSignPublic:     crSignPair.PublicAlgoString(),
		CRSignPrivate:    crSignPair.PrivateAlgoString(),
		CREncryptPublic:  crEncPair.PublicAlgoString(),
		CREncryptPrivate: crEncPair.PrivateAlgoString(),
	}
	next.Fields["Contact-Request-Verification-Key"] = bundle.CRSignPublic.String()
	next.Fields["Contact-Request-Encryption-Key"] = bundle.CREncryptPublic.String()

	if rotateOptional {
		encPair, err := keys.GenerateEncryptionPair()
		if err != nil {
			return nil, nil, kcerror.Wrap(err)
		}
		altEncPair, err := keys.GenerateEncryptionPair()
		if err != nil {
			return nil, nil, kcerror.Wrap(err)
		}
		bundle.EncryptPublic = encPair.PublicAlgoString()
		bundle.EncryptPrivate = encPair.PrivateAlgoString()
		bundle.AltEncryptPublic = altEncPair.PublicAlgoString()
		bundle.AltEncryptPrivate = altEncPair.PrivateAlgoString()
		next.Fields["Public-Encryption-Key"] = bundle.EncryptPublic.String()
		next.Fields["Alternate-Encryption-Key"] = bundle.AltEncryptPublic.String()
	}

	if err := next.Sign(prevSigningKey, "Custody"); err != nil {
		return nil, nil, err
	}
	return next, bundle, nil
}
