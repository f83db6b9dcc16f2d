package entry

import (
	"strconv"

	"github.com/darkwyrm/gostringlist"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
	"github.com/darkwyrm/libkeycard/pkg/keys"
)

// NewOrganizationEntry constructs an empty Organization entry with its
// field order, required fields, and signature slots filled in (§3.5).
// Index defaults to "1" and Time-To-Live to the 30-day default
// (§3.4); callers fill in the rest and call SetExpiration.
func NewOrganizationEntry() *Entry {
	e := &Entry{
		Type:       TypeOrganization,
		Fields:     make(map[string]string),
		Signatures: make(map[string]string),
		FieldNames: gostringlist.StringList{Items: []string{
			"Index", "Name", "Contact-Admin", "Contact-Abuse", "Contact-Support",
			"Language", "Primary-Verification-Key", "Secondary-Verification-Key",
			"Encryption-Key", "Time-To-Live", "Expires",
		}},
		RequiredFields: gostringlist.StringList{Items: []string{
			"Index", "Name", "Contact-Admin", "Primary-Verification-Key",
			"Encryption-Key", "Time-To-Live", "Expires",
		}},
		SignatureInfo: SigSlotList{Items: []SigSlot{
			{Name: "Custody", Level: 1, Optional: true, Kind: SigKindSignature},
			{Name: "Organization", Level: 2, Optional: false, Kind: SigKindSignature},
			{Name: "Hashes", Level: 3, Optional: false, Kind: SigKindHash},
		}},
	}
	e.Fields["Index"] = "1"
	e.Fields["Time-To-Live"] = "30"
	return e
}

// chainOrganization implements the Organization key-replacement rules
// of §4.5.6: always mint a new primary signing pair and a new
// encryption pair; mint a new secondary signing pair only when
// rotateOptional, otherwise the outgoing primary demotes to secondary.
func chainOrganization(prev *Entry, prevSigningKey algostring.AlgoString, rotateOptional bool) (*Entry, *KeyBundle, error) {
	prevIndex, err := prev.IndexValue()
	if err != nil {
		return nil, nil, err
	}

	next := NewOrganizationEntry()
	for k, v := range prev.Fields {
		next.Fields[k] = v
	}
	next.Fields["Index"] = strconv.FormatUint(prevIndex+1, 10)
	next.PrevHash = prev.Hash

	signPair, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, nil, kcerror.Wrap(err)
	}
	encPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		return nil, nil, kcerror.Wrap(err)
	}

	bundle := &KeyBundle{
		SignPublic:     signPair.PublicAlgoString(),
		SignPrivate:    signPair.PrivateAlgoString(),
		EncryptPublic:  encPair.PublicAlgoString(),
		EncryptPrivate: encPair.PrivateAlgoString(),
	}
	next.Fields["Primary-Verification-Key"] = bundle.SignPublic.String()
	next.Fields["Encryption-Key"] = bundle.EncryptPublic.String()

	if rotateOptional {
		altPair, err := keys.GenerateSigningPair()
		if err != nil {
			return nil, nil, kcerror.Wrap(err)
		}
		bundle.AltSignPublic = altPair.PublicAlgoString()
		bundle.AltSignPrivate = altPair.PrivateAlgoString()
		next.Fields["Secondary-Verification-Key"] = bundle.AltSignPublic.String()
	} else {
		next.Fields["Secondary-Verification-Key"] = prev.Fields["Primary-Verification-Key"]
	}

	if err := next.Sign(prevSigningKey, "Custody"); err != nil {
		return nil, nil, err
	}
	return next, bundle, nil
}
