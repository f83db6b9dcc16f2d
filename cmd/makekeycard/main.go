// Command makekeycard drives the full "make keycard" flow end to end:
// it builds a root Organization or User entry from flags, mints the
// required key material, writes key files and a keycard file to a
// target directory, and prints the resulting entry's fingerprint
// summary.
//
// A standalone root User entry needs an issuing organization's
// counter-signature on its Organization slot (§3.6's signature
// order runs Custody, Organization, Hashes, User). Since this tool has
// no separate organization participant to call out to, -type=user
// also mints a throwaway organization signing key purely to produce
// that counter-signature, standing in for an external issuer in this
// self-contained demo flow; it is written alongside the user's own
// signing key so the run is reproducible.
//
// Usage:
//
//	makekeycard -type=organization -name="Example Org" -admin=admin@example.com -out=./out
//	makekeycard -type=user -workspace-id=4418bf6c-000b-4bb3-8111-316e72030468 -domain=example.com -out=./out
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/clock"
	"github.com/darkwyrm/libkeycard/pkg/entry"
	"github.com/darkwyrm/libkeycard/pkg/keycard"
	"github.com/darkwyrm/libkeycard/pkg/keys"
)

func main() {
	entryType := flag.String("type", "organization", "entry type to build: organization or user")
	outDir := flag.String("out", ".", "directory to write key files and the keycard into")
	force := flag.Bool("force", false, "overwrite existing files in -out")
	showPrivate := flag.Bool("show-private", false, "print raw private keys (off by default)")
	hashAlgo := flag.String("hash", algostring.BLAKE3_256, "hash algorithm for the entry (BLAKE3-256, BLAKE2B-256, SHA-256, SHA3-256)")
	expireDays := flag.Int("expire-days", -1, "entry lifetime in days (-1 uses the type default)")

	name := flag.String("name", "", "organization name (type=organization)")
	admin := flag.String("admin", "", "contact-admin address (type=organization)")
	abuse := flag.String("abuse", "", "contact-abuse address (type=organization, optional)")
	support := flag.String("support", "", "contact-support address (type=organization, optional)")

	workspaceID := flag.String("workspace-id", "", "workspace ID (type=user)")
	userID := flag.String("user-id", "", "human-readable user ID (type=user, optional)")
	domain_ := flag.String("domain", "", "domain (type=user)")

	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := os.MkdirAll(*outDir, 0o700); err != nil {
		log.Error("create output directory", "error", err)
		os.Exit(1)
	}

	var root *entry.Entry
	var primary keys.SigningPair
	var fingerprintFields []any

	switch *entryType {
	case "organization":
		var err error
		root, primary, err = buildOrganization(*name, *admin, *abuse, *support, *expireDays)
		if err != nil {
			log.Error("build organization entry", "error", err)
			os.Exit(1)
		}
		if err := root.Sign(primary.PrivateAlgoString(), "Organization"); err != nil {
			log.Error("sign Organization", "error", err)
			os.Exit(1)
		}
		if err := root.GenerateHash(*hashAlgo); err != nil {
			log.Error("generate hash", "error", err)
			os.Exit(1)
		}
		if err := primary.Save(filepath.Join(*outDir, "signing.key"), *force); err != nil {
			log.Error("save signing key", "error", err)
			os.Exit(1)
		}

	case "user":
		var issuer keys.SigningPair
		var err error
		root, primary, issuer, err = buildUser(*workspaceID, *userID, *domain_, *expireDays)
		if err != nil {
			log.Error("build user entry", "error", err)
			os.Exit(1)
		}
		if err := root.Sign(issuer.PrivateAlgoString(), "Organization"); err != nil {
			log.Error("sign Organization", "error", err)
			os.Exit(1)
		}
		if err := root.GenerateHash(*hashAlgo); err != nil {
			log.Error("generate hash", "error", err)
			os.Exit(1)
		}
		if err := root.Sign(primary.PrivateAlgoString(), "User"); err != nil {
			log.Error("sign User", "error", err)
			os.Exit(1)
		}
		if err := primary.Save(filepath.Join(*outDir, "signing.key"), *force); err != nil {
			log.Error("save signing key", "error", err)
			os.Exit(1)
		}
		if err := issuer.Save(filepath.Join(*outDir, "issuer-signing.key"), *force); err != nil {
			log.Error("save issuer signing key", "error", err)
			os.Exit(1)
		}
		fingerprintFields = append(fingerprintFields, "issuer_fingerprint", issuer.Fingerprint())
		if *showPrivate {
			log.Warn("printing raw private key material", "private_issuer_signing_key", issuer.PrivateAlgoString().String())
		}

	default:
		log.Error("unrecognized -type", "type", *entryType)
		os.Exit(1)
	}

	if err := root.IsCompliant(); err != nil {
		log.Error("entry not compliant", "error", err)
		os.Exit(1)
	}

	k := &keycard.Keycard{Type: root.Type, Entries: []*entry.Entry{root}}
	if err := k.Save(filepath.Join(*outDir, "card.keycard"), *force); err != nil {
		log.Error("save keycard", "error", err)
		os.Exit(1)
	}

	fields := append([]any{"type", root.Type, "out", *outDir, "signing_fingerprint", primary.Fingerprint()}, fingerprintFields...)
	log.Info("keycard written", fields...)
	if *showPrivate {
		log.Warn("printing raw private key material", "private_signing_key", primary.PrivateAlgoString().String())
	}
}

func buildOrganization(name, admin, abuse, support string, expireDays int) (*entry.Entry, keys.SigningPair, error) {
	if name == "" || admin == "" {
		return nil, keys.SigningPair{}, flagErrorf("-name and -admin are required for -type=organization")
	}

	signPair, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, keys.SigningPair{}, err
	}
	encPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		return nil, keys.SigningPair{}, err
	}

	e := entry.NewOrganizationEntry()
	fields := map[string]string{
		"Name":                      name,
		"Contact-Admin":             admin,
		"Primary-Verification-Key": signPair.PublicAlgoString().String(),
		"Encryption-Key":            encPair.PublicAlgoString().String(),
	}
	if abuse != "" {
		fields["Contact-Abuse"] = abuse
	}
	if support != "" {
		fields["Contact-Support"] = support
	}
	if err := e.SetFields(fields); err != nil {
		return nil, keys.SigningPair{}, err
	}
	if err := e.SetExpiration(clock.NewReal(), expireDays); err != nil {
		return nil, keys.SigningPair{}, err
	}
	return e, signPair, nil
}

func buildUser(workspaceID, userID, domain string, expireDays int) (*entry.Entry, keys.SigningPair, keys.SigningPair, error) {
	if workspaceID == "" || domain == "" {
		return nil, keys.SigningPair{}, keys.SigningPair{}, flagErrorf("-workspace-id and -domain are required for -type=user")
	}

	primary, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}
	issuer, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}
	crSignPair, err := keys.GenerateSigningPair()
	if err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}
	crEncPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}
	encPair, err := keys.GenerateEncryptionPair()
	if err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}

	e := entry.NewUserEntry()
	fields := map[string]string{
		"Workspace-ID":                      workspaceID,
		"Domain":                            domain,
		"Contact-Request-Verification-Key": crSignPair.PublicAlgoString().String(),
		"Contact-Request-Encryption-Key":   crEncPair.PublicAlgoString().String(),
		"Public-Encryption-Key":             encPair.PublicAlgoString().String(),
	}
	if userID != "" {
		fields["User-ID"] = userID
	}
	if err := e.SetFields(fields); err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}
	if err := e.SetExpiration(clock.NewReal(), expireDays); err != nil {
		return nil, keys.SigningPair{}, keys.SigningPair{}, err
	}
	return e, primary, issuer, nil
}

// isValidEntryType mirrors the -type cases main's switch recognizes.
func isValidEntryType(t string) bool {
	switch t {
	case "organization", "user":
		return true
	default:
		return false
	}
}

type flagError string

func (e flagError) Error() string { return string(e) }

func flagErrorf(msg string) error { return flagError(msg) }
