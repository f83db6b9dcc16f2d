// Package keycard implements the ordered, append-only entry history
// (C6): growth via chain only, full-chain verification, and bulk
// save/load using the BEGIN/END ENTRY file framing (§4.6, §6.2).
//
// Grounded on the Anselus keycard port's Keycard type, whose load used
// a hand-rolled line scanner; the framing state machine here is
// rewritten against the same BEGIN/END ENTRY markers but built on
// strings.Cut rather than repeating the port's colon-splitting bug.
package keycard

import (
	"os"
	"strings"

	"github.com/darkwyrm/libkeycard/pkg/algostring"
	"github.com/darkwyrm/libkeycard/pkg/entry"
	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

const (
	beginEntryMarker = "----- BEGIN ENTRY -----"
	endEntryMarker   = "----- END ENTRY -----"

	keycardFilePerm = 0o600
)

// Keycard is the ordered history of entries for one principal. All
// entries share Type; the zero value is an empty keycard with no type
// yet committed (Load sets it from the first entry it reads).
type Keycard struct {
	Type    entry.Type
	Entries []*entry.Entry
}

// Chain grows the keycard by one entry (§4.6): delegate to the current
// last entry's Chain, append the result (still missing its
// Organization/User terminal signature and hash), and return it by
// reference along with the freshly minted key bundle so the caller can
// finish signing it in place — exactly as it would a root entry.
func (k *Keycard) Chain(prevSigningKey algostring.AlgoString, rotateOptional bool) (*entry.Entry, *entry.KeyBundle, error) {
	if len(k.Entries) == 0 {
		return nil, nil, kcerror.New(kcerror.ResourceNotFound, "keycard has no root entry to chain from")
	}
	last := k.Entries[len(k.Entries)-1]
	next, bundle, err := last.Chain(prevSigningKey, rotateOptional)
	if err != nil {
		return nil, nil, err
	}
	k.Entries = append(k.Entries, next)
	return next, bundle, nil
}

// Verify checks the full chain (§4.6): an empty keycard is
// ResourceNotFound, a single root entry is trivially OK, and a longer
// card is verified pairwise with VerifyChain.
func (k *Keycard) Verify() error {
	if len(k.Entries) == 0 {
		return kcerror.New(kcerror.ResourceNotFound, "keycard has no entries")
	}
	if len(k.Entries) == 1 {
		return nil
	}
	for i := 1; i < len(k.Entries); i++ {
		if err := k.Entries[i].VerifyChain(k.Entries[i-1]); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the keycard as BEGIN/END ENTRY-framed entries (§6.2).
// Refuses to overwrite an existing file unless clobber is set.
func (k *Keycard) Save(path string, clobber bool) error {
	if !clobber {
		if _, err := os.Stat(path); err == nil {
			return kcerror.New(kcerror.ResourceExists, path)
		} else if !os.IsNotExist(err) {
			return kcerror.Wrap(err)
		}
	}

	var buf strings.Builder
	for _, e := range k.Entries {
		buf.WriteString(beginEntryMarker)
		buf.WriteString("\r\n")
		buf.Write(e.MakeByteString(-1))
		buf.WriteString(endEntryMarker)
		buf.WriteString("\r\n")
	}

	if err := os.WriteFile(path, []byte(buf.String()), keycardFilePerm); err != nil {
		return kcerror.Wrap(err)
	}
	return nil
}

// Load reads a keycard file (§6.2) back into entries. The first
// Type: line seen fixes the keycard's type; any entry carrying a
// different type is rejected as BadData, per the "mixed-type cards
// are invalid" rule.
func Load(path string) (*Keycard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kcerror.New(kcerror.ResourceNotFound, path)
		}
		return nil, kcerror.Wrap(err)
	}

	raw := string(data)
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' && (i == 0 || raw[i-1] != '\r') {
			return nil, kcerror.New(kcerror.BadData, "keycard contains a lone line feed")
		}
	}
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	k := &Keycard{}
	var accum strings.Builder
	inEntry := false

	for _, line := range lines {
		switch {
		case line == beginEntryMarker:
			if inEntry {
				return nil, kcerror.New(kcerror.BadData, "nested BEGIN ENTRY marker")
			}
			inEntry = true
			accum.Reset()
		case line == endEntryMarker:
			if !inEntry {
				return nil, kcerror.New(kcerror.BadData, "END ENTRY marker without BEGIN")
			}
			inEntry = false

			entryType, err := sniffType(accum.String())
			if err != nil {
				return nil, err
			}
			if len(k.Entries) == 0 {
				k.Type = entryType
			} else if entryType != k.Type {
				return nil, kcerror.New(kcerror.BadData, "mixed entry types in keycard")
			}

			e, err := newTypedEntry(entryType)
			if err != nil {
				return nil, err
			}
			if err := e.Set([]byte(accum.String())); err != nil {
				return nil, err
			}
			k.Entries = append(k.Entries, e)
		case inEntry:
			if line == "" {
				continue
			}
			accum.WriteString(line)
			accum.WriteString("\r\n")
		case line == "":
			// blank line between frames, ignore
		default:
			return nil, kcerror.New(kcerror.BadData, "data outside BEGIN/END ENTRY framing")
		}
	}
	if inEntry {
		return nil, kcerror.New(kcerror.BadData, "unterminated entry: missing END ENTRY marker")
	}

	return k, nil
}

// sniffType extracts the Type: value from a field block without fully
// parsing it, so Load can pick the right concrete entry before calling
// Set.
func sniffType(block string) (entry.Type, error) {
	for _, line := range strings.Split(strings.TrimSuffix(block, "\r\n"), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if ok && name == "Type" {
			return entry.Type(value), nil
		}
	}
	return "", kcerror.New(kcerror.BadData, "entry has no Type field")
}

func newTypedEntry(t entry.Type) (*entry.Entry, error) {
	switch t {
	case entry.TypeOrganization:
		return entry.NewOrganizationEntry(), nil
	case entry.TypeUser:
		return entry.NewUserEntry(), nil
	default:
		return nil, kcerror.New(kcerror.UnsupportedKeycardType, string(t))
	}
}
