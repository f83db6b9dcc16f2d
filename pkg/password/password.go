// Package password implements the Argon2id password value object
// (§3.3, §4.3): complexity scoring, strength classification, PHC-format
// persistence, and constant-time verification.
//
// Grounded on the antness passwd reference (other_examples), which
// parses Argon2id PHC strings field by field and type-switches on the
// declared algorithm; this package narrows that to the single
// Argon2id profile the spec calls for.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// Interactive Argon2id parameters (§4.3: "interactive parameters").
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Strength is one of the five classification labels (§3.3).
type Strength string

const (
	VeryWeak   Strength = "very weak"
	Weak       Strength = "weak"
	Medium     Strength = "medium"
	Strong     Strength = "strong"
	VeryStrong Strength = "very strong"
)

// punctuationClass is the set of characters counted toward the
// "punctuation" complexity bucket (§4.3).
const punctuationClass = `~!@#$%^&*()_={}/<>,.:;|'[]"\-+?`

// Password is the persisted password value object (§3.3). HashString
// is the sole persisted representation; HashType is always "argon2id".
type Password struct {
	HashType   string
	HashString string
	Strength   Strength
}

// Set checks the complexity of plaintext and, if accepted, computes
// its Argon2id PHC-string hash. The strength label is computed from
// the complexity score regardless of acceptance, so a caller can
// surface a live strength indicator even for a rejected candidate —
// the returned Password's Strength field is valid on both the
// success and BadParameterValue-rejection paths.
func Set(plaintext string) (Password, error) {
	score := complexityScore(plaintext)
	strength := strengthFromScore(score)

	if len(plaintext) < 8 {
		return Password{Strength: strength}, kcerror.New(kcerror.BadParameterValue, "password shorter than 8 characters")
	}
	if score < 2 || (len(plaintext) < 12 && score < 3) {
		return Password{Strength: strength}, kcerror.New(kcerror.BadParameterValue, "password does not meet complexity requirements")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return Password{}, kcerror.Wrap(err)
	}
	hash := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return Password{
		HashType:   "argon2id",
		HashString: encodePHC(argonParams{Memory: argonMemory, Time: argonTime, Threads: argonThreads}, salt, hash),
		Strength:   strength,
	}, nil
}

// Assign trusts and stores phc directly, without complexity checking —
// used when loading an already-hashed password from the profile DB.
func Assign(phc string) Password {
	return Password{HashType: "argon2id", HashString: phc}
}

// Check performs a constant-time Argon2id verification of plaintext
// against the stored PHC string, using the parameters embedded in the
// string rather than the package's current defaults (so a password
// hashed under older parameters still verifies).
func (p Password) Check(plaintext string) error {
	params, salt, hash, err := decodePHC(p.HashString)
	if err != nil {
		return err
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, params.Time, params.Memory, params.Threads, uint32(len(hash)))
	if subtle.ConstantTimeCompare(candidate, hash) != 1 {
		return kcerror.New(kcerror.BadParameterValue, "password does not match")
	}
	return nil
}

// complexityScore increments once for each of five character classes
// present in s: non-ASCII content, digits, uppercase letters,
// lowercase letters, punctuation-class characters (§4.3).
func complexityScore(s string) int {
	var hasNonASCII, hasDigit, hasUpper, hasLower, hasPunct bool
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			hasNonASCII = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case strings.ContainsRune(punctuationClass, r):
			hasPunct = true
		}
	}
	score := 0
	for _, present := range []bool{hasNonASCII, hasDigit, hasUpper, hasLower, hasPunct} {
		if present {
			score++
		}
	}
	return score
}

func strengthFromScore(score int) Strength {
	switch {
	case score <= 1:
		return VeryWeak
	case score == 2:
		return Weak
	case score == 3:
		return Medium
	case score == 4:
		return Strong
	default:
		return VeryStrong
	}
}
