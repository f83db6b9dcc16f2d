package password

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// argonParams holds the Argon2id cost parameters embedded in a PHC
// string, so that Check can verify against whatever parameters a
// password was originally hashed with.
type argonParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
}

var phcB64 = base64.RawStdEncoding

// encodePHC assembles a self-describing Argon2id PHC string:
// $argon2id$v=<version>$m=<kib>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func encodePHC(p argonParams, salt, hash []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		phcB64.EncodeToString(salt), phcB64.EncodeToString(hash))
}

// decodePHC parses a PHC string produced by encodePHC.
func decodePHC(s string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(s, "$")
	// Split on a leading "$argon2id$..." yields a leading empty
	// element, then algorithm, version, params, salt, hash.
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, kcerror.New(kcerror.BadData, "malformed PHC string")
	}

	var params argonParams
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return argonParams{}, nil, nil, kcerror.New(kcerror.BadData, "malformed PHC parameter: "+kv)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return argonParams{}, nil, nil, kcerror.New(kcerror.BadData, "malformed PHC parameter value: "+kv)
		}
		switch k {
		case "m":
			params.Memory = uint32(n)
		case "t":
			params.Time = uint32(n)
		case "p":
			params.Threads = uint8(n)
		}
	}
	if params.Memory == 0 || params.Time == 0 || params.Threads == 0 {
		return argonParams{}, nil, nil, kcerror.New(kcerror.BadData, "incomplete PHC parameters")
	}

	salt, err := phcB64.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, kcerror.New(kcerror.BadData, "malformed PHC salt: "+err.Error())
	}
	hash, err := phcB64.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, kcerror.New(kcerror.BadData, "malformed PHC hash: "+err.Error())
	}
	return params, salt, hash, nil
}
