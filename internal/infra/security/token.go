package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Session tokens are opaque bearer credentials: raw entropy, base64url, and
// a fixed prefix so a leaked token is recognizable in logs and support
// tickets without being decodable. Nothing about the member is encoded in
// the token; the session store is the single source of truth.
const (
	tokenPrefix      = "frt_"
	defaultTokenSize = 32
)

type RandomTokenGenerator struct {
	// Size is the entropy length in bytes before encoding; zero means 32.
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = defaultTokenSize
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
