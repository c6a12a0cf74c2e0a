package api

import (
	"crypto/subtle"
	"strings"

	"shareit/internal/config"
)

// keyRing resolves presented API keys to configured clients.
type keyRing struct {
	keys []config.APIClientKey
}

func newKeyRing(keys []config.APIClientKey) *keyRing {
	return &keyRing{keys: keys}
}

// lookup compares against every key in constant time so the position of a
// match does not leak through timing.
func (r *keyRing) lookup(presented string) (config.APIClientKey, bool) {
	var (
		found config.APIClientKey
		ok    bool
	)
	for _, k := range r.keys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(presented)) == 1 {
			found, ok = k, true
		}
	}
	return found, ok
}

// bearerToken extracts the token from an "Authorization: Bearer ..." value.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func headerName(cfg config.APIAuthConfig) string {
	name := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if name == "" {
		return "x-api-key"
	}
	return name
}
