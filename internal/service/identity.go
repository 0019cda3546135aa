package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// unknownAddressToken is the sentinel hashed for requests whose client address
// is missing or unparsable; those requests all share one anonymous bucket.
const unknownAddressToken = "unknown-address"

// IdentityKey is the value used to correlate submissions for rate limiting.
// Exactly one of UserID or AnonHash is populated.
type IdentityKey struct {
	UserID   string
	AnonHash string
}

// Anonymous reports whether the key was derived from a client address.
func (k IdentityKey) Anonymous() bool {
	return k.UserID == ""
}

// RateKey renders the storage representation of the identity key.
func (k IdentityKey) RateKey() string {
	if k.UserID != "" {
		return "user:" + k.UserID
	}
	return "anon:" + k.AnonHash
}

// IdentityResolver derives a stable rate-limiting key for a requester.
// Anonymous requesters are keyed by a keyed one-way hash of their network
// address so raw addresses are never persisted.
type IdentityResolver struct {
	secret []byte
}

// NewIdentityResolver constructs a resolver with the process-wide hashing secret.
func NewIdentityResolver(secret string) *IdentityResolver {
	return &IdentityResolver{secret: []byte(secret)}
}

// Resolve produces the identity key for a request. It never fails.
func (r *IdentityResolver) Resolve(userID, clientAddr string) IdentityKey {
	if uid := strings.TrimSpace(userID); uid != "" {
		return IdentityKey{UserID: uid}
	}

	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(canonicalAddress(clientAddr)))

	return IdentityKey{AnonHash: hex.EncodeToString(mac.Sum(nil))}
}

func canonicalAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownAddressToken
	}

	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}

	ip := net.ParseIP(raw)
	if ip == nil {
		return unknownAddressToken
	}

	return ip.String()
}
