package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePrefersAuthenticatedUser(t *testing.T) {
	resolver := NewIdentityResolver("s3cret")

	key := resolver.Resolve("42", "203.0.113.7")
	require.False(t, key.Anonymous())
	require.Equal(t, "user:42", key.RateKey())
	require.Empty(t, key.AnonHash)
}

func TestResolveHashesAnonymousAddress(t *testing.T) {
	resolver := NewIdentityResolver("s3cret")

	key := resolver.Resolve("", "203.0.113.7")
	require.True(t, key.Anonymous())
	require.Empty(t, key.UserID)
	require.Len(t, key.AnonHash, 64)
	require.NotContains(t, key.AnonHash, "203.0.113.7")
	require.True(t, strings.HasPrefix(key.RateKey(), "anon:"))

	// Stable for the same address, distinct across addresses.
	require.Equal(t, key.AnonHash, resolver.Resolve("", "203.0.113.7").AnonHash)
	require.NotEqual(t, key.AnonHash, resolver.Resolve("", "203.0.113.8").AnonHash)
}

func TestResolveStripsPortAndNormalizes(t *testing.T) {
	resolver := NewIdentityResolver("s3cret")

	bare := resolver.Resolve("", "203.0.113.7")
	withPort := resolver.Resolve("", "203.0.113.7:54321")
	require.Equal(t, bare.AnonHash, withPort.AnonHash)
}

func TestResolveSentinelBucketForBadAddresses(t *testing.T) {
	resolver := NewIdentityResolver("s3cret")

	empty := resolver.Resolve("", "")
	garbage := resolver.Resolve("", "not-an-address")
	padded := resolver.Resolve("", "   ")

	require.Equal(t, empty.AnonHash, garbage.AnonHash)
	require.Equal(t, empty.AnonHash, padded.AnonHash)
	require.NotEmpty(t, empty.AnonHash)
}

func TestResolveSecretChangesHash(t *testing.T) {
	first := NewIdentityResolver("secret-a").Resolve("", "203.0.113.7")
	second := NewIdentityResolver("secret-b").Resolve("", "203.0.113.7")
	require.NotEqual(t, first.AnonHash, second.AnonHash)
}
