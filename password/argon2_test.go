package password

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgon2RoundTrip(t *testing.T) {
	a, err := NewArgon2(Config{Memory: 65536, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	digest, err := a.Hash("P@ssw0rd-Ascii")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=65536,t=3,p=2$"), digest)
	require.NotContains(t, digest, "=$", "salt and key are unpadded")

	ok, err := a.Verify("P@ssw0rd-Ascii", digest)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Verify("P@ssw0rd-ascii", digest)
	require.NoError(t, err)
	require.False(t, ok)

	again, err := a.Hash("P@ssw0rd-Ascii")
	require.NoError(t, err)
	require.NotEqual(t, digest, again, "salts must differ")
}

func TestArgon2AcceptsPaddedDigest(t *testing.T) {
	a, err := NewArgon2(fastConfig())
	require.NoError(t, err)

	digest, err := a.Hash("padded-input-1")
	require.NoError(t, err)

	parts := strings.Split(digest, "$")
	salt, err := decodeB64(parts[4])
	require.NoError(t, err)
	key, err := decodeB64(parts[5])
	require.NoError(t, err)
	parts[4] = b64Padded(salt)
	parts[5] = b64Padded(key)

	ok, err := a.Verify("padded-input-1", strings.Join(parts, "$"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(fastConfig())
	require.NoError(t, err)
	digest, err := weak.Hash("upgrade-me-1")
	require.NoError(t, err)

	upgrade, err := weak.NeedsUpgrade(digest)
	require.NoError(t, err)
	require.False(t, upgrade)

	stronger := fastConfig()
	stronger.Memory = 16 * 1024
	strong, err := NewArgon2(stronger)
	require.NoError(t, err)
	upgrade, err = strong.NeedsUpgrade(digest)
	require.NoError(t, err)
	require.True(t, upgrade)

	longerKey := fastConfig()
	longerKey.KeyLength = 64
	other, err := NewArgon2(longerKey)
	require.NoError(t, err)
	upgrade, err = other.NeedsUpgrade(digest)
	require.NoError(t, err)
	require.True(t, upgrade)
}

func TestArgon2MalformedDigests(t *testing.T) {
	a, err := NewArgon2(fastConfig())
	require.NoError(t, err)
	good, err := a.Hash("malformed-base-1")
	require.NoError(t, err)

	tests := map[string]string{
		"not phc":          "not-a-phc-hash",
		"other algorithm":  strings.Replace(good, "$argon2id$", "$argon2i$", 1),
		"old version":      strings.Replace(good, "$v=19$", "$v=16$", 1),
		"params reordered": strings.Replace(good, "m=8192,t=1,p=1", "t=1,m=8192,p=1", 1),
		"memory too low":   strings.Replace(good, "m=8192", "m=1024", 1),
		"missing section":  good[:strings.LastIndex(good, "$")],
		"bad salt":         strings.Replace(good, "p=1$", "p=1$!!", 1),
		"empty":            "",
	}
	for name, digest := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Verify("malformed-base-1", digest)
			require.ErrorIs(t, err, ErrMalformedDigest)
		})
	}
}

func TestArgon2LengthLimits(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	a, err := NewArgon2(cfg)
	require.NoError(t, err)

	_, err = a.Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = a.Hash(strings.Repeat("a", 65))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	exact := strings.Repeat("b", 64)
	digest, err := a.Hash(exact)
	require.NoError(t, err)
	ok, err := a.Verify(exact, digest)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = a.Verify(strings.Repeat("c", 65), digest)
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestArgon2DefaultMaxLength(t *testing.T) {
	a, err := NewArgon2(fastConfig())
	require.NoError(t, err)

	_, err = a.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = a.Hash(strings.Repeat("e", DefaultMaxPasswordBytes))
	require.NoError(t, err)
}

func TestArgon2ConfigFloors(t *testing.T) {
	mutate := []func(*Config){
		func(c *Config) { c.Memory = 1024 },
		func(c *Config) { c.Time = 0 },
		func(c *Config) { c.Parallelism = 0 },
		func(c *Config) { c.SaltLength = 8 },
		func(c *Config) { c.KeyLength = 8 },
		func(c *Config) { c.MaxPasswordBytes = -1 },
	}
	for i, m := range mutate {
		cfg := fastConfig()
		m(&cfg)
		_, err := NewArgon2(cfg)
		require.Error(t, err, "case %d", i)
	}
}

func b64Padded(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
