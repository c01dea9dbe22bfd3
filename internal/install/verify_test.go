package install

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"       //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := []byte("archive bytes")
	require.NoError(t, afero.WriteFile(fs, "/a.zip", body, 0o644))
	sum := sha512Hex(body)

	v := NewVerifier(fs)
	assert.NoError(t, v.VerifyFile("/a.zip", sum))

	upper := bytes.ToUpper([]byte(sum))
	assert.NoError(t, v.VerifyFile("/a.zip", string(upper)), "comparison ignores case")

	err := v.VerifyFile("/a.zip", sha512Hex([]byte("other")))
	var mismatch *ChecksumMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, sum, mismatch.Actual)

	assert.Error(t, v.VerifyFile("/missing.zip", sum))
}

func newSigner(t *testing.T) (*openpgp.Entity, []byte) {
	t.Helper()
	entity, err := openpgp.NewEntity("Release Signer", "test", "signer@example.com", nil)
	require.NoError(t, err)

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())
	return entity, pub.Bytes()
}

func TestVerifyManifest(t *testing.T) {
	entity, pub := newSigner(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/keyring.asc", pub, 0o644))

	manifest := []byte("abcd  Godot_v4.2-stable_linux.x86_64.zip\n")

	var armored bytes.Buffer
	require.NoError(t, openpgp.ArmoredDetachSign(&armored, entity, bytes.NewReader(manifest), nil))
	var binary bytes.Buffer
	require.NoError(t, openpgp.DetachSign(&binary, entity, bytes.NewReader(manifest), nil))

	v := NewVerifier(fs)
	assert.False(t, v.HasKeyring())
	assert.Error(t, v.VerifyManifest(manifest, armored.Bytes()), "no keyring loaded")

	require.NoError(t, v.LoadKeyring("/keyring.asc"))
	assert.True(t, v.HasKeyring())

	assert.NoError(t, v.VerifyManifest(manifest, armored.Bytes()))
	assert.NoError(t, v.VerifyManifest(manifest, binary.Bytes()))

	tampered := append([]byte{}, manifest...)
	tampered[0] = 'f'
	assert.Error(t, v.VerifyManifest(tampered, armored.Bytes()))
}

func TestLoadKeyring_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.asc", []byte("not a key"), 0o644))

	v := NewVerifier(fs)
	assert.Error(t, v.LoadKeyring("/bad.asc"))
	assert.Error(t, v.LoadKeyring("/missing.asc"))
	assert.False(t, v.HasKeyring())
}
