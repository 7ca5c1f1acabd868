package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret_RoundTrip(t *testing.T) {
	blob, err := EncryptSecret("c2VjcmV0LXZhbHVl", "hunter2")
	require.NoError(t, err)

	got, err := DecryptSecret(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "c2VjcmV0LXZhbHVl", got)
}

func TestDecryptSecret_WrongPassword(t *testing.T) {
	blob, err := EncryptSecret("payload", "right")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestEncryptSecret_EmptyInputs(t *testing.T) {
	_, err := EncryptSecret("", "pw")
	require.Error(t, err)

	_, err = EncryptSecret("secret", "")
	require.Error(t, err)
}

func TestLoadSecret_RawTakesPrecedence(t *testing.T) {
	got, err := LoadSecret(SecretConfig{
		RawSecret:           "inline",
		EncryptedSecretPath: "/nonexistent",
	})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)
}

func TestLoadSecret_FromEncryptedFile(t *testing.T) {
	blob, err := EncryptSecret("file-secret", "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadSecret(SecretConfig{
		EncryptedSecretPath: path,
		SecretPassword:      "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", got)
}

func TestLoadSecret_NoSource(t *testing.T) {
	_, err := LoadSecret(SecretConfig{})
	require.Error(t, err)
}
