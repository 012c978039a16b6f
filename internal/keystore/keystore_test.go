package keystore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureKeypair_GeneratesOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	kp, err := EnsureKeypair(dir)
	require.NoError(t, err)
	require.NotNil(t, kp.PrivateKey)

	// Both halves persisted with owner-only permissions
	for _, name := range []string{PrivateKeyFile, PublicKeyFile} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		require.NoError(t, err, "expected %s to exist", name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "%s permissions", name)
	}

	// Public PEM is a parseable PKIX key matching the private key
	block, _ := pem.Decode(kp.PublicPEM)
	require.NotNil(t, block)
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	rsaPub, ok := pub.(*rsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, kp.PrivateKey.PublicKey.N, rsaPub.N)

	// Minimum acceptable strength
	assert.GreaterOrEqual(t, kp.PrivateKey.N.BitLen(), 2048)
}

func TestEnsureKeypair_Idempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := EnsureKeypair(dir)
	require.NoError(t, err)

	privBefore, err := os.ReadFile(filepath.Join(dir, PrivateKeyFile))
	require.NoError(t, err)
	privInfo, err := os.Stat(filepath.Join(dir, PrivateKeyFile))
	require.NoError(t, err)
	pubInfo, err := os.Stat(filepath.Join(dir, PublicKeyFile))
	require.NoError(t, err)

	second, err := EnsureKeypair(dir)
	require.NoError(t, err)

	// Byte-identical key material both times
	assert.Equal(t, first.PublicPEM, second.PublicPEM)
	assert.Equal(t, first.PrivateKey.D, second.PrivateKey.D)

	privAfter, err := os.ReadFile(filepath.Join(dir, PrivateKeyFile))
	require.NoError(t, err)
	assert.Equal(t, privBefore, privAfter)

	// No filesystem writes on the second call
	privInfoAfter, err := os.Stat(filepath.Join(dir, PrivateKeyFile))
	require.NoError(t, err)
	pubInfoAfter, err := os.Stat(filepath.Join(dir, PublicKeyFile))
	require.NoError(t, err)
	assert.Equal(t, privInfo.ModTime(), privInfoAfter.ModTime())
	assert.Equal(t, pubInfo.ModTime(), pubInfoAfter.ModTime())
}

func TestEnsureKeypair_RederivesMissingPublicKey(t *testing.T) {
	dir := t.TempDir()

	first, err := EnsureKeypair(dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, PublicKeyFile)))

	second, err := EnsureKeypair(dir)
	require.NoError(t, err)

	assert.Equal(t, first.PublicPEM, second.PublicPEM)
	_, err = os.Stat(filepath.Join(dir, PublicKeyFile))
	assert.NoError(t, err)
}

func TestEnsureKeypair_LoadsPKCS8PrivateKey(t *testing.T) {
	dir := t.TempDir()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrivateKeyFile), privPEM, 0600))

	kp, err := EnsureKeypair(dir)
	require.NoError(t, err)
	assert.Equal(t, priv.D, kp.PrivateKey.D)
}

func TestEnsureKeypair_RejectsCorruptPrivateKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrivateKeyFile), []byte("not a key"), 0600))

	_, err := EnsureKeypair(dir)
	assert.Error(t, err)
}

func TestEnsureKeypair_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()

	_, err := EnsureKeypair(dir)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}
