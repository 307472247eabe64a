// internal/storage/local_test.go
package storage

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-opening/internal/common/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()

	store, err := NewLocalStore(config.StorageConfig{
		BasePath:      t.TempDir(),
		SigningSecret: "test-secret",
		PublicBaseURL: "http://localhost:8080/files/",
		SignedURLTTL:  60000,
	})
	require.NoError(t, err)
	return store
}

func TestStore_WritesAndResolves(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Store("doc.pdf", strings.NewReader("content"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Equal(t, path, store.Resolve("doc.pdf"))
}

func TestStore_RejectsDuplicateFileName(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Store("doc.pdf", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = store.Store("doc.pdf", strings.NewReader("second"))
	assert.Error(t, err)
}

func TestResolve_StripsDirectoryTraversal(t *testing.T) {
	store := newTestStore(t)

	path := store.Resolve("../../etc/passwd")

	assert.Equal(t, store.Resolve("passwd"), path)
}

func TestDelete_MissingFileIsNoError(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Delete(store.Resolve("never-stored.pdf")))
}

func TestSignedURL_VerifiesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	signed, err := store.SignedURL(store.Resolve("doc.pdf"))
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)

	assert.True(t, store.VerifySignature("doc.pdf", expires, u.Query().Get("sig")))
}

func TestVerifySignature_RejectsTampering(t *testing.T) {
	store := newTestStore(t)

	signed, err := store.SignedURL(store.Resolve("doc.pdf"))
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	sig := u.Query().Get("sig")

	assert.False(t, store.VerifySignature("other.pdf", expires, sig), "name swap")
	assert.False(t, store.VerifySignature("doc.pdf", expires+1, sig), "expiry extension")
	assert.False(t, store.VerifySignature("doc.pdf", expires, "forged"), "forged signature")
}

func TestVerifySignature_RejectsExpiredLink(t *testing.T) {
	store := newTestStore(t)

	expires := time.Now().Add(-time.Minute).Unix()

	assert.False(t, store.VerifySignature("doc.pdf", expires, "anything"))
}
