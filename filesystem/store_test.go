package filesystem_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/assetgate"
	"github.com/sagarc03/assetgate/filesystem"
)

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()

	tempDir := t.TempDir()
	root, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return filesystem.NewFileStorage(root), tempDir
}

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()

	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, content, 0o644))
}

func TestStore_Get_Success(t *testing.T) {
	store, dir := newStore(t)

	content := []byte("\x89PNG fake image")
	writeFile(t, dir, "images/logo.png", content)

	obj, err := store.Get(context.Background(), "images/logo.png")
	require.NoError(t, err)
	defer func() { _ = obj.Body.Close() }()

	assert.Equal(t, "images/logo.png", obj.Key)
	assert.Equal(t, int64(len(content)), obj.Size)
	assert.Equal(t, sha256Hex(content), obj.ETag)
	assert.Equal(t, "image/png", obj.Metadata.ContentType)
	assert.False(t, obj.LastModified.IsZero())

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)
}

func TestStore_Get_UnknownExtension(t *testing.T) {
	store, dir := newStore(t)
	writeFile(t, dir, "blob.zzq", []byte("data"))

	obj, err := store.Get(context.Background(), "blob.zzq")
	require.NoError(t, err)
	defer func() { _ = obj.Body.Close() }()

	assert.Equal(t, "application/octet-stream", obj.Metadata.ContentType)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := newStore(t)

	obj, err := store.Get(context.Background(), "missing.png")

	assert.Nil(t, obj)
	assert.ErrorIs(t, err, assetgate.ErrNotFound)
}

func TestStore_Get_Directory(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "folder.png"), 0o755))

	obj, err := store.Get(context.Background(), "folder.png")

	assert.Nil(t, obj)
	assert.ErrorIs(t, err, assetgate.ErrNotFound)
}

func TestStore_Get_InvalidKey(t *testing.T) {
	store, dir := newStore(t)
	writeFile(t, dir, "a.png", []byte("a"))

	for _, key := range []string{"", "../a.png", "/a.png", "x/../a.png", "a.png/"} {
		t.Run(key, func(t *testing.T) {
			obj, err := store.Get(context.Background(), key)
			assert.Nil(t, obj)
			assert.ErrorIs(t, err, assetgate.ErrNotFound)
		})
	}
}

func TestStore_Get_ContextCanceled(t *testing.T) {
	store, dir := newStore(t)
	writeFile(t, dir, "a.png", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	obj, err := store.Get(ctx, "a.png")

	assert.Nil(t, obj)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, assetgate.ErrNotFound)

	var se *assetgate.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "a.png", se.Key)
}

func TestStore_Get_ContextDeadline(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := store.Get(ctx, "a.png")

	assert.Equal(t, assetgate.KindTimeout, assetgate.KindOf(err))
}

func TestStore_Get_EtagFollowsContent(t *testing.T) {
	store, dir := newStore(t)
	writeFile(t, dir, "app.js", []byte("console.log(1)"))

	first, err := store.Get(context.Background(), "app.js")
	require.NoError(t, err)
	_ = first.Body.Close()

	again, err := store.Get(context.Background(), "app.js")
	require.NoError(t, err)
	_ = again.Body.Close()
	assert.Equal(t, first.ETag, again.ETag)

	updated := []byte("console.log(2); // longer")
	writeFile(t, dir, "app.js", updated)

	second, err := store.Get(context.Background(), "app.js")
	require.NoError(t, err)
	defer func() { _ = second.Body.Close() }()

	assert.Equal(t, sha256Hex(updated), second.ETag)
	body, err := io.ReadAll(second.Body)
	require.NoError(t, err)
	assert.Equal(t, updated, body)
}

func TestStore_Get_SymlinkOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	assetsDir := filepath.Join(parent, "assets")
	writeFile(t, parent, "private/secret.png", []byte("secret"))
	require.NoError(t, os.MkdirAll(assetsDir, 0o755))
	require.NoError(t, os.Symlink("../private/secret.png", filepath.Join(assetsDir, "leak.png")))

	root, err := os.OpenRoot(assetsDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })
	store := filesystem.NewFileStorage(root)

	obj, err := store.Get(context.Background(), "leak.png")

	assert.Nil(t, obj)
	assert.ErrorIs(t, err, assetgate.ErrNotFound)

	var se *assetgate.StorageError
	assert.False(t, errors.As(err, &se))
}

func TestStore_Get_SymlinkInsideRoot(t *testing.T) {
	store, dir := newStore(t)
	writeFile(t, dir, "v2/logo.png", []byte("png"))
	require.NoError(t, os.Symlink("v2/logo.png", filepath.Join(dir, "logo.png")))

	obj, err := store.Get(context.Background(), "logo.png")
	require.NoError(t, err)
	defer func() { _ = obj.Body.Close() }()

	assert.Equal(t, int64(3), obj.Size)
}

func TestStore_Get_Unreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	store, dir := newStore(t)
	writeFile(t, dir, "private.png", []byte("png"))
	require.NoError(t, os.Chmod(filepath.Join(dir, "private.png"), 0o000))

	obj, err := store.Get(context.Background(), "private.png")

	assert.Nil(t, obj)
	assert.ErrorIs(t, err, assetgate.ErrNotFound)
}
