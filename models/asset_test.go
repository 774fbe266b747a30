package models

import (
	"bytes"
	"path/filepath"
	"sociallink/storage"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetExtension(t *testing.T) {
	ext, ok := AssetExtension(storage.KindAvatar, "image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, ok = AssetExtension(storage.KindAvatar, "audio/mpeg")
	assert.False(t, ok)
	_, ok = AssetExtension("wallpaper", "image/png")
	assert.False(t, ok)
}

func TestSaveAsset_ReplacesOldObject(t *testing.T) {
	dir := setupTest(t)
	u := createUser(t, "uploader")

	first := saveAsset(t, u, storage.KindAvatar, "image/png")
	assert.Equal(t, "uploader.png", first.Path)
	assert.Equal(t, int64(len("avatar-data")), first.Size)

	second, err := SaveAsset(u, storage.KindAvatar, "image/gif", strings.NewReader("gif"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one row per kind")
	assert.Equal(t, "uploader.gif", second.Path)
	assert.NoFileExists(t, filepath.Join(dir, storage.KindAvatar, "uploader.png"))

	var buf bytes.Buffer
	_, err = second.Storage().Load(second.Path, &buf)
	require.NoError(t, err)
	assert.Equal(t, "gif", buf.String())

	assert.Contains(t, second.GetURL(u.Username), "/u/uploader/asset/avatar?v=")

	_, err = SaveAsset(u, storage.KindAudio, "image/png", strings.NewReader("x"))
	assert.Error(t, err)

	require.NoError(t, DeleteAsset(u.ID, storage.KindAvatar))
	assert.NoFileExists(t, filepath.Join(dir, storage.KindAvatar, "uploader.gif"))
	assert.ErrorIs(t, DeleteAsset(u.ID, storage.KindAvatar), ErrNotFound)
}

func TestSaveAsset_DatabaseFailureKeepsObject(t *testing.T) {
	dir := setupTest(t)
	u := createUser(t, "steady")
	saveAsset(t, u, storage.KindAvatar, "image/png")
	failUpdates(t, "assets")

	// Same path: the overwritten object is still referenced by the old row
	_, err := SaveAsset(u, storage.KindAvatar, "image/png", strings.NewReader("new"))
	assert.Error(t, err)
	assert.FileExists(t, filepath.Join(dir, storage.KindAvatar, "steady.png"))

	// Different path: only the new object is cleaned up
	_, err = SaveAsset(u, storage.KindAvatar, "image/gif", strings.NewReader("gif"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, storage.KindAvatar, "steady.gif"))
	assert.FileExists(t, filepath.Join(dir, storage.KindAvatar, "steady.png"))

	a, err := AssetFor(u.ID, storage.KindAvatar)
	require.NoError(t, err)
	assert.Equal(t, "steady.png", a.Path)
}
