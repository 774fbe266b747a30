package models

import (
	"path/filepath"
	"sociallink/db"
	"sociallink/storage"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// setupTest migrates a fresh database and puts every kind in a disk bucket
func setupTest(t *testing.T) string {
	t.Helper()
	db.InitForTests(t)
	require.NoError(t, Init())
	dir := t.TempDir()
	for _, kind := range storage.Kinds {
		bucket := storage.Bucket{Name: kind, Kind: kind, StorageType: storage.StorageTypeFile, Path: filepath.Join(dir, kind)}
		require.NoError(t, bucket.TryInit())
		require.NoError(t, db.Instance.Create(&bucket).Error)
	}
	require.NoError(t, storage.Reload())
	return dir
}

func createUser(t *testing.T, username string, permissions ...Permission) *User {
	t.Helper()
	token := createInvite(t, nil)
	u, err := RegisterUser(Registration{
		ID:       uuid.NewString(),
		Email:    username + "@example.com",
		Username: username,
		Token:    token,
	})
	require.NoError(t, err)
	for _, p := range permissions {
		require.NoError(t, GrantPermission(u.ID, p, nil))
	}
	u, err = UserByID(u.ID)
	require.NoError(t, err)
	return &u
}

func createInvite(t *testing.T, by *User) string {
	t.Helper()
	invites, err := CreateSystemInvites(1)
	require.NoError(t, err)
	if by != nil {
		require.NoError(t, db.Instance.Model(&invites[0]).Update("created_by_id", by.ID).Error)
	}
	return invites[0].Token
}
