package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"sociallink/models"
	"sociallink/storage"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresPermission(t *testing.T) {
	router := setupTest(t)
	_, token := register(t, router, "alice")
	_, modToken := register(t, router, "mod", models.PermissionModerate)

	for _, path := range []string{"/admin/users", "/admin/invites", "/admin/stats", "/admin/bucket/list"} {
		assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, path, token, nil).Code, path)
		assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, path, modToken, nil).Code, path)
	}
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/admin/motd", modToken, MotdRequest{Message: "hi"}).Code)
}

func TestAdminUsers(t *testing.T) {
	router := setupTest(t)
	_, adminToken := register(t, router, "boss", models.PermissionAdmin)
	register(t, router, "alice")
	register(t, router, "alina")

	w := do(router, http.MethodGet, "/admin/users?search=ali", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Users []struct {
			Username    string   `json:"username"`
			Permissions []string `json:"permissions"`
		} `json:"users"`
		Total int64 `json:"total"`
	}](t, w)
	assert.EqualValues(t, 2, body.Total)
	require.Len(t, body.Users, 2)
	assert.Equal(t, "alina", body.Users[0].Username)

	w = do(router, http.MethodGet, "/admin/users?limit=1", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":3`)
	assert.Contains(t, w.Body.String(), `"admin"`)
}

func TestAdminBan(t *testing.T) {
	router := setupTest(t)
	admin, adminToken := register(t, router, "boss", models.PermissionAdmin)
	mod, modToken := register(t, router, "mod", models.PermissionModerate)
	user, token := register(t, router, "alice")

	w := do(router, http.MethodPost, "/admin/user/ban", modToken, BanRequest{UserID: user.ID, Reason: "spam"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(router, http.MethodGet, "/user/status", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "spam")

	w = do(router, http.MethodPost, "/admin/user/ban", modToken, BanRequest{UserID: admin.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(router, http.MethodPost, "/admin/user/ban", modToken, BanRequest{UserID: mod.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(router, http.MethodPost, "/admin/user/ban", adminToken, BanRequest{UserID: admin.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(router, http.MethodPost, "/admin/user/ban", adminToken, BanRequest{UserID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/admin/user/unban", modToken, UserIDRequest{UserID: user.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/user/status", token, nil).Code)
}

func TestAdminGrantRevoke(t *testing.T) {
	router := setupTest(t)
	admin, adminToken := register(t, router, "boss", models.PermissionAdmin)
	user, token := register(t, router, "alice")

	w := do(router, http.MethodPost, "/admin/user/grant", adminToken, GrantRequest{UserID: user.ID, Permission: "moderate"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodGet, "/user/status", token, nil)
	assert.Equal(t, []string{"moderate"}, decode[UserStatus](t, w).Permissions)

	w = do(router, http.MethodPost, "/admin/user/grant", adminToken, GrantRequest{UserID: user.ID, Permission: "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(router, http.MethodPost, "/admin/user/revoke", adminToken, GrantRequest{UserID: admin.ID, Permission: "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodPost, "/admin/user/revoke", adminToken, GrantRequest{UserID: user.ID, Permission: "moderate"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodGet, "/user/status", token, nil)
	assert.Empty(t, decode[UserStatus](t, w).Permissions)
}

func TestInvites(t *testing.T) {
	router := setupTest(t)
	_, adminToken := register(t, router, "boss", models.PermissionAdmin)
	user, token := register(t, router, "alice")

	w := do(router, http.MethodPost, "/invite/create", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, models.GrantPermission(user.ID, models.PermissionInvite, nil))
	w = do(router, http.MethodPost, "/admin/user/invite-limit", adminToken, InviteLimitRequest{UserID: user.ID, Limit: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/admin/user/invite-limit", adminToken, InviteLimitRequest{UserID: user.ID, Limit: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/invite/create", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	invite := decode[models.Invite](t, w)
	assert.NotEmpty(t, invite.Token)
	w = do(router, http.MethodPost, "/invite/create", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/invite/list", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Invites     []models.Invite `json:"invites"`
		InvitesLeft int             `json:"invites_left"`
	}](t, w)
	assert.Len(t, list.Invites, 1)
	assert.Zero(t, list.InvitesLeft)

	// The invitee is linked to the inviter
	w = do(router, http.MethodPost, "/user/register", "", UserRegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: testPassword, Invite: invite.Token,
	})
	require.Equal(t, http.StatusOK, w.Code)
	carol, err := models.UserByUsername("carol")
	require.NoError(t, err)
	require.NotNil(t, carol.InvitedByID)
	assert.Equal(t, user.ID, *carol.InvitedByID)

	w = do(router, http.MethodGet, "/admin/invites?unused=true", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	fresh, err := models.CreateSystemInvites(1)
	require.NoError(t, err)
	w = do(router, http.MethodPost, "/admin/invite/delete", adminToken, IDRequest{ID: fresh[0].ID})
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/admin/invite/delete", adminToken, IDRequest{ID: fresh[0].ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminBadges(t *testing.T) {
	router := setupTest(t)
	_, adminToken := register(t, router, "boss", models.PermissionAdmin)
	_, badgerToken := register(t, router, "badger", models.PermissionBadges)
	user, _ := register(t, router, "alice")

	w := do(router, http.MethodPost, "/admin/badge/save", adminToken, models.Badge{Name: "Early", Color: "#ABCDEF"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	badge := decode[models.Badge](t, w)
	assert.Equal(t, "#abcdef", badge.Color)
	w = do(router, http.MethodPost, "/admin/badge/save", badgerToken, models.Badge{Name: "Other"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(router, http.MethodPost, "/admin/badge/save", adminToken, models.Badge{Name: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(router, http.MethodPost, "/admin/badge/save", adminToken, models.Badge{Name: "Early"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(router, http.MethodPost, "/admin/badge/save", adminToken, models.Badge{Name: "Later"})
	require.Equal(t, http.StatusOK, w.Code)
	later := decode[models.Badge](t, w)
	later.Name = "Early"
	w = do(router, http.MethodPost, "/admin/badge/save", adminToken, later)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/admin/badge/assign", badgerToken, BadgeAssignRequest{UserID: user.ID, BadgeID: badge.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	badges, err := models.BadgesFor(user.ID)
	require.NoError(t, err)
	assert.Len(t, badges, 1)

	w = do(router, http.MethodPost, "/admin/badge/assign", badgerToken, BadgeAssignRequest{UserID: user.ID, BadgeID: 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(router, http.MethodPost, "/admin/badge/unassign", badgerToken, BadgeAssignRequest{UserID: user.ID, BadgeID: badge.ID})
	require.Equal(t, http.StatusOK, w.Code)
	badges, err = models.BadgesFor(user.ID)
	require.NoError(t, err)
	assert.Empty(t, badges)

	w = do(router, http.MethodPost, "/admin/badge/delete", adminToken, IDRequest{ID: badge.ID})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminDeleteUser(t *testing.T) {
	router := setupTest(t)
	admin, adminToken := register(t, router, "boss", models.PermissionAdmin)
	user, token := register(t, router, "alice")

	w := do(router, http.MethodPost, "/admin/user/delete", adminToken, UserIDRequest{UserID: admin.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(router, http.MethodPost, "/admin/user/delete", adminToken, UserIDRequest{UserID: user.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/user/status", token, nil).Code)
	w = do(router, http.MethodPost, "/user/login", "", UserLoginRequest{Email: "alice@example.com", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminStats(t *testing.T) {
	router := setupTest(t)
	_, adminToken := register(t, router, "boss", models.PermissionAdmin)
	user, _ := register(t, router, "alice")
	require.NoError(t, user.Ban(""))
	require.NoError(t, models.IncrementViews(user.ID))
	require.NoError(t, models.IncrementViews(user.ID))
	_, err := models.CreateSystemInvites(3)
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[Stats](t, w)
	assert.EqualValues(t, 2, stats.Users)
	assert.EqualValues(t, 1, stats.BannedUsers)
	assert.EqualValues(t, 5, stats.Invites)
	assert.EqualValues(t, 2, stats.UsedInvites)
	assert.EqualValues(t, 2, stats.Views)
	assert.Len(t, stats.Storage, len(storage.Kinds))
}

func TestBuckets(t *testing.T) {
	router := setupTest(t)
	_, adminToken := register(t, router, "boss", models.PermissionAdmin)

	w := do(router, http.MethodGet, "/admin/bucket/list", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]storage.Bucket](t, w), len(storage.Kinds))

	dir := filepath.Join(t.TempDir(), "new-avatars")
	w = do(router, http.MethodPost, "/admin/bucket/save", adminToken, storage.Bucket{
		Kind: storage.KindAvatar, StorageType: storage.StorageTypeFile, Path: dir,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, dir, storage.StorageFor(storage.KindAvatar).GetBucket().Path)

	w = do(router, http.MethodPost, "/admin/bucket/save", adminToken, storage.Bucket{
		Kind: storage.KindAvatar, StorageType: storage.StorageTypeFile, Path: "relative/path",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(router, http.MethodPost, "/admin/bucket/save", adminToken, storage.Bucket{
		Kind: "wallpaper", StorageType: storage.StorageTypeFile, Path: dir,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(router, http.MethodPost, "/admin/bucket/save", adminToken, storage.Bucket{
		Kind: storage.KindAudio, StorageType: storage.StorageTypeS3, Name: "audio",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Same location again updates the active row in place
	moved := storage.StorageFor(storage.KindAvatar).GetBucket().ID
	w = do(router, http.MethodPost, "/admin/bucket/save", adminToken, storage.Bucket{
		Kind: storage.KindAvatar, StorageType: storage.StorageTypeFile, Path: dir, Region: "eu",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, moved, decode[storage.Bucket](t, w).ID)

	// The moved kind keeps its previous bucket, retired
	w = do(router, http.MethodGet, "/admin/bucket/list", adminToken, nil)
	buckets := decode[[]storage.Bucket](t, w)
	assert.Len(t, buckets, len(storage.Kinds)+1)
	retired := 0
	for _, b := range buckets {
		if b.Retired {
			retired++
			assert.Equal(t, storage.KindAvatar, b.Kind)
		}
	}
	assert.Equal(t, 1, retired)
	assert.Len(t, storage.All(), len(storage.Kinds))
}

func TestBuckets_AssetsSurviveMove(t *testing.T) {
	router := setupTest(t)
	_, adminToken := register(t, router, "boss", models.PermissionAdmin)
	user, token := register(t, router, "alice")
	oldBucket := storage.StorageFor(storage.KindAvatar).GetBucket()

	w := upload(router, storage.KindAvatar, token, pngImage(t, 32, 32))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	dir := filepath.Join(t.TempDir(), "new-avatars")
	w = do(router, http.MethodPost, "/admin/bucket/save", adminToken, storage.Bucket{
		Kind: storage.KindAvatar, StorageType: storage.StorageTypeFile, Path: dir,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEqual(t, oldBucket.ID, storage.StorageFor(storage.KindAvatar).GetBucket().ID)

	w = do(router, http.MethodPost, "/account/username", token, UsernameRequest{Username: "alice2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	asset, err := models.AssetFor(user.ID, storage.KindAvatar)
	require.NoError(t, err)
	assert.Equal(t, oldBucket.ID, asset.BucketID)
	require.NotNil(t, asset.Storage())
	var stored bytes.Buffer
	_, err = asset.Storage().Load(asset.Path, &stored)
	require.NoError(t, err)
	assert.NotZero(t, stored.Len())
	assert.FileExists(t, filepath.Join(oldBucket.Path, asset.Path))

	// A new upload lands in the active bucket and removes the old object
	w = upload(router, storage.KindAvatar, token, pngImage(t, 32, 32))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoFileExists(t, filepath.Join(oldBucket.Path, asset.Path))
	asset, err = models.AssetFor(user.ID, storage.KindAvatar)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, asset.Path))
}
