package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sociallink/auth"
	"sociallink/config"
	"sociallink/db"
	"sociallink/models"
	"sociallink/storage"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "password123"
)

func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.JWT_SECRET = testSecret
	config.AUTH_PROVIDER = config.AuthProviderLocal
	config.WEBHOOK_URL = ""
	config.MAX_UPLOAD_MB = 10
	db.InitForTests(t)
	require.NoError(t, models.Init())
	require.NoError(t, auth.Init())
	dir := t.TempDir()
	for _, kind := range storage.Kinds {
		bucket := storage.Bucket{Name: kind, Kind: kind, StorageType: storage.StorageTypeFile, Path: filepath.Join(dir, kind)}
		require.NoError(t, bucket.TryInit())
		require.NoError(t, db.Instance.Create(&bucket).Error)
	}
	require.NoError(t, storage.Reload())
	return newTestRouter()
}

func newTestRouter() *gin.Engine {
	router := gin.New()
	router.Use(sessions.Sessions("token", cookie.NewStore([]byte(testSecret))))
	a := &auth.Router{Base: router}

	router.POST("/user/register", UserRegister)
	router.POST("/user/login", UserLogin)
	router.POST("/user/logout", UserLogout)
	router.GET("/invite/check", InviteCheck)
	router.GET("/motd/ws", MotdSocket)
	a.GET("/user/status", UserGetStatus)

	a.POST("/account/username", AccountUsername)
	a.POST("/account/display-name", AccountDisplayName)
	a.POST("/account/reset", AccountReset)
	a.POST("/account/delete", AccountDelete)

	a.GET("/profile/config", ProfileConfigGet)
	a.POST("/profile/config", ProfileConfigSave)
	a.POST("/profile/upload", ProfileUpload)
	a.POST("/profile/upload/delete", ProfileUploadDelete)
	a.GET("/profile/socials", ProfileSocials)
	a.POST("/profile/socials", ProfileSocialSave)
	a.POST("/profile/socials/delete", ProfileSocialDelete)
	a.GET("/profile/links", ProfileLinks)
	a.POST("/profile/links", ProfileLinkSave)
	a.POST("/profile/links/delete", ProfileLinkDelete)
	a.POST("/profile/links/reorder", ProfileLinksReorder)
	a.GET("/profile/embeds", ProfileEmbeds)
	a.POST("/profile/embeds", ProfileEmbedAdd)
	a.POST("/profile/embeds/delete", ProfileEmbedDelete)

	a.GET("/invite/list", InviteList)
	a.POST("/invite/create", InviteCreate)

	a.GET("/admin/users", AdminUsers, models.PermissionAdmin)
	a.POST("/admin/user/ban", AdminUserBan, models.PermissionModerate)
	a.POST("/admin/user/unban", AdminUserUnban, models.PermissionModerate)
	a.POST("/admin/user/grant", AdminUserGrant, models.PermissionAdmin)
	a.POST("/admin/user/revoke", AdminUserRevoke, models.PermissionAdmin)
	a.POST("/admin/user/invite-limit", AdminUserInviteLimit, models.PermissionAdmin)
	a.POST("/admin/user/delete", AdminUserDelete, models.PermissionAdmin)
	a.GET("/admin/invites", AdminInvites, models.PermissionAdmin)
	a.POST("/admin/invite/delete", AdminInviteDelete, models.PermissionAdmin)
	a.POST("/admin/badge/save", AdminBadgeSave, models.PermissionAdmin)
	a.POST("/admin/badge/delete", AdminBadgeDelete, models.PermissionAdmin)
	a.POST("/admin/badge/assign", AdminBadgeAssign, models.PermissionBadges)
	a.POST("/admin/badge/unassign", AdminBadgeUnassign, models.PermissionBadges)
	a.POST("/admin/motd", AdminMotd, models.PermissionAdmin)
	a.GET("/admin/bucket/list", BucketList, models.PermissionAdmin)
	a.POST("/admin/bucket/save", BucketSave, models.PermissionAdmin)
	a.GET("/admin/stats", AdminStats, models.PermissionAdmin)
	return router
}

// do sends body as JSON, authenticated with token when it is not empty
func do(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func upload(router *gin.Engine, kind, token string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "upload.bin")
	_, _ = part.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/profile/upload?kind="+kind, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func newInvite(t *testing.T) string {
	t.Helper()
	invites, err := models.CreateSystemInvites(1)
	require.NoError(t, err)
	return invites[0].Token
}

// register signs a user up through the API and returns it with its access token
func register(t *testing.T, router *gin.Engine, username string, permissions ...models.Permission) (*models.User, string) {
	t.Helper()
	w := do(router, http.MethodPost, "/user/register", "", UserRegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
		Invite:   newInvite(t),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[UserStatus](t, w)
	require.NotEmpty(t, status.AccessToken)
	for _, p := range permissions {
		require.NoError(t, models.GrantPermission(status.User.ID, p, nil))
	}
	user, err := models.UserByID(status.User.ID)
	require.NoError(t, err)
	return &user, status.AccessToken
}
