package handlers

import (
	"net/http"
	"sociallink/auth"
	"sociallink/db"
	"sociallink/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingProvider lets the invite be consumed by someone else while the auth user is created
type racingProvider struct {
	auth.LocalProvider
	token   string
	deleted []string
}

func (p *racingProvider) SignUp(email, password string) (auth.Identity, error) {
	identity, err := p.LocalProvider.SignUp(email, password)
	if err == nil {
		err = db.Instance.Model(&models.Invite{}).Where("token = ?", p.token).Update("used", true).Error
	}
	return identity, err
}

func (p *racingProvider) Delete(id string) error {
	p.deleted = append(p.deleted, id)
	return p.LocalProvider.Delete(id)
}

func TestUserRegister(t *testing.T) {
	router := setupTest(t)
	token := newInvite(t)
	req := UserRegisterRequest{Username: "Alice", Email: "alice@example.com", Password: testPassword, Invite: token}

	w := do(router, http.MethodPost, "/user/register", "", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[UserStatus](t, w)
	assert.Equal(t, "alice", status.User.Username)
	assert.Equal(t, "alice", status.User.DisplayName)
	assert.Equal(t, []string{}, status.Permissions)
	assert.NotEmpty(t, status.AccessToken)
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))

	invite, err := models.InviteByToken(token)
	require.NoError(t, err)
	assert.True(t, invite.Used)
	require.NotNil(t, invite.UsedByID)
	assert.Equal(t, status.User.ID, *invite.UsedByID)

	// The same invite cannot be used twice
	req.Username, req.Email = "bob", "bob@example.com"
	w = do(router, http.MethodPost, "/user/register", "", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req.Invite = newInvite(t)
	req.Username = "ALICE"
	w = do(router, http.MethodPost, "/user/register", "", req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req.Username = "admin"
	w = do(router, http.MethodPost, "/user/register", "", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req.Username = "bob"
	req.Password = "short"
	w = do(router, http.MethodPost, "/user/register", "", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var credentials int64
	require.NoError(t, db.Instance.Model(&auth.Credential{}).Count(&credentials).Error)
	assert.EqualValues(t, 1, credentials)

	req.Invite = "nope"
	req.Password = testPassword
	w = do(router, http.MethodPost, "/user/register", "", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/user/register", "", map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserRegister_RemovesAuthUserOnFailure(t *testing.T) {
	router := setupTest(t)
	token := newInvite(t)
	provider := &racingProvider{token: token}
	previous := auth.Current
	auth.Current = provider
	t.Cleanup(func() { auth.Current = previous })

	w := do(router, http.MethodPost, "/user/register", "", UserRegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: testPassword, Invite: token,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrInviteUsed.Error())
	require.Len(t, provider.deleted, 1)

	var users, credentials int64
	require.NoError(t, db.Instance.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Instance.Model(&auth.Credential{}).Count(&credentials).Error)
	assert.Zero(t, users)
	assert.Zero(t, credentials)
}

func TestUserLogin(t *testing.T) {
	router := setupTest(t)
	user, _ := register(t, router, "alice")

	w := do(router, http.MethodPost, "/user/login", "", UserLoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/user/login", "", UserLoginRequest{Email: "Alice@Example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[UserStatus](t, w)
	assert.Equal(t, user.ID, status.User.ID)

	w = do(router, http.MethodGet, "/user/status", status.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[UserStatus](t, w).User.Username)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/user/status", "", nil).Code)

	require.NoError(t, user.Ban("spam"))
	w = do(router, http.MethodPost, "/user/login", "", UserLoginRequest{Email: "alice@example.com", Password: testPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "spam")
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/user/status", status.AccessToken, nil).Code)
}

func TestUserLogin_NotRegistered(t *testing.T) {
	router := setupTest(t)
	_, err := auth.Current.SignUp("ghost@example.com", testPassword)
	require.NoError(t, err)
	w := do(router, http.MethodPost, "/user/login", "", UserLoginRequest{Email: "ghost@example.com", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserLogout(t *testing.T) {
	router := setupTest(t)
	w := do(router, http.MethodPost, "/user/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInviteCheck(t *testing.T) {
	router := setupTest(t)
	token := newInvite(t)

	w := do(router, http.MethodGet, "/invite/check?token="+token, "", nil)
	assert.JSONEq(t, `{"valid":true,"error":""}`, w.Body.String())
	w = do(router, http.MethodGet, "/invite/check?token=unknown", "", nil)
	assert.Contains(t, w.Body.String(), `"valid":false`)

	register(t, router, "alice")
	var invite models.Invite
	require.NoError(t, db.Instance.First(&invite, "used = ?", true).Error)
	w = do(router, http.MethodGet, "/invite/check?token="+invite.Token, "", nil)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}
