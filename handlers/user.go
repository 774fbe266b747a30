package handlers

import (
	"net/http"
	"sociallink/auth"
	"sociallink/models"
	"sociallink/notify"
	"sociallink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserRegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Invite   string `json:"invite" form:"invite" binding:"required"`
}

type UserLoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type UserStatus struct {
	User        *models.User `json:"user"`
	Permissions []string     `json:"permissions"`
	InvitesLeft int          `json:"invites_left"` // -1 means unlimited
	AccessToken string       `json:"access_token,omitempty"`
	ExpiresAt   int64        `json:"expires_at,omitempty"`
}

func newUserStatus(user *models.User) UserStatus {
	left, err := models.InvitesLeft(user)
	if err != nil {
		left = 0
	}
	return UserStatus{User: user, Permissions: user.GetPermissions(), InvitesLeft: left}
}

func startSession(c *gin.Context, user *models.User) {
	if session := auth.LoadSession(c); session != nil {
		if err := session.LoginUser(user); err != nil {
			utils.Log.Warn("cannot save session", zap.Error(err))
		}
	}
}

// UserRegister checks everything it can before creating the auth user and
// removes the auth user again when the registration fails afterwards
func UserRegister(c *gin.Context) {
	req := UserRegisterRequest{}
	if !bind(c, &req) {
		return
	}
	if _, _, err := models.CheckRegistration(req.Username, req.Email, req.Invite); err != nil {
		respondError(c, err)
		return
	}
	identity, err := auth.Current.SignUp(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := models.RegisterUser(models.Registration{
		ID:       identity.ID,
		Email:    req.Email,
		Username: req.Username,
		Token:    req.Invite,
	})
	if err != nil {
		if delErr := auth.Current.Delete(identity.ID); delErr != nil {
			utils.Log.Error("cannot remove auth user after failed registration", zap.String("id", identity.ID), zap.Error(delErr))
		}
		respondError(c, err)
		return
	}
	utils.Log.Info("user registered", zap.String("username", user.Username), zap.Uint64("uid", user.UID))
	notify.UserRegistered(&user)

	status := newUserStatus(&user)
	if identity.AccessToken != "" {
		startSession(c, &user)
		status.AccessToken, status.ExpiresAt = identity.AccessToken, identity.ExpiresAt
	}
	c.JSON(http.StatusOK, status)
}

func UserLogin(c *gin.Context) {
	req := UserLoginRequest{}
	if !bind(c, &req) {
		return
	}
	identity, err := auth.Current.SignIn(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := models.UserByID(identity.ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, Response{"not registered"})
		return
	}
	if user.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned", "reason": user.BanReason})
		return
	}
	startSession(c, &user)
	status := newUserStatus(&user)
	status.AccessToken, status.ExpiresAt = identity.AccessToken, identity.ExpiresAt
	c.JSON(http.StatusOK, status)
}

func UserLogout(c *gin.Context) {
	if session := auth.LoadSession(c); session != nil {
		session.LogoutUser()
	}
	c.JSON(http.StatusOK, OKResponse)
}

func UserGetStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, newUserStatus(user))
}

// InviteCheck tells the registration form whether a token can be used
func InviteCheck(c *gin.Context) {
	if err := models.CheckInvite(c.Query("token")); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "error": ""})
}
