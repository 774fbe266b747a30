package handlers

import (
	"net/http"
	"sociallink/auth"
	"sociallink/models"
	"sociallink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UsernameRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
}

type DisplayNameRequest struct {
	DisplayName string `json:"display_name" form:"display_name"`
}

type ConfirmRequest struct {
	Confirm string `json:"confirm" form:"confirm" binding:"required"` // must repeat the username
}

func AccountUsername(c *gin.Context, user *models.User) {
	req := UsernameRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.ChangeUsername(user, req.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func AccountDisplayName(c *gin.Context, user *models.User) {
	req := DisplayNameRequest{}
	if !bind(c, &req) {
		return
	}
	if err := user.SetDisplayName(req.DisplayName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func confirmed(c *gin.Context, user *models.User) bool {
	req := ConfirmRequest{}
	if !bind(c, &req) {
		return false
	}
	if req.Confirm != user.Username {
		c.JSON(http.StatusBadRequest, Response{"confirmation does not match the username"})
		return false
	}
	return true
}

func AccountReset(c *gin.Context, user *models.User) {
	if !confirmed(c, user) {
		return
	}
	if err := models.ResetProfile(user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// deleteAccount removes our rows first; a failing auth provider deletion is only logged
func deleteAccount(userID string) error {
	if err := models.DeleteUser(userID); err != nil {
		return err
	}
	if err := auth.Current.Delete(userID); err != nil {
		utils.Log.Error("cannot delete auth user", zap.String("id", userID), zap.Error(err))
	}
	return nil
}

func AccountDelete(c *gin.Context, user *models.User) {
	if !confirmed(c, user) {
		return
	}
	if user.IsAdmin() {
		// Admin rights have to be revoked first
		c.JSON(http.StatusForbidden, SelfResponse)
		return
	}
	if err := deleteAccount(user.ID); err != nil {
		respondError(c, err)
		return
	}
	if session := auth.LoadSession(c); session != nil {
		session.LogoutUser()
	}
	c.JSON(http.StatusOK, OKResponse)
}
