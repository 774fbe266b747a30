package handlers

import (
	"net/http"
	"sociallink/models"

	"github.com/gin-gonic/gin"
)

func InviteList(c *gin.Context, user *models.User) {
	invites, err := models.InvitesCreatedBy(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	left, _ := models.InvitesLeft(user)
	c.JSON(http.StatusOK, gin.H{"invites": invites, "invites_left": left})
}

func InviteCreate(c *gin.Context, user *models.User) {
	invite, err := models.CreateInvite(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invite)
}
