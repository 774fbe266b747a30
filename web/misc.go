package web

import (
	"net/http"
	"sociallink/handlers"
	"sociallink/models"

	"github.com/gin-gonic/gin"
)

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nAllow: /u/\nDisallow: /\n")
}

func BadgeList(c *gin.Context) {
	badges, err := models.ListBadges()
	if err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError1Response)
		return
	}
	c.JSON(http.StatusOK, badges)
}

func MotdView(c *gin.Context) {
	motd, err := models.GetMotd()
	if err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError1Response)
		return
	}
	c.JSON(http.StatusOK, motd)
}
