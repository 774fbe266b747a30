package web

import (
	"net/http"
	"sociallink/handlers"
	"sociallink/models"
	"sociallink/storage"
	"sociallink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PublicAsset struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

type PublicProfile struct {
	UID         uint64                 `json:"uid"`
	Username    string                 `json:"username"`
	DisplayName string                 `json:"display_name"`
	CreatedAt   int64                  `json:"created_at"`
	Views       *uint64                `json:"views,omitempty"`
	Config      models.ProfileConfig   `json:"config"`
	Badges      []models.Badge         `json:"badges,omitempty"`
	Socials     []models.SocialLink    `json:"socials"`
	Links       []models.CustomLink    `json:"links"`
	Embeds      []models.Embed         `json:"embeds"`
	Assets      map[string]PublicAsset `json:"assets"`
}

// visibleUser loads a user that may be shown publicly. Banned users look like unknown ones.
func visibleUser(c *gin.Context) (models.User, bool) {
	user, err := models.UserByUsername(c.Param("username"))
	if err != nil || user.Banned {
		c.JSON(http.StatusNotFound, handlers.NotFoundResponse)
		return user, false
	}
	return user, true
}

func ProfileView(c *gin.Context) {
	user, ok := visibleUser(c)
	if !ok {
		return
	}
	if views.ShouldCount(c.ClientIP(), user.Username) {
		if err := models.IncrementViews(user.ID); err != nil {
			utils.Log.Warn("cannot count view", zap.String("username", user.Username), zap.Error(err))
		} else {
			user.Views++
		}
	}
	profile := PublicProfile{
		UID:         user.UID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		Assets:      map[string]PublicAsset{},
	}
	var err error
	if profile.Config, err = models.ProfileConfigFor(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError1Response)
		return
	}
	if profile.Config.ShowViews {
		profile.Views = &user.Views
	}
	if profile.Config.ShowBadges {
		if profile.Badges, err = models.BadgesFor(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, handlers.DBError1Response)
			return
		}
	}
	if profile.Socials, err = models.SocialLinksFor(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError2Response)
		return
	}
	if profile.Links, err = models.CustomLinksFor(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError2Response)
		return
	}
	if profile.Embeds, err = models.EmbedsFor(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError2Response)
		return
	}
	assets, err := models.AssetsFor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handlers.DBError3Response)
		return
	}
	for i := range assets {
		profile.Assets[assets[i].Kind] = PublicAsset{
			URL:      assets[i].GetURL(user.Username),
			MimeType: assets[i].MimeType,
		}
	}
	c.JSON(http.StatusOK, profile)
}

// AssetView streams local assets and redirects to a signed URL for remote ones
func AssetView(c *gin.Context) {
	kind := c.Param("kind")
	if !storage.IsKind(kind) {
		c.JSON(http.StatusNotFound, handlers.NotFoundResponse)
		return
	}
	user, ok := visibleUser(c)
	if !ok {
		return
	}
	asset, err := models.AssetFor(user.ID, kind)
	if err != nil {
		c.JSON(http.StatusNotFound, handlers.NotFoundResponse)
		return
	}
	s := asset.Storage()
	if s == nil {
		c.JSON(http.StatusInternalServerError, handlers.StorageErrResponse)
		return
	}
	if s.GetBucket().IsRemote() {
		c.Redirect(http.StatusFound, asset.GetURL(user.Username))
		return
	}
	c.Header("content-type", asset.MimeType)
	s.Serve(asset.Path, c.Request, c.Writer)
}
