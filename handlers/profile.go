package handlers

import (
	"bytes"
	"io"
	"net/http"
	"sociallink/config"
	"sociallink/models"
	"sociallink/storage"
	"sociallink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SocialRequest struct {
	Platform string `json:"platform" form:"platform" binding:"required"`
	Handle   string `json:"handle" form:"handle"`
}

type ReorderRequest struct {
	IDs []uint64 `json:"ids" binding:"required"`
}

type EmbedRequest struct {
	URL string `json:"url" form:"url" binding:"required"`
}

type UploadResponse struct {
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Resized  bool   `json:"resized"`
}

// Maximum dimensions, larger images are scaled down
var imageBounds = map[string][2]uint{
	storage.KindAvatar: {512, 512},
	storage.KindBanner: {1500, 500},
}

// Sniffed types that differ from the names we store
var mimeAliases = map[string]string{
	"application/ogg": "audio/ogg",
	"audio/wave":      "audio/wav",
}

func detectMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	for i, ch := range mimeType {
		if ch == ';' {
			mimeType = mimeType[:i]
			break
		}
	}
	if alias, ok := mimeAliases[mimeType]; ok {
		return alias
	}
	return mimeType
}

func ProfileConfigGet(c *gin.Context, user *models.User) {
	profile, err := models.ProfileConfigFor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func ProfileConfigSave(c *gin.Context, user *models.User) {
	profile := models.ProfileConfig{}
	if !bind(c, &profile) {
		return
	}
	if err := models.SaveProfileConfig(user.ID, &profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ProfileUpload stores the "file" form field as the user's asset of ?kind=
func ProfileUpload(c *gin.Context, user *models.User) {
	kind := c.Query("kind")
	if !storage.IsKind(kind) {
		c.JSON(http.StatusBadRequest, Response{"unknown kind"})
		return
	}
	maxSize := int64(config.MAX_UPLOAD_MB) << 20
	// Leave room for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+64<<10)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"missing or too large file"})
		return
	}
	if header.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, Response{"file too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	mimeType := detectMimeType(data)
	if _, ok := models.AssetExtension(kind, mimeType); !ok {
		c.JSON(http.StatusUnsupportedMediaType, Response{kind + " does not accept " + mimeType})
		return
	}
	resized := false
	if bounds, ok := imageBounds[kind]; ok {
		var buf bytes.Buffer
		result, err := utils.FitImage(bounds[0], bounds[1], data, &buf)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{"cannot read image"})
			return
		}
		data, resized = buf.Bytes(), result.Resized
	}
	asset, err := models.SaveAsset(user, kind, mimeType, bytes.NewReader(data))
	if err != nil {
		utils.Log.Error("upload failed", zap.String("kind", kind), zap.String("user", user.Username), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UploadResponse{
		Kind:     kind,
		URL:      asset.GetURL(user.Username),
		MimeType: asset.MimeType,
		Size:     asset.Size,
		Resized:  resized,
	})
}

func ProfileUploadDelete(c *gin.Context, user *models.User) {
	kind := c.Query("kind")
	if !storage.IsKind(kind) {
		c.JSON(http.StatusBadRequest, Response{"unknown kind"})
		return
	}
	if err := models.DeleteAsset(user.ID, kind); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func ProfileSocials(c *gin.Context, user *models.User) {
	links, err := models.SocialLinksFor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"socials": links, "platforms": models.SocialPlatforms()})
}

func ProfileSocialSave(c *gin.Context, user *models.User) {
	req := SocialRequest{}
	if !bind(c, &req) {
		return
	}
	link, err := models.SaveSocialLink(user.ID, req.Platform, req.Handle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func ProfileSocialDelete(c *gin.Context, user *models.User) {
	req := SocialRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.DeleteSocialLink(user.ID, req.Platform); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func ProfileLinks(c *gin.Context, user *models.User) {
	links, err := models.CustomLinksFor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, links)
}

func ProfileLinkSave(c *gin.Context, user *models.User) {
	link := models.CustomLink{}
	if !bind(c, &link) {
		return
	}
	if err := models.SaveCustomLink(user.ID, &link); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func ProfileLinkDelete(c *gin.Context, user *models.User) {
	req := IDRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.DeleteCustomLink(user.ID, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func ProfileLinksReorder(c *gin.Context, user *models.User) {
	req := ReorderRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.ReorderCustomLinks(user.ID, req.IDs); err != nil {
		respondError(c, err)
		return
	}
	ProfileLinks(c, user)
}

func ProfileEmbeds(c *gin.Context, user *models.User) {
	embeds, err := models.EmbedsFor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, embeds)
}

func ProfileEmbedAdd(c *gin.Context, user *models.User) {
	req := EmbedRequest{}
	if !bind(c, &req) {
		return
	}
	embed, err := models.AddEmbed(user.ID, req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, embed)
}

func ProfileEmbedDelete(c *gin.Context, user *models.User) {
	req := IDRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.DeleteEmbed(user.ID, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
