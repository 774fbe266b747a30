package handlers

import (
	"net/http"
	"sociallink/db"
	"sociallink/models"
	"sociallink/notify"
	"sociallink/storage"
	"sociallink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BanRequest struct {
	UserID string `json:"user_id" form:"user_id" binding:"required"`
	Reason string `json:"reason" form:"reason"`
}

type GrantRequest struct {
	UserID     string `json:"user_id" form:"user_id" binding:"required"`
	Permission string `json:"permission" form:"permission" binding:"required"`
}

type InviteLimitRequest struct {
	UserID string `json:"user_id" form:"user_id" binding:"required"`
	Limit  int    `json:"limit" form:"limit"`
}

type BadgeAssignRequest struct {
	UserID  string `json:"user_id" form:"user_id" binding:"required"`
	BadgeID uint64 `json:"badge_id" form:"badge_id" binding:"required"`
}

type MotdRequest struct {
	Message string `json:"message" form:"message"`
}

type StorageStats struct {
	Kind      string `json:"kind"`
	Bucket    string `json:"bucket"`
	Remote    bool   `json:"remote"`
	FreeSpace uint64 `json:"free_space"` // 0 when unknown
}

type Stats struct {
	Users       int64          `json:"users"`
	BannedUsers int64          `json:"banned_users"`
	Invites     int64          `json:"invites"`
	UsedInvites int64          `json:"used_invites"`
	Badges      int64          `json:"badges"`
	Views       uint64         `json:"views"`
	Storage     []StorageStats `json:"storage"`
}

// targetUser loads the user an admin action is about. Acting on yourself is refused.
func targetUser(c *gin.Context, actor *models.User, userID string) (models.User, bool) {
	if userID == actor.ID {
		c.JSON(http.StatusForbidden, SelfResponse)
		return models.User{}, false
	}
	target, err := models.UserByID(userID)
	if err != nil {
		respondError(c, err)
		return target, false
	}
	return target, true
}

func AdminUsers(c *gin.Context, user *models.User) {
	offset, limit := pagination(c)
	users, total, err := models.ListUsers(c.Query("search"), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	type adminUser struct {
		models.User
		Permissions []string `json:"permissions"`
	}
	result := make([]adminUser, 0, len(users))
	for i := range users {
		result = append(result, adminUser{User: users[i], Permissions: users[i].GetPermissions()})
	}
	c.JSON(http.StatusOK, gin.H{"users": result, "total": total})
}

// AdminUserBan is open to moderators, who cannot ban admins
func AdminUserBan(c *gin.Context, user *models.User) {
	req := BanRequest{}
	if !bind(c, &req) {
		return
	}
	target, ok := targetUser(c, user, req.UserID)
	if !ok {
		return
	}
	if target.IsAdmin() && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, Response{"moderators cannot ban admins"})
		return
	}
	if err := target.Ban(req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	utils.Log.Info("user banned", zap.String("username", target.Username), zap.String("by", user.Username))
	notify.UserBanned(&target, user)
	c.JSON(http.StatusOK, OKResponse)
}

func AdminUserUnban(c *gin.Context, user *models.User) {
	req := UserIDRequest{}
	if !bind(c, &req) {
		return
	}
	target, ok := targetUser(c, user, req.UserID)
	if !ok {
		return
	}
	if err := target.Unban(); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func grantRequest(c *gin.Context, user *models.User) (models.User, models.Permission, bool) {
	req := GrantRequest{}
	if !bind(c, &req) {
		return models.User{}, models.PermissionNone, false
	}
	permission := models.PermissionFromString(req.Permission)
	if permission == models.PermissionNone {
		c.JSON(http.StatusBadRequest, Response{"unknown permission"})
		return models.User{}, permission, false
	}
	target, ok := targetUser(c, user, req.UserID)
	return target, permission, ok
}

func AdminUserGrant(c *gin.Context, user *models.User) {
	target, permission, ok := grantRequest(c, user)
	if !ok {
		return
	}
	if err := models.GrantPermission(target.ID, permission, &user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminUserRevoke(c *gin.Context, user *models.User) {
	target, permission, ok := grantRequest(c, user)
	if !ok {
		return
	}
	if err := models.RevokePermission(target.ID, permission); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminUserInviteLimit(c *gin.Context, user *models.User) {
	req := InviteLimitRequest{}
	if !bind(c, &req) {
		return
	}
	target, err := models.UserByID(req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err = target.SetInviteLimit(req.Limit); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminUserDelete(c *gin.Context, user *models.User) {
	req := UserIDRequest{}
	if !bind(c, &req) {
		return
	}
	target, ok := targetUser(c, user, req.UserID)
	if !ok {
		return
	}
	if err := deleteAccount(target.ID); err != nil {
		respondError(c, err)
		return
	}
	utils.Log.Info("user deleted", zap.String("username", target.Username), zap.String("by", user.Username))
	c.JSON(http.StatusOK, OKResponse)
}

func AdminInvites(c *gin.Context, user *models.User) {
	offset, limit := pagination(c)
	invites, total, err := models.ListInvites(c.Query("unused") == "true", offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites, "total": total})
}

func AdminInviteDelete(c *gin.Context, user *models.User) {
	req := IDRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.DeleteInvite(req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminBadgeSave(c *gin.Context, user *models.User) {
	badge := models.Badge{}
	if !bind(c, &badge) {
		return
	}
	if err := models.SaveBadge(&badge); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, badge)
}

func AdminBadgeDelete(c *gin.Context, user *models.User) {
	req := IDRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.DeleteBadge(req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminBadgeAssign(c *gin.Context, user *models.User) {
	req := BadgeAssignRequest{}
	if !bind(c, &req) {
		return
	}
	if _, err := models.UserByID(req.UserID); err != nil {
		respondError(c, err)
		return
	}
	if err := models.AssignBadge(req.UserID, req.BadgeID, &user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminBadgeUnassign(c *gin.Context, user *models.User) {
	req := BadgeAssignRequest{}
	if !bind(c, &req) {
		return
	}
	if err := models.UnassignBadge(req.UserID, req.BadgeID); err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminMotd(c *gin.Context, user *models.User) {
	req := MotdRequest{}
	if !bind(c, &req) {
		return
	}
	motd, err := models.SetMotd(req.Message, &user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	MotdFeed.Broadcast(&motd)
	notify.MotdUpdated(&motd, user)
	c.JSON(http.StatusOK, motd)
}

func AdminStats(c *gin.Context, user *models.User) {
	stats := Stats{Storage: []StorageStats{}}
	tx := db.Instance
	counts := []struct {
		model interface{}
		where map[string]interface{}
		dest  *int64
	}{
		{&models.User{}, nil, &stats.Users},
		{&models.User{}, map[string]interface{}{"banned": true}, &stats.BannedUsers},
		{&models.Invite{}, nil, &stats.Invites},
		{&models.Invite{}, map[string]interface{}{"used": true}, &stats.UsedInvites},
		{&models.Badge{}, nil, &stats.Badges},
	}
	for _, count := range counts {
		q := tx.Model(count.model)
		if count.where != nil {
			q = q.Where(count.where)
		}
		if err := q.Count(count.dest).Error; err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
	}
	var views struct{ Total uint64 }
	if err := tx.Model(&models.User{}).Select("COALESCE(SUM(views), 0) AS total").Scan(&views).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	stats.Views = views.Total
	for _, s := range storage.All() {
		bucket := s.GetBucket()
		stats.Storage = append(stats.Storage, StorageStats{
			Kind:      bucket.Kind,
			Bucket:    bucket.Name,
			Remote:    bucket.IsRemote(),
			FreeSpace: s.GetFreeSpace(),
		})
	}
	c.JSON(http.StatusOK, stats)
}
