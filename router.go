package main

import (
	"sociallink/auth"
	"sociallink/config"
	"sociallink/db"
	"sociallink/handlers"
	"sociallink/models"
	"sociallink/utils"
	"sociallink/web"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 30 * 86400 // 30 days
	assetCacheTime        = 7 * 86400  // asset URLs carry a version
)

// Login and registration attempts per client IP: a burst of 5, then one every 10 seconds
var authLimiter = utils.NewRateLimiter(0.1, 5)

func newRouter() *gin.Engine {
	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if !config.TRUST_PROXY {
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery(), utils.RequestLogMiddleware)
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{strings.TrimSuffix(config.PUBLIC_URL, "/")},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: sessionExpirationTime, HttpOnly: true, Secure: config.TLS_DOMAINS != ""})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		// Assets are already compressed, and the feed is a websocket
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/u/[^/]+/asset/`, `^/motd/ws$`})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that

	// Custom Auth Router
	authRouter := &auth.Router{Base: router}
	// User handlers
	router.POST("/user/register", authLimiter.Handler(), handlers.UserRegister)
	router.POST("/user/login", authLimiter.Handler(), handlers.UserLogin)
	router.POST("/user/logout", handlers.UserLogout)
	authRouter.GET("/user/status", handlers.UserGetStatus)
	router.GET("/invite/check", handlers.InviteCheck)
	// Account handlers
	authRouter.POST("/account/username", handlers.AccountUsername)
	authRouter.POST("/account/display-name", handlers.AccountDisplayName)
	authRouter.POST("/account/reset", handlers.AccountReset)
	authRouter.POST("/account/delete", handlers.AccountDelete)
	// Profile handlers
	authRouter.GET("/profile/config", handlers.ProfileConfigGet)
	authRouter.POST("/profile/config", handlers.ProfileConfigSave)
	authRouter.POST("/profile/upload", handlers.ProfileUpload)
	authRouter.POST("/profile/upload/delete", handlers.ProfileUploadDelete)
	authRouter.GET("/profile/socials", handlers.ProfileSocials)
	authRouter.POST("/profile/socials", handlers.ProfileSocialSave)
	authRouter.POST("/profile/socials/delete", handlers.ProfileSocialDelete)
	authRouter.GET("/profile/links", handlers.ProfileLinks)
	authRouter.POST("/profile/links", handlers.ProfileLinkSave)
	authRouter.POST("/profile/links/delete", handlers.ProfileLinkDelete)
	authRouter.POST("/profile/links/reorder", handlers.ProfileLinksReorder)
	authRouter.GET("/profile/embeds", handlers.ProfileEmbeds)
	authRouter.POST("/profile/embeds", handlers.ProfileEmbedAdd)
	authRouter.POST("/profile/embeds/delete", handlers.ProfileEmbedDelete)
	// Invite handlers (eligibility is checked in the handler)
	authRouter.GET("/invite/list", handlers.InviteList)
	authRouter.POST("/invite/create", handlers.InviteCreate)
	// Admin handlers
	authRouter.GET("/admin/users", handlers.AdminUsers, models.PermissionAdmin)
	authRouter.POST("/admin/user/ban", handlers.AdminUserBan, models.PermissionModerate)
	authRouter.POST("/admin/user/unban", handlers.AdminUserUnban, models.PermissionModerate)
	authRouter.POST("/admin/user/grant", handlers.AdminUserGrant, models.PermissionAdmin)
	authRouter.POST("/admin/user/revoke", handlers.AdminUserRevoke, models.PermissionAdmin)
	authRouter.POST("/admin/user/invite-limit", handlers.AdminUserInviteLimit, models.PermissionAdmin)
	authRouter.POST("/admin/user/delete", handlers.AdminUserDelete, models.PermissionAdmin)
	authRouter.GET("/admin/invites", handlers.AdminInvites, models.PermissionAdmin)
	authRouter.POST("/admin/invite/delete", handlers.AdminInviteDelete, models.PermissionAdmin)
	authRouter.POST("/admin/badge/save", handlers.AdminBadgeSave, models.PermissionAdmin)
	authRouter.POST("/admin/badge/delete", handlers.AdminBadgeDelete, models.PermissionAdmin)
	authRouter.POST("/admin/badge/assign", handlers.AdminBadgeAssign, models.PermissionBadges)
	authRouter.POST("/admin/badge/unassign", handlers.AdminBadgeUnassign, models.PermissionBadges)
	authRouter.POST("/admin/motd", handlers.AdminMotd, models.PermissionAdmin)
	authRouter.GET("/admin/stats", handlers.AdminStats, models.PermissionAdmin)
	// Bucket handlers
	authRouter.GET("/admin/bucket/list", handlers.BucketList, models.PermissionAdmin)
	authRouter.POST("/admin/bucket/save", handlers.BucketSave, models.PermissionAdmin)

	/*
	 *	Public surface
	 */
	router.GET("/u/:username", web.ProfileView)
	router.GET("/u/:username/asset/:kind", (&utils.CacheRouter{CacheTime: assetCacheTime, Public: true}).Handler(), web.AssetView)
	router.GET("/badges", web.BadgeList)
	router.GET("/motd", web.MotdView)
	router.GET("/motd/ws", handlers.MotdSocket)
	// Misc
	router.GET("/robots.txt", web.DisallowRobots)
	return router
}
