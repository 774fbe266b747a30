package auth

import (
	"errors"
	"net/http"
	"sociallink/models"
	"strings"

	"github.com/gin-gonic/gin"
)

// User is authenticated, not banned and posseses the required permissions
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper class that adds auth checks + User pre-loading
type Router struct {
	Base gin.IRoutes
}

var (
	errNoCredentials = errors.New("access denied")
	errNotRegistered = errors.New("not registered")
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// CurrentUserID returns the caller's user ID from a bearer token or the session cookie
func CurrentUserID(c *gin.Context) (string, error) {
	if token := bearerToken(c); token != "" {
		claims, err := ParseToken(token)
		if err != nil {
			return "", errNoCredentials
		}
		return claims.Subject, nil
	}
	if session := LoadSession(c); session != nil {
		if id := session.UserID(); id != "" {
			return id, nil
		}
	}
	return "", errNoCredentials
}

// CurrentUser loads the caller. Banned users are returned as well.
func CurrentUser(c *gin.Context) (models.User, error) {
	id, err := CurrentUserID(c)
	if err != nil {
		return models.User{}, err
	}
	user, err := models.UserByID(id)
	if errors.Is(err, models.ErrNotFound) {
		return user, errNotRegistered
	}
	return user, err
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc, required []models.Permission) {
	user, err := CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if user.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned", "reason": user.BanReason})
		return
	}
	if !user.HasPermissions(required) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	handler(c, &user)
}

func (cr *Router) POST(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) GET(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) PUT(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.PUT(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) DELETE(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.DELETE(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}
