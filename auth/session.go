package auth

import (
	"sociallink/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const userIdKey = "id"

type Session struct {
	sessions.Session
}

// LoadSession returns nil when the sessions middleware is not installed
func LoadSession(c *gin.Context) *Session {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return nil
	}
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginUser(user *models.User) error {
	s.Set(userIdKey, user.ID)
	return s.Save()
}

func (s *Session) LogoutUser() {
	s.Delete(userIdKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}

func (s *Session) UserID() string {
	id, _ := s.Get(userIdKey).(string)
	return id
}
