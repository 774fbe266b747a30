package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
)

// CacheRouter sets the cache-control header for every request going through it
type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
	Public    bool
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cr.CacheTime != CacheCustom {
			c.Header("cache-control", cr.value())
		}
		c.Next()
	}
}

func (cr *CacheRouter) value() string {
	if cr.CacheTime == CacheNoCache {
		return "no-cache"
	}
	scope := "private"
	if cr.Public {
		scope = "public"
	}
	return scope + ", max-age=" + strconv.Itoa(cr.CacheTime)
}
