package web

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	viewWindow       = time.Hour
	viewCleanupAbove = 10000
)

// viewTracker remembers when a client IP last counted as a view of a profile
type viewTracker struct {
	seen cmap.ConcurrentMap[string, int64]
	now  func() time.Time
}

func newViewTracker() *viewTracker {
	return &viewTracker{seen: cmap.New[int64](), now: time.Now}
}

var views = newViewTracker()

// ShouldCount returns true at most once per ip and username within the window
func (v *viewTracker) ShouldCount(ip, username string) bool {
	now := v.now().Unix()
	counted := false
	v.seen.Upsert(ip+"|"+username, now, func(exist bool, valueInMap, newValue int64) int64 {
		if exist && newValue-valueInMap < int64(viewWindow.Seconds()) {
			return valueInMap
		}
		counted = true
		return newValue
	})
	if counted && v.seen.Count() > viewCleanupAbove {
		v.cleanup()
	}
	return counted
}

func (v *viewTracker) cleanup() {
	cutoff := v.now().Add(-viewWindow).Unix()
	for item := range v.seen.IterBuffered() {
		if item.Val < cutoff {
			v.seen.RemoveCb(item.Key, func(key string, value int64, exists bool) bool {
				return exists && value < cutoff
			})
		}
	}
}
