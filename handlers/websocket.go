package handlers

import (
	"encoding/json"
	"net/http"
	"sociallink/models"
	"sociallink/utils"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// SendSocketFunc returns true if data was successfully sent
type SendSocketFunc func([]byte) bool

type ConnectedClient struct {
	fun SendSocketFunc
}

// Feed fans messages out to every connected websocket
type Feed struct {
	clients cmap.ConcurrentMap[string, *ConnectedClient]
}

var (
	MotdFeed = NewFeed()

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The feed is public and read-only
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

func NewFeed() *Feed {
	return &Feed{clients: cmap.New[*ConnectedClient]()}
}

func (f *Feed) add(c *ConnectedClient) string {
	id := utils.Rand8BytesToBase62()
	f.clients.Set(id, c)
	return id
}

func (f *Feed) remove(id string) {
	f.clients.Remove(id)
}

func (f *Feed) Count() int {
	return f.clients.Count()
}

// Send delivers data to all clients and drops the ones that failed
func (f *Feed) Send(data []byte) {
	for item := range f.clients.IterBuffered() {
		if !item.Val.fun(data) {
			f.remove(item.Key)
		}
	}
}

func (f *Feed) Broadcast(motd *models.Motd) {
	data, err := json.Marshal(motd)
	if err != nil {
		return
	}
	f.Send(data)
}

// MotdSocket sends the current MOTD and then every change
func MotdSocket(c *gin.Context) {
	serveFeed(c, MotdFeed, func() ([]byte, error) {
		motd, err := models.GetMotd()
		if err != nil {
			return nil, err
		}
		return json.Marshal(&motd)
	})
}

func serveFeed(c *gin.Context, feed *Feed, initial func() ([]byte, error)) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Setup client
	var writeMutex sync.Mutex
	isConnected := true
	writeLocked := func(messageType int, data []byte) bool {
		if !isConnected {
			return false
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(messageType, data); err != nil {
			isConnected = false
			return false
		}
		return true
	}
	write := func(messageType int, data []byte) bool {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		return writeLocked(messageType, data)
	}
	client := ConnectedClient{fun: func(data []byte) bool {
		return write(websocket.TextMessage, data)
	}}
	// Subscribe before reading the initial state, broadcasts wait for it to be sent
	writeMutex.Lock()
	id := feed.add(&client)
	if data, err := initial(); err == nil {
		writeLocked(websocket.TextMessage, data)
	}
	writeMutex.Unlock()
	defer feed.remove(id)
	// Main read cycle
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if string(message) == "ping" {
			write(mt, []byte("pong"))
		}
	}
	writeMutex.Lock()
	isConnected = false
	writeMutex.Unlock()
}
