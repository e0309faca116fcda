package refresh

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard runs on another origin in dev
	},
}

// WSHandler upgrades a dashboard connection and keeps it subscribed
// until the peer goes away. Incoming messages are ignored; the
// channel is push-only.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.SubscribeWS(ws)
		log.Println("[ws] dashboard connected")

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.UnsubscribeWS(ws)
		log.Println("[ws] dashboard disconnected")
	}
}
