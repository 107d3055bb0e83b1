package relay

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the single-page client is served cross-origin in development
	CheckOrigin: func(*http.Request) bool { return true },
}

//Handler upgrades requests on the chat endpoint and registers the resulting
//connection with the hub, which starts its read and write pumps
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Error("websocket upgrade failed")
			return
		}
		hub.register <- newConnection(hub, ws)
	}
}
