package relay

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

//Connection is one live session in the room
type Connection struct {
	id     string
	hub    *Hub
	ws     *websocket.Conn
	send   chan []byte
	closed bool
}

func newConnection(hub *Hub, ws *websocket.Conn) *Connection {
	return &Connection{
		id:   uuid.NewString(),
		hub:  hub,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}
}

//ID returns the opaque session id assigned on connect
func (c *Connection) ID() string {
	return c.id
}

//readPump reads frames off the socket and forwards chat-message envelopes to
//the hub verbatim. Any read error ends the session.
func (c *Connection) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).WithField("ConnectionID", c.id).Debug("read error")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.WithField("ConnectionID", c.id).Debugf("discarding unframed message: %v", err)
			continue
		}
		if envelope.Event != ChatMessageEvent {
			log.WithField("ConnectionID", c.id).Debugf("ignoring event %q", envelope.Event)
			continue
		}

		select {
		case c.hub.broadcasts <- broadcast{sender: c, payload: raw}:
		case <-c.hub.done:
			return
		}
	}
}

//writePump flushes queued payloads to the socket and keeps the connection
//alive with periodic pings
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WithError(err).WithField("ConnectionID", c.id).Debug("write error")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
