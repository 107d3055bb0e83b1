package relay

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

//Hub owns the single shared room. Every connection joins it on registration
//and chat payloads are rebroadcast to all members except the sender.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]struct{}
	register    chan *Connection
	unregister  chan *Connection
	broadcasts  chan broadcast
	quit        chan struct{}
	done        chan struct{}
}

//NewHub returns a hub ready to run
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Connection]struct{}),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcasts:  make(chan broadcast),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

//Run dispatches registration, removal and broadcast events until Stop is
//called. It should be started in its own goroutine before the HTTP server.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.closeAll()
			return
		case conn := <-h.register:
			h.add(conn)
			go conn.writePump()
			go conn.readPump()
		case conn := <-h.unregister:
			h.remove(conn)
		case msg := <-h.broadcasts:
			h.fanOut(msg)
		}
	}
}

//Stop shuts the dispatch loop down and closes all member connections
func (h *Hub) Stop() {
	close(h.quit)
	<-h.done
}

//ConnectionCount reports the current room membership
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) add(c *Connection) {
	h.mu.Lock()
	h.connections[c] = struct{}{}
	count := len(h.connections)
	h.mu.Unlock()
	log.WithField("ConnectionID", c.id).Infof("connection joined room, %d connected", count)
}

func (h *Hub) remove(c *Connection) {
	h.mu.Lock()
	_, present := h.connections[c]
	if present {
		delete(h.connections, c)
		c.closed = true
	}
	count := len(h.connections)
	h.mu.Unlock()

	if present {
		close(c.send)
		log.WithField("ConnectionID", c.id).Infof("connection left room, %d connected", count)
	}
}

//fanOut delivers the payload to every member except the sender. Delivery is
//best effort: a member whose buffer is full or whose connection is gone is
//dropped from the room without holding up the rest.
func (h *Hub) fanOut(msg broadcast) {
	h.mu.RLock()
	members := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		members = append(members, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range members {
		if c == msg.sender {
			continue
		}
		if !h.trySend(c, msg.payload) {
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		log.WithField("ConnectionID", c.id).Info("dropping unreachable connection")
		h.remove(c)
	}
}

//trySend queues the payload for one member without blocking. The membership
//check and the send happen under the same lock so the send channel cannot be
//closed in between.
func (h *Hub) trySend(c *Connection, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, present := h.connections[c]; !present || c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	members := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		if err := c.ws.Close(); err != nil {
			log.WithError(err).WithField("ConnectionID", c.id).Debug("error closing connection")
		}
	}
	log.Infof("closed %d connections", len(members))
}
