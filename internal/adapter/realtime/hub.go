package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/usecase"
)

var _ usecase.Broadcaster = (*Hub)(nil)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendQueueSize  = 64
	publishBuffer  = 256
)

// Hub fans every published event out to all connected sessions.
// Delivery is at-most-once: nothing is replayed and slow sessions are dropped.
type Hub struct {
	logger     *logrus.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	members    atomic.Int64
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, publishBuffer),
		done:       make(chan struct{}),
	}
}

// Members returns the number of connected sessions.
func (h *Hub) Members() int {
	return int(h.members.Load())
}

// Run owns the member set until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) error {
	clients := make(map[*client]struct{})
	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
		h.members.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.register:
			clients[c] = struct{}{}
			h.members.Store(int64(len(clients)))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.members.Store(int64(len(clients)))
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					h.logger.WithField("remote", c.remote).Warn("dropping slow websocket client")
					delete(clients, c)
					close(c.send)
				}
			}
			h.members.Store(int64(len(clients)))
		}
	}
}

// Publish never blocks the caller. When the hub backlog is full the event is dropped.
func (h *Hub) Publish(event entity.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).WithField("type", event.Type).Error("encode event")
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.WithField("type", event.Type).Warn("broadcast backlog full, event dropped")
	}
}

// ServeHTTP upgrades the request and joins the session to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendQueueSize), remote: r.RemoteAddr}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	h.logger.WithField("remote", c.remote).Debug("websocket client connected")

	go c.writePump()
	go c.readPump()
}
