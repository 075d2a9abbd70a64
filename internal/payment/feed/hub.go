package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientBuffer   = 32
	broadcastSize  = 256
)

var (
	ErrFeedFull   = errors.New("feed: broadcast buffer full")
	ErrFeedClosed = errors.New("feed: hub stopped")
)

// Hub fans payment events out to connected WebSocket clients.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients      map[*client]struct{}
	clientCount  *atomic.Int64
	registerCH   chan *client
	unregisterCH chan *client
	broadcastCH  chan *payment.Event
	doneCH       chan struct{}
	upgrader     websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*client]struct{}),
		clientCount:  new(atomic.Int64),
		registerCH:   make(chan *client),
		unregisterCH: make(chan *client),
		broadcastCH:  make(chan *payment.Event, broadcastSize),
		doneCH:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.doneCH)
		for c := range h.clients {
			close(c.sendCH)
			delete(h.clients, c)
		}
		h.clientCount.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.registerCH:
			h.clients[c] = struct{}{}
			h.clientCount.Store(int64(len(h.clients)))
			logrus.WithField("clientID", c.id).Info("FEED:CLIENT_JOINED")
		case c := <-h.unregisterCH:
			h.remove(c)
		case ev := <-h.broadcastCH:
			b, err := json.Marshal(ev)
			if err != nil {
				logrus.Errorf("FEED:MARSHAL_FAILED %v", err)
				continue
			}
			for c := range h.clients {
				select {
				case c.sendCH <- b:
				default:
					logrus.WithField("clientID", c.id).Warn("FEED:SLOW_CLIENT_DROPPED")
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.sendCH)
	h.clientCount.Store(int64(len(h.clients)))
	logrus.WithField("clientID", c.id).Info("FEED:CLIENT_LEFT")
}

func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Publish never blocks the caller; events are dropped when the buffer is full.
func (h *Hub) Publish(ctx context.Context, ev *payment.Event) error {
	select {
	case <-h.doneCH:
		return ErrFeedClosed
	default:
	}

	select {
	case h.broadcastCH <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFeedFull
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("FEED:UPGRADE_FAILED %v", err)
		return
	}

	c := newClient(conn)
	select {
	case h.registerCH <- c:
	case <-h.doneCH:
		conn.Close()
		return
	}

	go c.writeLoop()
	c.readLoop(h)
}
