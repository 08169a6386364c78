package websocket

import (
	"context"
	"sync"

	config "github.com/TimmyIsANerd/chamswap/configs"
	"github.com/TimmyIsANerd/chamswap/models"
)

var log = config.InitLogger()

const (
	broadcastBuffer = 256
	clientBuffer    = 32
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type LedgerEvent struct {
	Type        string              `json:"type"`
	Transaction *models.Transaction `json:"transaction"`
}

// Hub fans recorded transactions out to every registered admin connection. Each
// connection has its own queue and writer goroutine, so only that goroutine writes
// to the connection once it is registered.
type Hub struct {
	register   chan Conn
	unregister chan Conn
	broadcast  chan *models.Transaction
	done       chan struct{}

	mu      sync.RWMutex
	clients map[Conn]*client
}

type client struct {
	conn Conn
	send chan LedgerEvent
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan *models.Transaction, broadcastBuffer),
		done:       make(chan struct{}),
		clients:    make(map[Conn]*client),
	}
}

// Register hands c to the hub. The caller must not write to c afterwards.
func (h *Hub) Register(c Conn) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Close()
	}
}

func (h *Hub) Unregister(c Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish never blocks the caller; events are dropped while the buffer is full.
func (h *Hub) Publish(tx *models.Transaction) {
	select {
	case h.broadcast <- tx:
	default:
		log.WithField("hash", tx.TransactionHash).Warn("Ledger feed buffer full, dropping event")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run serves the hub until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn, cl := range h.clients {
				h.drop(conn, cl)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			cl := &client{conn: c, send: make(chan LedgerEvent, clientBuffer)}
			h.mu.Lock()
			h.clients[c] = cl
			h.mu.Unlock()
			go h.writePump(cl)
			log.Info("Ledger feed client registered")
		case c := <-h.unregister:
			h.mu.Lock()
			if cl, ok := h.clients[c]; ok {
				h.drop(c, cl)
				log.Info("Ledger feed client unregistered")
			}
			h.mu.Unlock()
		case tx := <-h.broadcast:
			h.send(LedgerEvent{Type: "transaction", Transaction: tx})
		}
	}
}

// send queues event for every client; a client whose queue is full is dropped.
func (h *Hub) send(event LedgerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, cl := range h.clients {
		select {
		case cl.send <- event:
		default:
			log.Warn("Ledger feed client too slow, dropping client")
			h.drop(conn, cl)
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(conn Conn, cl *client) {
	delete(h.clients, conn)
	close(cl.send)
	_ = conn.Close()
}

func (h *Hub) writePump(cl *client) {
	for event := range cl.send {
		if err := cl.conn.WriteJSON(event); err != nil {
			log.WithError(err).Warn("Error sending ledger event, dropping client")
			h.Unregister(cl.conn)
			// drain until the hub closes the queue
			for range cl.send {
			}
			return
		}
	}
}
