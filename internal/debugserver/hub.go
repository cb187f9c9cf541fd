package debugserver

import (
	"sync"

	"github.com/gorilla/websocket"
)

// streamClient is one connected /stream WebSocket observer.
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *streamClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *streamClient) readLoop(h *hub) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// hub fans snapshot broadcasts out to every connected client; a client
// whose send buffer is full misses that snapshot (it stays registered)
// rather than blocking the broadcast.
type hub struct {
	mu      sync.RWMutex
	clients map[*streamClient]bool

	registerCh   chan *streamClient
	unregisterCh chan *streamClient
	broadcastCh  chan []byte
}

func newHub() *hub {
	return &hub{
		clients:      make(map[*streamClient]bool),
		registerCh:   make(chan *streamClient),
		unregisterCh: make(chan *streamClient),
		broadcastCh:  make(chan []byte, 256),
	}
}

func (h *hub) register(c *streamClient)   { h.registerCh <- c }
func (h *hub) unregister(c *streamClient) { h.unregisterCh <- c }
func (h *hub) broadcast(data []byte) {
	select {
	case h.broadcastCh <- data:
	default:
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.registerCh:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregisterCh:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case data := <-h.broadcastCh:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}
