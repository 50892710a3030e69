package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// StatusUpdate is the payload pushed to dashboard clients when a WhatsApp
// connection changes state.
type StatusUpdate struct {
	InstanceToken string `json:"instanceToken"`
	Status        string `json:"status"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
}

// StatusHub fans WhatsApp connection updates out to the websockets a user
// has open. Slow or dead sockets are dropped on write failure.
type StatusHub struct {
	mu     sync.Mutex
	conns  map[uint]map[*websocket.Conn]struct{}
	logger *log.Logger
}

func NewStatusHub(logger *log.Logger) *StatusHub {
	return &StatusHub{
		conns:  make(map[uint]map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

// Handle keeps a dashboard websocket registered until the peer goes away.
// The user ID is resolved by the JWT middleware before the upgrade.
func (h *StatusHub) Handle(c *websocket.Conn) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		c.Close()
		return
	}

	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns[userID], c)
		if len(h.conns[userID]) == 0 {
			delete(h.conns, userID)
		}
		h.mu.Unlock()
		c.Close()
	}()

	// Reads are only used to detect the peer closing.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes a status update to every socket the user has open.
func (h *StatusHub) Broadcast(userID uint, update StatusUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns[userID] {
		if err := conn.WriteJSON(update); err != nil {
			h.logger.Printf("Dropping websocket for user %d: %v", userID, err)
			conn.Close()
			delete(h.conns[userID], conn)
		}
	}
}
