package websocket

import (
	"encoding/json"
	"sync"
)

// BalanceUpdate is pushed to every attached device after a ledger mutation
// commits, so open UIs refresh without polling.
type BalanceUpdate struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) BroadcastBalance(update BalanceUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
		}
	}
}
