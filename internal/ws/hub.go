package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"olo_mining/internal/domain"
	"olo_mining/internal/logger"
	"olo_mining/internal/metrics"
	"olo_mining/internal/service"
)

// Hub fans events out to every open connection of an install.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     logger.Component("ws"),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.InstallID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.InstallID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.InstallID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.InstallID)
	}
	metrics.WSConnections.Dec()
}

// Count returns the number of open connections of an install.
func (h *Hub) Count(installID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[installID])
}

// Publish queues f on every connection of the install. Slow clients drop frames.
func (h *Hub) Publish(installID string, f Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		h.log.Error("encode frame", "type", f.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[installID] {
		c.queue(msg)
	}
}

// TaskCompleted is registered with TaskService.OnComplete.
func (h *Hub) TaskCompleted(c service.TaskCompletion) {
	h.Publish(c.InstallID, Frame{Type: FrameTaskCompleted, Data: c})
}

// NotifyWithdrawal pushes new requests to the wallet view.
func (h *Hub) NotifyWithdrawal(_ context.Context, installID string, _ *domain.User, w domain.Withdrawal) {
	h.Publish(installID, Frame{Type: FrameWithdrawal, Data: w})
}
