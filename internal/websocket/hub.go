package websocket

import (
	"sync"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
)

// DeliveryReport summarizes one fan-out operation. Delivery is best-effort:
// callers may inspect the report for observability but are never handed an
// error for a connection that went away mid-send.
type DeliveryReport struct {
	Matched   int `json:"matched"`
	Delivered int `json:"delivered"`
	Dropped   int `json:"dropped"`
}

// Stats is a snapshot of the registry for health reporting.
type Stats struct {
	Connections   int `json:"connections"`
	Authenticated int `json:"authenticated"`
	Scopes        int `json:"scopes"`
}

// Hub is the in-memory connection registry and fan-out router. It is the one
// structure mutated from many concurrent request goroutines, and is rebuilt
// empty on restart; it is a routing table, not a source of truth.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	bySubject map[string]map[*Client]bool
	byScope   map[string]map[*Client]bool
	log       *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		bySubject: make(map[string]map[*Client]bool),
		byScope:   make(map[string]map[*Client]bool),
		log:       log,
	}
}

// Register adds a freshly upgraded, not yet authenticated connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("WS client %s connected. Total: %d", c.ID, total)
}

// Authenticate binds a connection to a subject identity and joins it to the
// subject's user scope and the global scope. A subject may hold any number of
// simultaneous connections.
func (h *Hub) Authenticate(c *Client, subjectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	// A re-authenticating connection must leave its previous identity first,
	// or the old subject index would keep a pointer to it past disconnect.
	if c.subjectID != "" && c.subjectID != subjectID {
		h.leaveSubjectLocked(c, c.subjectID)
	}

	c.subjectID = subjectID
	if h.bySubject[subjectID] == nil {
		h.bySubject[subjectID] = make(map[*Client]bool)
	}
	h.bySubject[subjectID][c] = true

	h.joinScopeLocked(c, models.UserScope(subjectID))
	h.joinScopeLocked(c, models.ScopeGlobal)

	h.log.Info("WS client %s authenticated as subject %s", c.ID, subjectID)
}

// Subscribe joins a connection to an additional scope.
func (h *Hub) Subscribe(c *Client, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	h.joinScopeLocked(c, scope)
	h.log.Debug("WS client %s subscribed to scope %s", c.ID, scope)
}

func (h *Hub) joinScopeLocked(c *Client, scope string) {
	if h.byScope[scope] == nil {
		h.byScope[scope] = make(map[*Client]bool)
	}
	h.byScope[scope][c] = true
}

func (h *Hub) leaveSubjectLocked(c *Client, subjectID string) {
	if set := h.bySubject[subjectID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.bySubject, subjectID)
		}
	}
	scope := models.UserScope(subjectID)
	if set := h.byScope[scope]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byScope, scope)
		}
	}
}

// Unregister removes a connection from every index and closes its send
// channel exactly once. Safe to call for an already removed client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	delete(h.clients, c)

	if c.subjectID != "" {
		if set := h.bySubject[c.subjectID]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.bySubject, c.subjectID)
			}
		}
	}
	for scope, set := range h.byScope {
		if set[c] {
			delete(set, c)
			if len(set) == 0 {
				delete(h.byScope, scope)
			}
		}
	}

	close(c.send)
	h.log.Info("WS client %s disconnected. Total: %d", c.ID, len(h.clients))
}

// SendToSubject delivers an event to every live connection of one subject.
func (h *Hub) SendToSubject(subjectID string, event models.Event) DeliveryReport {
	return h.deliver(event, func() map[*Client]bool {
		return h.bySubject[subjectID]
	})
}

// SendToScope delivers an event to every connection subscribed to a scope.
func (h *Hub) SendToScope(scope string, event models.Event) DeliveryReport {
	return h.deliver(event, func() map[*Client]bool {
		return h.byScope[scope]
	})
}

// Broadcast delivers an event to every registered connection, authenticated
// or not.
func (h *Hub) Broadcast(event models.Event) DeliveryReport {
	return h.deliver(event, func() map[*Client]bool {
		return h.clients
	})
}

// deliver pushes the event to each target without blocking. A client whose
// buffer is full is dropped from the registry; the failure never propagates
// to the event's originator.
func (h *Hub) deliver(event models.Event, targets func() map[*Client]bool) DeliveryReport {
	var report DeliveryReport

	if !models.ValidEventType(event.Type) {
		h.log.Warn("Dropping event with unknown type %q", event.Type)
		return report
	}

	var dropped []*Client

	h.mu.RLock()
	for c := range targets() {
		report.Matched++
		select {
		case c.send <- event:
			report.Delivered++
		default:
			report.Dropped++
			dropped = append(dropped, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dropped {
		h.log.Warn("WS client %s send buffer full, dropping connection", c.ID)
		h.Unregister(c)
	}

	return report
}

// sendControl queues a connection-control message for one client. The
// registry membership check under the read lock guarantees the send channel
// has not been closed, since closing happens only under the write lock.
func (h *Hub) sendControl(c *Client, msg interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	authed := 0
	for _, set := range h.bySubject {
		authed += len(set)
	}
	return Stats{
		Connections:   len(h.clients),
		Authenticated: authed,
		Scopes:        len(h.byScope),
	}
}

// Shutdown disconnects every client. New registrations after shutdown are
// not prevented; the HTTP server is expected to stop accepting upgrades
// first.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
	h.log.Info("WebSocket hub shut down, %d clients disconnected", len(clients))
}
