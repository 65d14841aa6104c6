package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// VerifyToken checks a handshake token and returns the subject and
// department identity it carries.
type VerifyToken func(token string) (subjectID, departmentID string, err error)

// Client is one live websocket connection. Identity fields are written only
// under the hub lock.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan interface{}
	log  *logger.Logger

	subjectID string
}

// command is the inbound control message a client may send.
type command struct {
	Action string `json:"action"`
	Token  string `json:"token,omitempty"`
	Scope  string `json:"scope,omitempty"`
}

// ack confirms or rejects an inbound command. Acks are connection control,
// not part of the delivered-event taxonomy.
type ack struct {
	Ack    string `json:"ack"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ServeWS upgrades an HTTP request and runs the connection until disconnect.
func ServeWS(hub *Hub, verify VerifyToken, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("WS upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan interface{}, sendBufferSize),
		log:  log,
	}
	hub.Register(client)

	go client.writePump()
	go client.readPump(verify)
}

// writePump pumps events from the hub to the connection, interleaved with
// pings. One writer goroutine per connection keeps writes serialized.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound control commands: authenticate with a token,
// then subscribe to scopes. Anything else closes the connection loop.
func (c *Client) readPump(verify VerifyToken) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var (
		authenticated bool
		subjectID     string
		departmentID  string
	)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			c.writeAck(ack{Ack: "error", Status: "rejected", Detail: "malformed command"})
			continue
		}

		switch cmd.Action {
		case "authenticate":
			sub, dept, err := verify(cmd.Token)
			if err != nil {
				c.log.Warn("WS client %s failed authentication: %v", c.ID, err)
				c.writeAck(ack{Ack: "authenticate", Status: "rejected", Detail: "invalid token"})
				continue
			}
			authenticated = true
			subjectID = sub
			departmentID = dept
			c.hub.Authenticate(c, subjectID)
			c.writeAck(ack{Ack: "authenticate", Status: "ok"})

		case "subscribe":
			if !authenticated {
				c.writeAck(ack{Ack: "subscribe", Status: "rejected", Detail: "authenticate first"})
				continue
			}
			if !c.scopeAllowed(cmd.Scope, subjectID, departmentID) {
				c.log.Warn("WS client %s denied scope %q", c.ID, cmd.Scope)
				c.writeAck(ack{Ack: "subscribe", Status: "rejected", Detail: "scope not permitted"})
				continue
			}
			c.hub.Subscribe(c, cmd.Scope)
			c.writeAck(ack{Ack: "subscribe", Status: "ok"})

		default:
			c.writeAck(ack{Ack: "error", Status: "rejected", Detail: "unknown action"})
		}
	}
}

// scopeAllowed restricts subscriptions to the connection's own identity: its
// user scope, its department scope, or the global scope.
func (c *Client) scopeAllowed(scope, subjectID, departmentID string) bool {
	switch {
	case scope == models.ScopeGlobal:
		return true
	case scope == models.UserScope(subjectID):
		return true
	case strings.HasPrefix(scope, "department:"):
		return departmentID != "" && scope == models.DepartmentScope(departmentID)
	default:
		return false
	}
}

// writeAck queues an ack through the send channel so that writePump stays
// the only writer on the connection. A full buffer drops the ack.
func (c *Client) writeAck(a ack) {
	if !c.hub.sendControl(c, a) {
		c.log.Debug("WS ack dropped for client %s", c.ID)
	}
}
