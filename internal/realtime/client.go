package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// SessionEvents is the inbound surface the transport dispatches into. The
// session coordinator implements it.
type SessionEvents interface {
	HandleSetRole(connectionID, name string, role models.Role)
	HandleCreatePoll(connectionID, question string, options []string, durationSeconds int)
	HandleEndPoll(connectionID string)
	HandleSubmitAnswer(connectionID string, optionIndex int)
	HandleChat(connectionID, message string)
	HandleKick(connectionID, targetID string)
	HandlePollHistory(connectionID string)
	HandleChatHistory(connectionID string)
	HandleDisconnect(connectionID string)
}

// Client is a single WebSocket connection in the session.
type Client struct {
	ID string

	hub     *Hub
	events  SessionEvents
	conn    *websocket.Conn
	send    chan WSMessage
	closing chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. No token is
// required: identity is the self-declared name sent with user:set_role.
func ServeWs(hub *Hub, events SessionEvents, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:      uuid.New().String(),
			hub:     hub,
			events:  events,
			conn:    conn,
			send:    make(chan WSMessage, 256),
			closing: make(chan struct{}),
			logger:  logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

// shutdown signals the write pump to flush queued messages and close the
// socket. Safe to call more than once.
func (c *Client) shutdown() {
	c.once.Do(func() { close(c.closing) })
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.events.HandleDisconnect(c.ID)
		c.shutdown()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.dispatch(msg)
	}
}

// dispatch routes one inbound event into the coordinator. Payload shapes
// follow the existing front end: submit_answer carries a bare number, chat
// and kick a bare string.
func (c *Client) dispatch(msg WSMessage) {
	switch msg.Event {
	case "user:set_role":
		var payload struct {
			Name string      `json:"name"`
			Role models.Role `json:"role"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.rejectPayload(msg.Event, err)
			return
		}
		c.events.HandleSetRole(c.ID, payload.Name, payload.Role)

	case "teacher:create_poll":
		var payload struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
			Duration int      `json:"duration"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.rejectPayload(msg.Event, err)
			return
		}
		c.events.HandleCreatePoll(c.ID, payload.Question, payload.Options, payload.Duration)

	case "teacher:end_poll":
		c.events.HandleEndPoll(c.ID)

	case "student:submit_answer":
		var optionIndex int
		if err := json.Unmarshal(msg.Data, &optionIndex); err != nil {
			c.rejectPayload(msg.Event, err)
			return
		}
		c.events.HandleSubmitAnswer(c.ID, optionIndex)

	case "chat:send":
		var message string
		if err := json.Unmarshal(msg.Data, &message); err != nil {
			c.rejectPayload(msg.Event, err)
			return
		}
		c.events.HandleChat(c.ID, message)

	case "teacher:kick_student":
		var targetID string
		if err := json.Unmarshal(msg.Data, &targetID); err != nil {
			c.rejectPayload(msg.Event, err)
			return
		}
		c.events.HandleKick(c.ID, targetID)

	case "poll:get_history":
		c.events.HandlePollHistory(c.ID)

	case "chat:get_history":
		c.events.HandleChatHistory(c.ID)

	default:
		// ignore
	}
}

func (c *Client) rejectPayload(event string, err error) {
	c.logger.Debug("malformed payload", zap.String("event", event), zap.Error(err))
	c.hub.Unicast(c.ID, "error", map[string]string{"message": "malformed payload"})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.closing:
			// flush whatever is queued (e.g. a kick notice), then close
			for {
				select {
				case msg := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteJSON(msg); err != nil {
						return
					}
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
