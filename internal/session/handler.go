package session

import (
	"github.com/gin-gonic/gin"

	"github.com/classpulse/backend/pkg/response"
)

// Handler exposes read-only session snapshots over HTTP, for dashboards and
// late joiners that want state without opening a WebSocket.
type Handler struct {
	coord *Coordinator
}

// NewHandler creates a session read handler.
func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

// CurrentPoll handles GET /session/poll.
func (h *Handler) CurrentPoll(c *gin.Context) {
	poll := h.coord.CurrentPoll()
	if poll == nil {
		response.NotFound(c, "no poll has been created yet")
		return
	}
	response.OK(c, poll)
}

// PollHistory handles GET /session/polls/history.
func (h *Handler) PollHistory(c *gin.Context) {
	response.OK(c, h.coord.PollHistory())
}

// ChatLog handles GET /session/chat.
func (h *Handler) ChatLog(c *gin.Context) {
	response.OK(c, h.coord.ChatMessages())
}

// Participants handles GET /session/participants.
func (h *Handler) Participants(c *gin.Context) {
	response.OK(c, h.coord.Participants())
}
