package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(c *Coordinator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(c)
	router := gin.New()
	router.GET("/session/poll", h.CurrentPoll)
	router.GET("/session/polls/history", h.PollHistory)
	router.GET("/session/chat", h.ChatLog)
	router.GET("/session/participants", h.Participants)
	return router
}

func doGet(t *testing.T, router *gin.Engine, path string) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestCurrentPollEndpoint(t *testing.T) {
	c, _ := newTestCoordinator()
	router := newTestRouter(c)

	code, body := doGet(t, router, "/session/poll")
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, body.Success)

	joinTeacher(c, "t1")
	c.HandleCreatePoll("t1", "2+2?", []string{"3", "4"}, 30)
	defer c.stopTimer()

	code, body = doGet(t, router, "/session/poll")
	require.Equal(t, http.StatusOK, code)
	require.True(t, body.Success)

	var poll struct {
		Question string `json:"question"`
		Status   string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &poll))
	require.Equal(t, "2+2?", poll.Question)
	require.Equal(t, "ACTIVE", poll.Status)
}

func TestHistoryAndChatEndpoints(t *testing.T) {
	c, _ := newTestCoordinator()
	router := newTestRouter(c)
	joinTeacher(c, "t1")
	c.HandleCreatePoll("t1", "q", []string{"a", "b"}, 30)
	c.HandleEndPoll("t1")
	c.HandleChat("t1", "class dismissed")

	code, body := doGet(t, router, "/session/polls/history")
	require.Equal(t, http.StatusOK, code)
	var polls []json.RawMessage
	require.NoError(t, json.Unmarshal(body.Data, &polls))
	require.Len(t, polls, 1)

	code, body = doGet(t, router, "/session/chat")
	require.Equal(t, http.StatusOK, code)
	var messages []struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &messages))
	require.Len(t, messages, 1)
	require.Equal(t, "class dismissed", messages[0].Message)

	code, body = doGet(t, router, "/session/participants")
	require.Equal(t, http.StatusOK, code)
	var participants []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &participants))
	require.Len(t, participants, 1)
}
