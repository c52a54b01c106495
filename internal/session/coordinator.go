package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

// Outbound event names. These are the wire contract with the front end.
const (
	EventError              = "error"
	EventStateInitial       = "state:initial"
	EventParticipantsUpdate = "participants:update"
	EventPollStarted        = "poll:started"
	EventPollUpdate         = "poll:update"
	EventPollEnded          = "poll:ended"
	EventPollHistory        = "poll:history"
	EventChatMessage        = "chat:message"
	EventChatHistory        = "chat:history"
	EventStudentKicked      = "student:kicked"
)

// DefaultPollDuration is used when a create request carries no duration.
const DefaultPollDuration = 60

// Broadcaster is the outbound capability the coordinator fans out through.
// The realtime hub implements it; tests use a recording fake.
type Broadcaster interface {
	Unicast(connectionID, event string, payload any)
	BroadcastAll(event string, payload any)
	CloseConnection(connectionID string)
}

// ArchiveSink receives the final snapshot of every ended poll. Optional;
// failures never affect session state.
type ArchiveSink interface {
	SaveEndedPoll(ctx context.Context, poll *models.Poll) error
}

// ErrorPayload is the body of a unicast "error" event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// InitialState is the state:initial payload sent to a client on role assignment.
type InitialState struct {
	Poll         *models.Poll         `json:"poll"`
	Participants []models.Participant `json:"participants"`
	ChatMessages []models.ChatMessage `json:"chatMessages"`
	PollHistory  []*models.Poll       `json:"pollHistory"`
}

// Coordinator owns the session state (registry, poll engine, chat log) and
// translates inbound events and timer fires into mutations plus the broadcast
// contract. A single mutex serializes every event, giving the run-to-completion
// semantics the state machine depends on.
type Coordinator struct {
	mu       sync.Mutex
	registry *Registry
	engine   *Engine
	chat     *ChatLog

	broadcaster Broadcaster
	archive     ArchiveSink
	logger      *zap.Logger

	defaultDuration int

	// end timer for the current poll; timerPoll guards against a stale fire
	// ending a poll the timer was never scheduled for.
	timer     *time.Timer
	timerPoll uuid.UUID
}

// NewCoordinator creates a coordinator owning fresh session state.
func NewCoordinator(b Broadcaster, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry()
	return &Coordinator{
		registry:        registry,
		engine:          NewEngine(),
		chat:            NewChatLog(registry),
		broadcaster:     b,
		logger:          logger,
		defaultDuration: DefaultPollDuration,
	}
}

// SetArchiveSink enables archiving of ended polls.
func (c *Coordinator) SetArchiveSink(sink ArchiveSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archive = sink
}

// SetDefaultPollDuration overrides the duration used when a create request
// omits one. Values <= 0 are ignored.
func (c *Coordinator) SetDefaultPollDuration(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seconds > 0 {
		c.defaultDuration = seconds
	}
}

// HandleSetRole registers (or re-registers) a participant, sends it the full
// session state and broadcasts the updated participant list.
func (c *Coordinator) HandleSetRole(connectionID, name string, role models.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == "" || !role.Valid() {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: "a display name and a valid role are required"})
		return
	}
	p := c.registry.SetRole(connectionID, name, role)
	c.logger.Info("participant joined",
		zap.String("connection_id", connectionID),
		zap.String("name", p.Name),
		zap.String("role", string(p.Role)),
	)

	c.broadcaster.Unicast(connectionID, EventStateInitial, InitialState{
		Poll:         c.engine.Current(),
		Participants: c.registry.List(),
		ChatMessages: c.chat.All(),
		PollHistory:  c.engine.History(),
	})
	c.broadcaster.BroadcastAll(EventParticipantsUpdate, c.registry.List())
}

// HandleCreatePoll starts a new poll (teacher only) and schedules its end
// timer. A zero duration falls back to the configured default.
func (c *Coordinator) HandleCreatePoll(connectionID, question string, options []string, durationSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isTeacher(connectionID) {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: ErrUnauthorized.Error()})
		return
	}
	if durationSeconds <= 0 {
		durationSeconds = c.defaultDuration
	}

	poll, err := c.engine.Create(question, options, durationSeconds)
	if err != nil {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: err.Error()})
		return
	}
	c.logger.Info("poll created",
		zap.String("poll_id", poll.ID.String()),
		zap.String("question", poll.Question),
		zap.Int("duration_sec", poll.Duration),
	)

	c.stopTimerLocked()
	pollID := poll.ID
	c.timerPoll = pollID
	c.timer = time.AfterFunc(time.Duration(durationSeconds)*time.Second, func() {
		c.pollTimeout(pollID)
	})

	c.broadcaster.BroadcastAll(EventPollStarted, poll)
}

// HandleEndPoll ends the current poll early (teacher only), cancelling the
// pending duration timer.
func (c *Coordinator) HandleEndPoll(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isTeacher(connectionID) {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: ErrUnauthorized.Error()})
		return
	}
	c.stopTimerLocked()
	ended, ok := c.engine.End()
	if !ok {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: ErrPollNotActive.Error()})
		return
	}
	c.finishPollLocked(ended)
}

// pollTimeout is the duration-timer fire path. It re-checks under the lock
// that the poll it was scheduled for is still the current ACTIVE one, so an
// explicit end or a replacing poll makes a late fire a no-op.
func (c *Coordinator) pollTimeout(pollID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timerPoll != pollID {
		return
	}
	c.timer = nil
	c.timerPoll = uuid.Nil
	cur := c.engine.Current()
	if cur == nil || cur.ID != pollID {
		return
	}
	ended, ok := c.engine.End()
	if !ok {
		return
	}
	c.finishPollLocked(ended)
}

func (c *Coordinator) finishPollLocked(ended *models.Poll) {
	c.logger.Info("poll ended",
		zap.String("poll_id", ended.ID.String()),
		zap.Int("total_votes", len(ended.Answers)),
	)
	c.broadcaster.BroadcastAll(EventPollEnded, ended)

	if c.archive != nil {
		sink := c.archive
		snapshot := ended.Clone()
		logger := c.logger
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sink.SaveEndedPoll(ctx, snapshot); err != nil {
				logger.Warn("archive poll", zap.String("poll_id", snapshot.ID.String()), zap.Error(err))
			}
		}()
	}
}

// HandleSubmitAnswer records an answer and broadcasts the poll with fresh
// live results; refusals are unicast back to the sender.
func (c *Coordinator) HandleSubmitAnswer(connectionID string, optionIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.SubmitAnswer(connectionID, optionIndex); err != nil {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: err.Error()})
		return
	}
	c.broadcaster.BroadcastAll(EventPollUpdate, c.engine.Current())
}

// HandleChat appends a chat message and broadcasts it.
func (c *Coordinator) HandleChat(connectionID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := c.chat.Append(connectionID, text)
	if err != nil {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: err.Error()})
		return
	}
	c.broadcaster.BroadcastAll(EventChatMessage, msg)
}

// HandleKick force-disconnects a target connection (teacher only). State
// cleanup happens on the target's disconnect path.
func (c *Coordinator) HandleKick(connectionID, targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isTeacher(connectionID) {
		c.broadcaster.Unicast(connectionID, EventError, ErrorPayload{Message: ErrUnauthorized.Error()})
		return
	}
	c.logger.Info("participant kicked",
		zap.String("target_id", targetID),
		zap.String("by", connectionID),
	)
	c.broadcaster.Unicast(targetID, EventStudentKicked, nil)
	c.broadcaster.CloseConnection(targetID)
}

// HandlePollHistory unicasts the ended-poll history to the sender.
func (c *Coordinator) HandlePollHistory(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcaster.Unicast(connectionID, EventPollHistory, c.engine.History())
}

// HandleChatHistory unicasts the chat log to the sender.
func (c *Coordinator) HandleChatHistory(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcaster.Unicast(connectionID, EventChatHistory, c.chat.All())
}

// HandleDisconnect withdraws a participant: its answer leaves the current
// poll (the poll itself survives) and it drops from the participant list.
func (c *Coordinator) HandleDisconnect(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine.RemoveAnswer(connectionID)
	if cur := c.engine.Current(); cur != nil {
		c.broadcaster.BroadcastAll(EventPollUpdate, cur)
	}
	c.registry.Remove(connectionID)
	c.broadcaster.BroadcastAll(EventParticipantsUpdate, c.registry.List())
}

// Snapshot accessors for the HTTP read surface.

// CurrentPoll returns a copy of the poll slot, or nil when no poll exists.
func (c *Coordinator) CurrentPoll() *models.Poll {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Current()
}

// PollHistory returns copies of all ended polls, oldest first.
func (c *Coordinator) PollHistory() []*models.Poll {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.History()
}

// ChatMessages returns a copy of the chat log.
func (c *Coordinator) ChatMessages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat.All()
}

// Participants returns a copy of the current participant list.
func (c *Coordinator) Participants() []models.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.List()
}

func (c *Coordinator) isTeacher(connectionID string) bool {
	p, ok := c.registry.Get(connectionID)
	return ok && p.Role == models.RoleTeacher
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerPoll = uuid.Nil
}
