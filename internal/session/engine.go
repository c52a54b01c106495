package session

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

// Engine owns the single current poll slot and the ended-poll history.
// At most one poll exists at a time; it transitions ACTIVE -> ENDED exactly
// once and stays readable in the slot until the next Create replaces it.
// Not safe for concurrent use; the coordinator serializes access.
type Engine struct {
	current *models.Poll
	history []*models.Poll
	now     func() time.Time
}

// NewEngine creates an engine with an empty poll slot and history.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// CanCreate reports whether a new poll may be created: no poll yet, or the
// current one has ended.
func (e *Engine) CanCreate() bool {
	return e.current == nil || e.current.Status == models.PollEnded
}

// Create validates and starts a new ACTIVE poll, discarding any stale ended
// poll in the slot. Fails with ErrPollInProgress while a poll is ACTIVE and
// with ErrInvalidPoll on a malformed question, option list or duration.
func (e *Engine) Create(question string, options []string, durationSeconds int) (*models.Poll, error) {
	if !e.CanCreate() {
		return nil, ErrPollInProgress
	}

	question = strings.TrimSpace(question)
	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			trimmed = append(trimmed, opt)
		}
	}
	if question == "" || len(trimmed) < 2 || durationSeconds <= 0 {
		return nil, ErrInvalidPoll
	}

	e.current = &models.Poll{
		ID:        uuid.New(),
		Question:  question,
		Options:   trimmed,
		Duration:  durationSeconds,
		StartTime: e.now(),
		Status:    models.PollActive,
		Answers:   make(map[string]int),
	}
	return e.current.Clone(), nil
}

// Current returns a copy of the poll in the slot, or nil when none exists.
func (e *Engine) Current() *models.Poll {
	return e.current.Clone()
}

// SubmitAnswer records a connection's answer exactly once and refreshes the
// live results. A refused submission leaves state untouched.
func (e *Engine) SubmitAnswer(connectionID string, optionIndex int) error {
	switch {
	case e.current == nil:
		return ErrNoPoll
	case e.current.Status != models.PollActive:
		return ErrPollNotActive
	case optionIndex < 0 || optionIndex >= len(e.current.Options):
		return ErrInvalidOption
	}
	if _, answered := e.current.Answers[connectionID]; answered {
		return ErrDuplicateAnswer
	}
	e.current.Answers[connectionID] = optionIndex
	e.current.LiveResults = ComputeResults(e.current)
	return nil
}

// RemoveAnswer deletes a connection's answer from the poll in the slot, if
// present, and refreshes the live results. Final results captured at end time
// are left as they were. Reports whether anything changed.
func (e *Engine) RemoveAnswer(connectionID string) bool {
	if e.current == nil {
		return false
	}
	if _, ok := e.current.Answers[connectionID]; !ok {
		return false
	}
	delete(e.current.Answers, connectionID)
	e.current.LiveResults = ComputeResults(e.current)
	return true
}

// End transitions the current poll to ENDED, captures final results and
// appends an immutable snapshot to history. Idempotent: ending a poll that is
// already ENDED (or absent) changes nothing and reports false, so a late
// timer fire can never double-append history.
func (e *Engine) End() (*models.Poll, bool) {
	if e.current == nil || e.current.Status == models.PollEnded {
		return e.current.Clone(), false
	}
	endTime := e.now()
	e.current.Status = models.PollEnded
	e.current.EndTime = &endTime
	e.current.Results = ComputeResults(e.current)
	e.history = append(e.history, e.current.Clone())
	return e.current.Clone(), true
}

// History returns the ended polls, oldest first, as copies.
func (e *Engine) History() []*models.Poll {
	out := make([]*models.Poll, 0, len(e.history))
	for _, p := range e.history {
		out = append(out, p.Clone())
	}
	return out
}

// ComputeResults aggregates a poll's answers per option. Pure: it never
// mutates the poll. Each percentage is rounded to one decimal independently;
// the sum may miss 100 by rounding.
func ComputeResults(p *models.Poll) []models.PollResult {
	counts := make([]int, len(p.Options))
	for _, idx := range p.Answers {
		if idx >= 0 && idx < len(counts) {
			counts[idx]++
		}
	}
	total := len(p.Answers)

	results := make([]models.PollResult, len(p.Options))
	for i, opt := range p.Options {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(counts[i])/float64(total)*1000) / 10
		}
		results[i] = models.PollResult{Option: opt, Count: counts[i], Percentage: pct}
	}
	return results
}
