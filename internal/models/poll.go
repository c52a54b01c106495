package models

import (
	"time"

	"github.com/google/uuid"
)

// PollStatus is the lifecycle state of a poll. A poll never leaves ENDED.
type PollStatus string

const (
	PollActive PollStatus = "ACTIVE"
	PollEnded  PollStatus = "ENDED"
)

// Poll is a multiple-choice question with a time window and accumulating answers.
// Answers is the source of truth; LiveResults and Results are derived aggregates.
type Poll struct {
	ID        uuid.UUID  `json:"id"`
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	Duration  int        `json:"duration"` // seconds
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Status    PollStatus `json:"status"`

	// Answers maps connection id -> chosen option index; at most one entry per connection.
	Answers map[string]int `json:"answers"`

	LiveResults []PollResult `json:"liveResults,omitempty"`
	Results     []PollResult `json:"results,omitempty"`
}

// PollResult is the aggregate for a single option. Percentages are rounded to
// one decimal and not normalized to sum to 100.
type PollResult struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Clone returns a deep copy safe from later mutation of the original.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = append([]string(nil), p.Options...)
	cp.Answers = make(map[string]int, len(p.Answers))
	for k, v := range p.Answers {
		cp.Answers[k] = v
	}
	cp.LiveResults = append([]PollResult(nil), p.LiveResults...)
	cp.Results = append([]PollResult(nil), p.Results...)
	if p.EndTime != nil {
		t := *p.EndTime
		cp.EndTime = &t
	}
	return &cp
}
