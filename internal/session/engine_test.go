package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classpulse/backend/internal/models"
)

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
		duration int
	}{
		{name: "empty question", question: "  ", options: []string{"a", "b"}, duration: 30},
		{name: "single option", question: "q", options: []string{"a"}, duration: 30},
		{name: "blank options trimmed away", question: "q", options: []string{"a", "   ", ""}, duration: 30},
		{name: "zero duration", question: "q", options: []string{"a", "b"}, duration: 0},
		{name: "negative duration", question: "q", options: []string{"a", "b"}, duration: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			_, err := e.Create(tt.question, tt.options, tt.duration)
			require.ErrorIs(t, err, ErrInvalidPoll)
			require.Nil(t, e.Current())
		})
	}
}

func TestCreateTrimsOptions(t *testing.T) {
	e := NewEngine()
	poll, err := e.Create(" 2+2? ", []string{" 3 ", "", "4"}, 30)
	require.NoError(t, err)
	require.Equal(t, "2+2?", poll.Question)
	require.Equal(t, []string{"3", "4"}, poll.Options)
	require.Equal(t, models.PollActive, poll.Status)
	require.Empty(t, poll.Answers)
}

func TestCreateWhileActiveFails(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("first", []string{"a", "b"}, 30)
	require.NoError(t, err)

	_, err = e.Create("second", []string{"a", "b"}, 30)
	require.ErrorIs(t, err, ErrPollInProgress)
	require.Equal(t, "first", e.Current().Question)

	_, ended := e.End()
	require.True(t, ended)
	require.True(t, e.CanCreate(), "create must be permitted immediately after end")

	poll, err := e.Create("second", []string{"a", "b"}, 30)
	require.NoError(t, err)
	require.Equal(t, "second", poll.Question)
}

func TestSubmitAnswer(t *testing.T) {
	e := NewEngine()
	require.ErrorIs(t, e.SubmitAnswer("s1", 0), ErrNoPoll)

	_, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)

	require.NoError(t, e.SubmitAnswer("s1", 0))
	require.ErrorIs(t, e.SubmitAnswer("s1", 1), ErrDuplicateAnswer)
	require.Equal(t, 0, e.Current().Answers["s1"], "stored answer must survive a refused resubmission")

	require.ErrorIs(t, e.SubmitAnswer("s2", 2), ErrInvalidOption)
	require.ErrorIs(t, e.SubmitAnswer("s2", -1), ErrInvalidOption)
	require.Len(t, e.Current().Answers, 1)

	_, ended := e.End()
	require.True(t, ended)
	require.ErrorIs(t, e.SubmitAnswer("s2", 0), ErrPollNotActive)
}

func TestLiveResultsScenario(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("2+2?", []string{"3", "4"}, 30)
	require.NoError(t, err)

	require.NoError(t, e.SubmitAnswer("studentA", 1))
	require.NoError(t, e.SubmitAnswer("studentB", 1))

	live := e.Current().LiveResults
	require.Equal(t, []models.PollResult{
		{Option: "3", Count: 0, Percentage: 0},
		{Option: "4", Count: 2, Percentage: 100},
	}, live)

	ended, ok := e.End()
	require.True(t, ok)
	require.Equal(t, models.PollEnded, ended.Status)
	require.NotNil(t, ended.EndTime)
	require.Equal(t, live, ended.Results)

	history := e.History()
	require.Len(t, history, 1)
	require.Equal(t, ended.ID, history[0].ID)
	require.Equal(t, live, history[0].Results)
}

func TestComputeResultsPure(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("q", []string{"a", "b", "c"}, 30)
	require.NoError(t, err)
	require.NoError(t, e.SubmitAnswer("s1", 0))
	require.NoError(t, e.SubmitAnswer("s2", 0))
	require.NoError(t, e.SubmitAnswer("s3", 2))

	poll := e.Current()
	first := ComputeResults(poll)
	second := ComputeResults(poll)
	require.Equal(t, first, second)
	require.Len(t, poll.Answers, 3, "compute must not mutate the poll")

	total := 0
	for _, r := range first {
		total += r.Count
	}
	require.Equal(t, len(poll.Answers), total)
}

func TestPercentageRounding(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)
	require.NoError(t, e.SubmitAnswer("s1", 0))
	require.NoError(t, e.SubmitAnswer("s2", 1))
	require.NoError(t, e.SubmitAnswer("s3", 1))

	results := ComputeResults(e.Current())
	require.Equal(t, 33.3, results[0].Percentage)
	require.Equal(t, 66.7, results[1].Percentage)
}

func TestZeroAnswerEnd(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("q", []string{"a", "b", "c"}, 30)
	require.NoError(t, err)

	ended, ok := e.End()
	require.True(t, ok)
	for _, r := range ended.Results {
		require.Equal(t, 0, r.Count)
		require.Equal(t, 0.0, r.Percentage)
	}
}

func TestEndIdempotent(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)

	first, ok := e.End()
	require.True(t, ok)

	second, ok := e.End()
	require.False(t, ok)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, e.History(), 1, "a repeated end must not double-append history")
}

func TestEndWithoutPoll(t *testing.T) {
	e := NewEngine()
	poll, ok := e.End()
	require.False(t, ok)
	require.Nil(t, poll)
	require.Empty(t, e.History())
}

func TestRemoveAnswer(t *testing.T) {
	e := NewEngine()
	require.False(t, e.RemoveAnswer("s1"), "no poll")

	_, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)
	require.NoError(t, e.SubmitAnswer("s1", 0))
	require.NoError(t, e.SubmitAnswer("s2", 1))

	require.False(t, e.RemoveAnswer("ghost"))
	require.True(t, e.RemoveAnswer("s1"))

	poll := e.Current()
	require.Len(t, poll.Answers, 1)
	require.Equal(t, []models.PollResult{
		{Option: "a", Count: 0, Percentage: 0},
		{Option: "b", Count: 1, Percentage: 100},
	}, poll.LiveResults)
}

func TestHistoryEntriesAreImmutable(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)
	require.NoError(t, e.SubmitAnswer("s1", 0))
	ended, _ := e.End()

	// Mutating the returned snapshot or the live slot must not rewrite history.
	ended.Results[0].Count = 99
	e.RemoveAnswer("s1")

	history := e.History()
	require.Len(t, history, 1)
	require.Equal(t, 1, history[0].Results[0].Count)
	require.Len(t, history[0].Answers, 1)
}

func TestCurrentReturnsCopy(t *testing.T) {
	e := NewEngine()
	_, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)

	snapshot := e.Current()
	snapshot.Answers["intruder"] = 1
	snapshot.Options[0] = "tampered"

	require.Empty(t, e.Current().Answers)
	require.Equal(t, "a", e.Current().Options[0])
}

func TestStartTimeSet(t *testing.T) {
	e := NewEngine()
	before := time.Now()
	poll, err := e.Create("q", []string{"a", "b"}, 30)
	require.NoError(t, err)
	require.False(t, poll.StartTime.Before(before))
	require.Equal(t, 30, poll.Duration)
}
