package session

import "errors"

// Failure modes surfaced to clients as unicast "error" events. None of them
// mutate state: a failed operation is a no-op on the session.
var (
	ErrPollInProgress  = errors.New("a poll is already active")
	ErrInvalidPoll     = errors.New("poll needs a question, at least two options and a positive duration")
	ErrNoPoll          = errors.New("no poll exists")
	ErrPollNotActive   = errors.New("poll is not active")
	ErrDuplicateAnswer = errors.New("answer already submitted")
	ErrInvalidOption   = errors.New("option index out of range")
	ErrUnknownSender   = errors.New("unknown sender")
	ErrUnauthorized    = errors.New("Unauthorized")
)
