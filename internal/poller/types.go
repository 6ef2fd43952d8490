package poller

import (
	"context"
	"fmt"
	"time"

	"hwbot/internal/homework"
)

// ErrorPrefix starts every cycle-failure message sent to the chat.
const ErrorPrefix = "Сбой в работе программы: "

// Fetcher returns one raw homework_statuses envelope.
type Fetcher interface {
	Fetch(ctx context.Context, cursor int64) (any, error)
}

// Sender delivers one chat message.
type Sender interface {
	Notify(ctx context.Context, text string) error
}

// State is threaded through cycles. It lives in process memory only.
type State struct {
	// Cursor is the from_date of the next request (epoch seconds).
	Cursor int64
	// LastSeen is the submissions list of the last cycle that had changes.
	LastSeen []homework.Submission
	// LastError is the text of the last reported cycle error, "" after a success.
	LastError string
}

func (s State) clone() State {
	s.LastSeen = append([]homework.Submission(nil), s.LastSeen...)
	return s
}

// Report describes one cycle. It is published as the poll.cycle event payload.
type Report struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	Fetched  int   `json:"fetched"`
	Changed  int   `json:"changed"`
	Notified int   `json:"notified"`
	Failed   int   `json:"failed"`
	Cursor   int64 `json:"cursor"`

	Err           error  `json:"-"`
	ErrorText     string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	ErrorNotified bool   `json:"error_notified,omitempty"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// OK reports whether the cycle completed without error.
func (r Report) OK() bool { return r.Err == nil }

// Summary is a one-line status suitable for systemd STATUS=.
func (r Report) Summary() string {
	at := r.Started.Format("15:04:05")
	if r.Err != nil {
		return fmt.Sprintf("last poll %s failed (%s)", at, r.ErrorKind)
	}
	if r.Changed == 0 {
		return fmt.Sprintf("last poll %s: no changes, cursor %d", at, r.Cursor)
	}
	return fmt.Sprintf("last poll %s: %d changed, %d sent, cursor %d", at, r.Changed, r.Notified, r.Cursor)
}
