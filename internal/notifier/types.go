package notifier

import "time"

// Config controls chat delivery.
type Config struct {
	RatePerSec  int
	SendTimeout time.Duration
}

type HistoryItem struct {
	At   time.Time
	Text string
}

// NotificationEvent is published on the event bus after each delivery attempt.
type NotificationEvent struct {
	ChatID   string    `json:"chat_id"`
	ThreadID int       `json:"thread_id,omitempty"`
	Runes    int       `json:"runes"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}
