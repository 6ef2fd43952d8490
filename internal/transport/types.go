package transport

import "context"

// ChatTarget addresses a chat and, for forum supergroups, a topic thread.
//
// ChatID is kept as a string so both numeric ids ("-100123") and public
// channel usernames ("@channel") work.
type ChatTarget struct {
	ChatID   string
	ThreadID int
}

type MessageRef struct {
	ChatID    string
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers plain text messages to a chat.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
