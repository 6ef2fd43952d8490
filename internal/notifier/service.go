package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"hwbot/internal/eventbus"
	kit "hwbot/internal/transport"
	"hwbot/pkg/logx"
)

const historySize = 100

var ErrEmptyText = errors.New("notifier: empty text")

// Service sends plain-text notifications to one chat target.
//
// It is safe for concurrent use, though hwbot calls it from a single loop.
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	sender kit.Sender
	bus    eventbus.Bus
	target kit.ChatTarget

	cfg     Config
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, target kit.ChatTarget, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:    log,
		sender: sender,
		bus:    bus,
		target: target,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Notify sends text to the configured chat. Errors are logged here and
// returned so the caller can account for them; they are never re-sent.
func (s *Service) Notify(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("notifier: rate limit wait: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	_, err := s.sender.SendText(callCtx, s.target, text, &kit.SendOptions{DisablePreview: true})
	cancel()

	ev := NotificationEvent{
		ChatID:   s.target.ChatID,
		ThreadID: s.target.ThreadID,
		Runes:    utf8.RuneCountInString(text),
		At:       time.Now(),
	}
	if err != nil {
		s.log.Error("telegram send failed", logx.Err(err))
		ev.Error = err.Error()
		s.publish(eventbus.TypeNotifierFailed, ev)
		return fmt.Errorf("notifier: send: %w", err)
	}

	s.log.Info("notification sent", logx.Int("runes", ev.Runes))
	s.appendHistory(ev.At, text)
	s.publish(eventbus.TypeNotifierSent, ev)
	return nil
}

func (s *Service) publish(typ string, ev NotificationEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: ev.At, Data: ev})
}

// Snapshot returns recently delivered messages, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(at time.Time, text string) {
	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: at, Text: text})
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()
}
