// Package poller runs the fetch/validate/parse/notify loop.
//
// A cycle is a state transition: Cycle(ctx, State) returns the next State.
// All I/O goes through the Fetcher and Sender ports. Run repeats cycles on the
// configured cadence until its context is cancelled.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"hwbot/internal/eventbus"
	"hwbot/internal/homework"
	"hwbot/internal/schedule"
	"hwbot/pkg/logx"
)

type Config struct {
	Schedule schedule.Spec
	// NotifyErrors sends new cycle errors to the chat; when false they are only logged.
	NotifyErrors bool
}

type Poller struct {
	fetcher Fetcher
	sender  Sender
	log     logx.Logger
	bus     eventbus.Bus
	now     func() time.Time

	mu     sync.Mutex
	cfg    Config
	last   State
	hasRun bool

	wake chan struct{}
}

func New(cfg Config, fetcher Fetcher, sender Sender, log logx.Logger, bus eventbus.Bus) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Schedule.Raw == "" {
		cfg.Schedule, _ = schedule.Parse(schedule.Default)
	}
	return &Poller{
		fetcher: fetcher,
		sender:  sender,
		log:     log,
		bus:     bus,
		now:     time.Now,
		cfg:     cfg,
		wake:    make(chan struct{}, 1),
	}
}

// Apply swaps the cadence and error policy. A sleeping Run loop re-plans its
// next wakeup with the new cadence.
func (p *Poller) Apply(cfg Config) {
	p.mu.Lock()
	if cfg.Schedule.Raw == "" {
		cfg.Schedule = p.cfg.Schedule
	}
	changed := cfg.Schedule.String() != p.cfg.Schedule.String()
	p.cfg = cfg
	p.mu.Unlock()

	if changed {
		p.log.Info("poll schedule updated", logx.String("schedule", cfg.Schedule.String()))
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

// SetSchedule swaps the cadence only.
func (p *Poller) SetSchedule(spec schedule.Spec) {
	cfg := p.config()
	cfg.Schedule = spec
	p.Apply(cfg)
}

func (p *Poller) config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Last returns the state committed by the most recent cycle of Run.
func (p *Poller) Last() (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.clone(), p.hasRun
}

// Run executes a cycle immediately and then one per schedule activation.
// It returns nil once ctx is cancelled.
func (p *Poller) Run(ctx context.Context, st State) error {
	p.log.Info("poller started", logx.String("schedule", p.config().Schedule.String()), logx.Int64("cursor", st.Cursor))
	for {
		if ctx.Err() != nil {
			p.log.Info("poller stopped")
			return nil
		}

		st, _ = p.Cycle(ctx, st)
		p.commit(st)

		if !p.sleep(ctx) {
			p.log.Info("poller stopped")
			return nil
		}
	}
}

func (p *Poller) commit(st State) {
	p.mu.Lock()
	p.last = st.clone()
	p.hasRun = true
	p.mu.Unlock()
}

// sleep waits for the next activation. It returns false when ctx is done.
func (p *Poller) sleep(ctx context.Context) bool {
	for {
		spec := p.config().Schedule
		now := p.now()
		delay := spec.Next(now).Sub(now)
		if delay < 0 {
			delay = 0
		}
		p.log.Debug("next poll scheduled", logx.Duration("in", delay))

		tmr := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			tmr.Stop()
			return false
		case <-p.wake:
			tmr.Stop()
			continue
		case <-tmr.C:
			return true
		}
	}
}

// Cycle performs one poll. On success the cursor advances to the server's
// current_date and LastError is cleared. On failure the input state is kept,
// except that a newly reported error text is recorded in LastError.
func (p *Poller) Cycle(ctx context.Context, st State) (State, Report) {
	rep := Report{Started: p.now()}

	next, err := p.step(ctx, st, &rep)
	if err != nil {
		next = p.fail(ctx, st, err, &rep)
	} else {
		next.LastError = ""
	}

	rep.Cursor = next.Cursor
	rep.Duration = p.now().Sub(rep.Started)
	p.publish(rep)
	return next, rep
}

func (p *Poller) step(ctx context.Context, st State, rep *Report) (State, error) {
	raw, err := p.fetcher.Fetch(ctx, st.Cursor)
	if err != nil {
		return st, err
	}
	resp, err := homework.CheckResponse(raw)
	if err != nil {
		return st, err
	}
	rep.Fetched = len(resp.Submissions)

	next := st.clone()
	if len(resp.Submissions) > 0 && !sameList(resp.Submissions, st.LastSeen) {
		fresh := unseen(resp.Submissions, st.LastSeen)
		rep.Changed = len(fresh)

		msgs := make([]string, 0, len(fresh))
		for _, sub := range fresh {
			msg, err := homework.ParseStatus(sub)
			if err != nil {
				return st, err
			}
			name, _ := sub.Name()
			status, _ := sub.Status()
			p.log.Debug("status message composed",
				logx.String("homework", name),
				logx.String("status", status),
				logx.String("lesson", homework.LessonTitle(sub)))
			msgs = append(msgs, msg)
		}

		for _, msg := range msgs {
			if err := p.sender.Notify(ctx, msg); err != nil {
				// Delivery failures are never routed back through the chat.
				rep.Failed++
				p.log.Error("status notification not delivered", logx.String("kind", homework.KindDelivery.String()), logx.Err(err))
				continue
			}
			rep.Notified++
		}
		next.LastSeen = append([]homework.Submission(nil), resp.Submissions...)
	} else {
		p.log.Debug("no status change", logx.Int("fetched", rep.Fetched))
	}

	next.Cursor = resp.CurrentDate
	return next, nil
}

func (p *Poller) fail(ctx context.Context, st State, err error, rep *Report) State {
	rep.Err = err
	rep.ErrorText = err.Error()
	rep.ErrorKind = homework.KindOf(err).String()

	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		p.log.Debug("poll cycle interrupted", logx.Err(err))
		return st
	}

	kind := logx.String("kind", rep.ErrorKind)
	if rep.ErrorText == st.LastError {
		rep.Duplicate = true
		p.log.Error("poll cycle failed (already reported)", kind, logx.Err(err))
		return st
	}
	p.log.Error("poll cycle failed", kind, logx.Err(err))

	next := st.clone()
	next.LastError = rep.ErrorText
	if !p.config().NotifyErrors {
		return next
	}
	if nerr := p.sender.Notify(ctx, ErrorPrefix+rep.ErrorText); nerr != nil {
		p.log.Error("error notification not delivered", logx.String("kind", homework.KindDelivery.String()), logx.Err(nerr))
		return next
	}
	rep.ErrorNotified = true
	return next
}

func (p *Poller) publish(rep Report) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(eventbus.Event{Type: eventbus.TypePollCycle, Time: rep.Started, Data: rep})
}

func sameList(a, b []homework.Submission) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// unseen returns the records of list absent from seen, oldest first.
// list is ordered most recent first.
func unseen(list, seen []homework.Submission) []homework.Submission {
	out := make([]homework.Submission, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		found := false
		for _, s := range seen {
			if list[i].Equal(s) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, list[i])
		}
	}
	return out
}
