package poller_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwbot/internal/eventbus"
	"hwbot/internal/homework"
	"hwbot/internal/poller"
	"hwbot/internal/schedule"
	"hwbot/pkg/logx"
)

type fetchResult struct {
	body string
	err  error
}

type fakeFetcher struct {
	mu      sync.Mutex
	script  []fetchResult
	cursors []int64
	calls   chan struct{}
}

func (f *fakeFetcher) Fetch(_ context.Context, cursor int64) (any, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	var r fetchResult
	if len(f.script) > 0 {
		r = f.script[0]
		if len(f.script) > 1 {
			f.script = f.script[1:]
		}
	}
	f.mu.Unlock()
	if f.calls != nil {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(r.body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSender) Notify(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return s.err
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func newPoller(t *testing.T, f poller.Fetcher, s poller.Sender, notifyErrors bool) *poller.Poller {
	t.Helper()
	spec, err := schedule.Parse("1h")
	require.NoError(t, err)
	return poller.New(poller.Config{Schedule: spec, NotifyErrors: notifyErrors}, f, s, logx.Nop(), nil)
}

const approvedEnvelope = `{"homeworks":[{"homework_name":"proj1","status":"approved"}],"current_date":1000}`

func TestCycle_EndToEnd(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{body: approvedEnvelope}}}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)

	st, rep := p.Cycle(context.Background(), poller.State{Cursor: 500})
	require.True(t, rep.OK())
	assert.Equal(t, []string{
		`Изменился статус проверки работы "proj1". Работа проверена: ревьюеру всё понравилось. Ура!`,
	}, s.texts())
	assert.Equal(t, int64(1000), st.Cursor)
	assert.Len(t, st.LastSeen, 1)

	st, rep = p.Cycle(context.Background(), st)
	require.True(t, rep.OK())
	assert.Len(t, s.texts(), 1, "identical envelope must not notify again")
	assert.Equal(t, 0, rep.Changed)
	assert.Equal(t, []int64{500, 1000}, f.cursors)
}

func TestCycle_EmptyListAdvancesCursorOnly(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{body: `{"homeworks":[],"current_date":2000}`}}}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)
	seen := []homework.Submission{{"homework_name": "proj1", "status": "reviewing"}}

	st, rep := p.Cycle(context.Background(), poller.State{Cursor: 1000, LastSeen: seen})

	require.True(t, rep.OK())
	assert.Empty(t, s.texts())
	assert.Equal(t, int64(2000), st.Cursor)
	assert.Equal(t, seen, st.LastSeen)
}

func TestCycle_SendsOnlyNewRecordsOldestFirst(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{body: `{"homeworks":[
		{"homework_name":"hw3","status":"reviewing"},
		{"homework_name":"hw2","status":"rejected"},
		{"homework_name":"hw1","status":"approved"}
	],"current_date":3000}`}}}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)
	seen := []homework.Submission{{"homework_name": "hw1", "status": "approved"}}

	st, rep := p.Cycle(context.Background(), poller.State{Cursor: 1000, LastSeen: seen})

	require.True(t, rep.OK())
	sent := s.texts()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], `"hw2"`)
	assert.Contains(t, sent[1], `"hw3"`)
	assert.Equal(t, 2, rep.Notified)
	assert.Len(t, st.LastSeen, 3)
}

func TestCycle_AuxiliaryFieldChangeIsNotified(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{
		{body: `{"homeworks":[{"homework_name":"p","status":"rejected","reviewer_comment":"a"}],"current_date":1}`},
		{body: `{"homeworks":[{"homework_name":"p","status":"rejected","reviewer_comment":"b"}],"current_date":2}`},
	}}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)

	st, _ := p.Cycle(context.Background(), poller.State{})
	_, _ = p.Cycle(context.Background(), st)

	assert.Len(t, s.texts(), 2)
}

func TestCycle_UnknownStatusIsDomainErrorNotifiedOnce(t *testing.T) {
	body := `{"homeworks":[{"homework_name":"proj1","status":"lost"}],"current_date":1000}`
	f := &fakeFetcher{script: []fetchResult{{body: body}}}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)

	st, rep := p.Cycle(context.Background(), poller.State{Cursor: 10})
	require.False(t, rep.OK())
	assert.ErrorIs(t, rep.Err, homework.ErrUnknownStatus)
	assert.Equal(t, homework.KindDomain.String(), rep.ErrorKind)
	assert.True(t, rep.ErrorNotified)
	assert.Equal(t, int64(10), st.Cursor, "cursor must not advance on failure")
	assert.Empty(t, st.LastSeen)

	st, rep = p.Cycle(context.Background(), st)
	assert.True(t, rep.Duplicate)
	assert.False(t, rep.ErrorNotified)

	sent := s.texts()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0], poller.ErrorPrefix))
	assert.Contains(t, sent[0], "proj1")
	assert.Equal(t, st.LastError, strings.TrimPrefix(sent[0], poller.ErrorPrefix))
}

func TestCycle_ParseFailureSendsNothing(t *testing.T) {
	body := `{"homeworks":[
		{"homework_name":"bad","status":"lost"},
		{"homework_name":"good","status":"approved"}
	],"current_date":1000}`
	f := &fakeFetcher{script: []fetchResult{{body: body}}}
	s := &fakeSender{}
	p := newPoller(t, f, s, false)

	st, rep := p.Cycle(context.Background(), poller.State{Cursor: 10})

	require.False(t, rep.OK())
	assert.Empty(t, s.texts())
	assert.Empty(t, st.LastSeen)
	assert.NotEmpty(t, st.LastError)
}

func TestCycle_RecurringErrorReportedAgainAfterSuccess(t *testing.T) {
	boom := errors.New("connection refused")
	f := &fakeFetcher{script: []fetchResult{
		{err: boom},
		{err: boom},
		{body: `{"homeworks":[],"current_date":1000}`},
		{err: boom},
	}}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)

	st := poller.State{Cursor: 1}
	for i := 0; i < 4; i++ {
		st, _ = p.Cycle(context.Background(), st)
	}

	assert.Equal(t, []string{
		poller.ErrorPrefix + "connection refused",
		poller.ErrorPrefix + "connection refused",
	}, s.texts())
	assert.Equal(t, "connection refused", st.LastError)
}

func TestCycle_DeliveryFailureIsNotRenotified(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{body: approvedEnvelope}}}
	s := &fakeSender{err: errors.New("telegram down")}
	p := newPoller(t, f, s, true)

	st, rep := p.Cycle(context.Background(), poller.State{Cursor: 1})

	require.True(t, rep.OK())
	assert.Equal(t, 1, rep.Failed)
	assert.Len(t, s.texts(), 1, "only the status message attempt, no failure report")
	assert.Empty(t, st.LastError)
	assert.Equal(t, int64(1000), st.Cursor)
	assert.Len(t, st.LastSeen, 1)
}

func TestCycle_NotifyErrorsDisabled(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{body: `{"current_date":1}`}}}
	s := &fakeSender{}
	p := newPoller(t, f, s, false)

	st, rep := p.Cycle(context.Background(), poller.State{})

	assert.ErrorIs(t, rep.Err, homework.ErrMissingKey)
	assert.Empty(t, s.texts())
	assert.Contains(t, st.LastError, "homeworks")
}

func TestCycle_PublishesEvent(t *testing.T) {
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	f := &fakeFetcher{script: []fetchResult{{body: approvedEnvelope}}}
	spec, _ := schedule.Parse("1h")
	p := poller.New(poller.Config{Schedule: spec}, f, &fakeSender{}, logx.Nop(), bus)

	_, _ = p.Cycle(context.Background(), poller.State{})

	select {
	case ev := <-ch:
		assert.Equal(t, eventbus.TypePollCycle, ev.Type)
		rep, ok := ev.Data.(poller.Report)
		require.True(t, ok)
		assert.Equal(t, 1, rep.Notified)
		assert.Equal(t, int64(1000), rep.Cursor)
	case <-time.After(time.Second):
		t.Fatal("no poll.cycle event")
	}
}

func TestRun_FirstCycleImmediateAndStopsOnCancel(t *testing.T) {
	f := &fakeFetcher{
		script: []fetchResult{{body: approvedEnvelope}},
		calls:  make(chan struct{}, 1),
	}
	s := &fakeSender{}
	p := newPoller(t, f, s, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, poller.State{Cursor: 7}) }()

	select {
	case <-f.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not run immediately")
	}
	require.Eventually(t, func() bool { _, ok := p.Last(); return ok }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, int64(1000), last.Cursor)
}

func TestRun_SetScheduleWakesLoop(t *testing.T) {
	f := &fakeFetcher{
		script: []fetchResult{{body: `{"homeworks":[],"current_date":1}`}},
		calls:  make(chan struct{}, 1),
	}
	p := newPoller(t, f, &fakeSender{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx, poller.State{}) }()

	<-f.calls
	fast, err := schedule.Parse("1s")
	require.NoError(t, err)
	p.SetSchedule(fast)

	select {
	case <-f.calls:
	case <-time.After(3 * time.Second):
		t.Fatal("loop kept sleeping on the old schedule")
	}
}
