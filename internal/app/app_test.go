package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"hwbot/internal/config"
)

func setupEnv(t *testing.T, practicum, telegram, chat string) string {
	t.Helper()
	t.Setenv("PRACTICUM_TOKEN", practicum)
	t.Setenv("TELEGRAM_TOKEN", telegram)
	t.Setenv("TELEGRAM_CHAT_ID", chat)
	t.Setenv("PRACTICUM_ENDPOINT", "")
	t.Setenv("POLL_SCHEDULE", "")
	t.Setenv("LOG_LEVEL", "ERROR")

	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	body := "poller:\n  schedule: 1h\nlogging:\n  console: true\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewApp_MissingCredentials(t *testing.T) {
	p := setupEnv(t, "pt", "", "42")

	_, err := NewApp(p)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
	if !strings.Contains(err.Error(), "TELEGRAM_TOKEN") {
		t.Fatalf("err %q does not name the variable", err)
	}
}

func TestNewApp_BadConfig(t *testing.T) {
	setupEnv(t, "pt", "123:abc", "42")
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("poller:\n  schedule: \"every blue moon\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewApp(p); err == nil {
		t.Fatal("expected config error")
	}
}

func TestApp_StartStop(t *testing.T) {
	p := setupEnv(t, "pt", "123:abc", "42")
	polled := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"homeworks":[],"current_date":1000}`))
		select {
		case polled <- struct{}{}:
		default:
		}
	}))
	defer srv.Close()
	t.Setenv("PRACTICUM_ENDPOINT", srv.URL)

	a, err := NewApp(p)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		t.Fatal("first poll did not happen")
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := a.poller.Last(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first cycle did not complete")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx, StopSIGTERM); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if last, ok := a.poller.Last(); !ok || last.Cursor != 1000 {
		t.Fatalf("last state = %+v, %v", last, ok)
	}
	select {
	case <-a.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Telegram.ChatID = "@channel"
	cfg.Telegram.ThreadID = 5
	cfg.Notifier.RatePerSec = 3
	res, err := cfg.Resolve()
	if err != nil {
		t.Fatal(err)
	}

	if tg := mapChatTarget(cfg); tg.ChatID != "@channel" || tg.ThreadID != 5 {
		t.Fatalf("target = %+v", tg)
	}
	if nc := mapNotifierConfig(cfg, res); nc.RatePerSec != 3 || nc.SendTimeout != 10*time.Second {
		t.Fatalf("notifier = %+v", nc)
	}
	if cc := mapClientConfig(cfg, res); cc.Timeout != 30*time.Second {
		t.Fatalf("client = %+v", cc)
	}
	if pc := mapPollerConfig(cfg, res); !pc.NotifyErrors || pc.Schedule.Every != 10*time.Minute {
		t.Fatalf("poller = %+v", pc)
	}
}

func TestReasonForSignal(t *testing.T) {
	if got := ReasonForSignal(os.Interrupt); got != StopSIGINT {
		t.Fatalf("SIGINT -> %q", got)
	}
	if got := ReasonForSignal(syscall.SIGTERM); got != StopSIGTERM {
		t.Fatalf("SIGTERM -> %q", got)
	}
	if got := ReasonForSignal(syscall.SIGHUP); got != StopUnknown {
		t.Fatalf("SIGHUP -> %q", got)
	}
}
