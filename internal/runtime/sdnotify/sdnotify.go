// Package sdnotify reports service state to systemd (Type=notify units).
//
// All calls are no-ops when the process is not started by systemd
// (NOTIFY_SOCKET unset).
package sdnotify

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"hwbot/pkg/logx"
)

type Notifier struct {
	log logx.Logger
	// send is daemon.SdNotify; swapped in tests.
	send func(unsetEnvironment bool, state string) (bool, error)
	// watchdog is daemon.SdWatchdogEnabled; swapped in tests.
	watchdog func(unsetEnvironment bool) (time.Duration, error)
}

func New(log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{log: log, send: daemon.SdNotify, watchdog: daemon.SdWatchdogEnabled}
}

func (n *Notifier) Ready() { n.notify(daemon.SdNotifyReady) }

func (n *Notifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

// Status publishes a one-line human readable status (shown by `systemctl status`).
func (n *Notifier) Status(s string) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if s == "" {
		return
	}
	n.notify("STATUS=" + s)
}

// RunWatchdog pings the systemd watchdog at half the configured interval until
// ctx is done. Returns immediately when the watchdog is not enabled.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	every, err := n.watchdog(false)
	if err != nil {
		n.log.Warn("watchdog config invalid", logx.Err(err))
		return
	}
	if every <= 0 {
		return
	}
	every /= 2
	n.log.Debug("watchdog enabled", logx.Duration("every", every))

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) notify(state string) {
	sent, err := n.send(false, state)
	if err != nil {
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		n.log.Trace("sd_notify sent", logx.String("state", state))
	}
}
