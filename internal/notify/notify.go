// Package notify shows desktop notifications for the recording countdown.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jmylchreest/sinkrec/internal/command"
	"github.com/jmylchreest/sinkrec/internal/config"
	"github.com/jmylchreest/sinkrec/internal/dbus"
)

// Countdown messages.
const (
	MsgGetReady = "Get ready..."
	MsgStarting = "Starting!"
)

// Notifier shows a single desktop notification.
type Notifier interface {
	Notify(ctx context.Context, summary string) error
	Close() error
}

// ProgressNotifier is a Notifier that can also show a progress bar.
type ProgressNotifier interface {
	Notifier
	NotifyProgress(ctx context.Context, summary string, pct int) error
}

// Alerter is a Notifier that can raise a critical notification.
type Alerter interface {
	Notifier
	Alert(ctx context.Context, summary, body string) error
}

// Alert raises a critical notification through n, or a plain one when n
// has no alert support.
func Alert(ctx context.Context, n Notifier, summary, body string) error {
	if a, ok := n.(Alerter); ok {
		return a.Alert(ctx, summary, body)
	}
	if body != "" {
		summary += ": " + body
	}
	return n.Notify(ctx, summary)
}

// New creates the notifier for backend. A dbus backend that cannot reach
// the session bus falls back to notify-send.
func New(backend, appName string, runner command.Runner, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case config.BackendNone:
		return Nop{}
	case config.BackendNotifySend:
		return NewCommandNotifier(runner, appName)
	default:
		client := dbus.NewClient(logger)
		if err := client.Connect(); err != nil {
			logger.Warn("D-Bus notifications unavailable, using notify-send", "error", err)
			return NewCommandNotifier(runner, appName)
		}
		return NewDBusNotifier(client, appName, logger)
	}
}

// BusClient is the part of the D-Bus notification client used here.
type BusClient interface {
	Notify(ctx context.Context, n *dbus.Notification) (uint32, error)
	CloseNotification(ctx context.Context, id uint32) error
	ServerInformation(ctx context.Context) (dbus.ServerInfo, error)
	Close() error
}

// busTimeout bounds calls made outside a caller's context.
const busTimeout = 2 * time.Second

// DBusNotifier sends notifications over D-Bus, replacing the previous
// bubble so the countdown updates in place.
type DBusNotifier struct {
	mu      sync.Mutex
	client  BusClient
	appName string
	lastID  uint32
	logger  *slog.Logger
}

// NewDBusNotifier creates a DBusNotifier around a connected client.
func NewDBusNotifier(client BusClient, appName string, logger *slog.Logger) *DBusNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), busTimeout)
	defer cancel()
	if info, err := client.ServerInformation(ctx); err == nil {
		logger.Debug("notification server", "name", info.Name, "vendor", info.Vendor, "version", info.Version)
	} else {
		logger.Debug("notification server did not answer", "error", err)
	}
	return &DBusNotifier{client: client, appName: appName, logger: logger}
}

// Notify shows summary, replacing the previous notification.
func (d *DBusNotifier) Notify(ctx context.Context, summary string) error {
	return d.show(ctx, summary, -1)
}

// NotifyProgress shows summary with a progress bar at pct percent.
func (d *DBusNotifier) NotifyProgress(ctx context.Context, summary string, pct int) error {
	return d.show(ctx, summary, pct)
}

func (d *DBusNotifier) show(ctx context.Context, summary string, pct int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := dbus.NewNotification(d.appName, summary, "")
	n.ReplacesID = d.lastID
	n.SetTransient(true)
	n.SetStackTag(d.appName + "-countdown")
	if pct >= 0 {
		n.SetProgress(pct)
	}

	id, err := d.client.Notify(ctx, n)
	if err != nil {
		return err
	}
	d.lastID = id
	return nil
}

// Alert shows a critical notification that stays in history and does not
// replace the countdown.
func (d *DBusNotifier) Alert(ctx context.Context, summary, body string) error {
	n := dbus.NewNotification(d.appName, summary, body)
	n.SetUrgency(dbus.UrgencyCritical)

	_, err := d.client.Notify(ctx, n)
	return err
}

// Close dismisses the countdown notification and closes the bus connection.
func (d *DBusNotifier) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var closeErr error
	if d.lastID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), busTimeout)
		closeErr = d.client.CloseNotification(ctx, d.lastID)
		cancel()
		d.lastID = 0
	}
	return errors.Join(closeErr, d.client.Close())
}

// CommandNotifier runs notify-send.
type CommandNotifier struct {
	runner  command.Runner
	appName string
}

// NewCommandNotifier creates a new CommandNotifier.
func NewCommandNotifier(runner command.Runner, appName string) *CommandNotifier {
	return &CommandNotifier{runner: runner, appName: appName}
}

// Notify runs notify-send with summary.
func (c *CommandNotifier) Notify(ctx context.Context, summary string) error {
	return c.send(ctx, "--hint", "boolean:transient:true", summary)
}

// NotifyProgress runs notify-send with a progress value hint.
func (c *CommandNotifier) NotifyProgress(ctx context.Context, summary string, pct int) error {
	pct = max(0, min(100, pct))
	return c.send(ctx, "--hint", "boolean:transient:true", "--hint", "int:value:"+strconv.Itoa(pct), summary)
}

// Alert runs notify-send with critical urgency.
func (c *CommandNotifier) Alert(ctx context.Context, summary, body string) error {
	args := []string{"--urgency", "critical", summary}
	if body != "" {
		args = append(args, body)
	}
	return c.send(ctx, args...)
}

func (c *CommandNotifier) send(ctx context.Context, args ...string) error {
	args = append([]string{"--app-name", c.appName}, args...)
	if err := c.runner.Run(ctx, "notify-send", args...); err != nil {
		return fmt.Errorf("notify-send failed: %w", err)
	}
	return nil
}

// Close is a no-op.
func (c *CommandNotifier) Close() error {
	return nil
}

// Nop discards notifications.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, string) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// Countdown shows MsgGetReady, then seconds..1 one per tick, then
// MsgStarting after a final tick. Notifiers with progress support also get
// the elapsed share of the countdown. A failed notification does not
// shorten the countdown; the first such error is returned at the end. It
// stops early if ctx is cancelled.
func Countdown(ctx context.Context, n Notifier, seconds int, tick time.Duration) error {
	var firstErr error
	steps := seconds + 1
	show := func(msg string, step int) {
		var err error
		if p, ok := n.(ProgressNotifier); ok {
			err = p.NotifyProgress(ctx, msg, step*100/steps)
		} else {
			err = n.Notify(ctx, msg)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	show(MsgGetReady, 0)
	for i := range seconds {
		if err := sleep(ctx, tick); err != nil {
			return err
		}
		show(strconv.Itoa(seconds-i)+"...", i+1)
	}
	if err := sleep(ctx, tick); err != nil {
		return err
	}
	show(MsgStarting, steps)
	return firstErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
