package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sinkrec/internal/dbus"
)

type recordingNotifier struct {
	messages []string
	failOn   string
	cancel   context.CancelFunc
	cancelOn string
}

func (r *recordingNotifier) Notify(_ context.Context, summary string) error {
	r.messages = append(r.messages, summary)
	if summary == r.cancelOn && r.cancel != nil {
		r.cancel()
	}
	if summary == r.failOn {
		return errors.New("daemon gone")
	}
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func TestCountdown(t *testing.T) {
	n := &recordingNotifier{}

	err := Countdown(context.Background(), n, 5, time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Get ready...", "5...", "4...", "3...", "2...", "1...", "Starting!",
	}, n.messages)
}

func TestCountdown_ZeroSeconds(t *testing.T) {
	n := &recordingNotifier{}

	require.NoError(t, Countdown(context.Background(), n, 0, 0))
	assert.Equal(t, []string{"Get ready...", "Starting!"}, n.messages)
}

func TestCountdown_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := &recordingNotifier{cancel: cancel, cancelOn: "3..."}

	err := Countdown(ctx, n, 5, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"Get ready...", "5...", "4...", "3..."}, n.messages)
}

func TestCountdown_NotifyError(t *testing.T) {
	n := &recordingNotifier{failOn: "Get ready..."}

	err := Countdown(context.Background(), n, 3, time.Millisecond)
	assert.Error(t, err)
	assert.Len(t, n.messages, 5, "countdown keeps its pace after a failure")
}

type fakeRunner struct {
	calls [][]string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, nil
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil
}

func TestCommandNotifier(t *testing.T) {
	runner := &fakeRunner{}
	n := NewCommandNotifier(runner, "sinkrec")

	require.NoError(t, n.Notify(context.Background(), "5..."))
	assert.Equal(t, [][]string{
		{"notify-send", "--app-name", "sinkrec", "--hint", "boolean:transient:true", "5..."},
	}, runner.calls)
	assert.NoError(t, n.Close())
}

func TestNew_Backends(t *testing.T) {
	runner := &fakeRunner{}

	assert.IsType(t, Nop{}, New("none", "sinkrec", runner, nil))
	assert.IsType(t, &CommandNotifier{}, New("notify-send", "sinkrec", runner, nil))
}

func TestCommandNotifier_ProgressAndAlert(t *testing.T) {
	runner := &fakeRunner{}
	n := NewCommandNotifier(runner, "sinkrec")

	require.NoError(t, n.NotifyProgress(context.Background(), "3...", 140))
	require.NoError(t, n.Alert(context.Background(), "Recording failed", "track 2 failed"))
	assert.Equal(t, [][]string{
		{"notify-send", "--app-name", "sinkrec", "--hint", "boolean:transient:true", "--hint", "int:value:100", "3..."},
		{"notify-send", "--app-name", "sinkrec", "--urgency", "critical", "Recording failed", "track 2 failed"},
	}, runner.calls)
}

func TestAlert_FallsBackToNotify(t *testing.T) {
	n := &recordingNotifier{}
	require.NoError(t, Alert(context.Background(), n, "Recording interrupted", "after 1 of 3 tracks"))
	assert.Equal(t, []string{"Recording interrupted: after 1 of 3 tracks"}, n.messages)
}

type fakeBus struct {
	sent     []*dbus.Notification
	closed   []uint32
	infoCtx  context.Context
	nextID   uint32
	shutdown bool
}

func (f *fakeBus) Notify(_ context.Context, n *dbus.Notification) (uint32, error) {
	f.sent = append(f.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeBus) CloseNotification(_ context.Context, id uint32) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeBus) ServerInformation(ctx context.Context) (dbus.ServerInfo, error) {
	f.infoCtx = ctx
	return dbus.ServerInfo{Name: "dunst"}, nil
}

func (f *fakeBus) Close() error {
	f.shutdown = true
	return nil
}

func TestDBusNotifier_Countdown(t *testing.T) {
	bus := &fakeBus{}
	n := NewDBusNotifier(bus, "sinkrec", nil)

	_, hasDeadline := bus.infoCtx.Deadline()
	assert.True(t, hasDeadline, "server information query must be bounded")

	require.NoError(t, Countdown(context.Background(), n, 3, time.Millisecond))
	require.Len(t, bus.sent, 5)

	var progress []int32
	for i, sent := range bus.sent {
		if i > 0 {
			assert.Equal(t, uint32(1), sent.ReplacesID, "countdown updates one bubble")
		}
		progress = append(progress, sent.Hints["value"].Value().(int32))
	}
	assert.Equal(t, []int32{0, 25, 50, 75, 100}, progress)
	assert.Equal(t, MsgStarting, bus.sent[4].Summary)

	require.NoError(t, n.Close())
	assert.Equal(t, []uint32{1}, bus.closed)
	assert.True(t, bus.shutdown)
}

func TestDBusNotifier_Alert(t *testing.T) {
	bus := &fakeBus{}
	n := NewDBusNotifier(bus, "sinkrec", nil)

	require.NoError(t, n.Notify(context.Background(), MsgGetReady))
	require.NoError(t, Alert(context.Background(), n, "Recording failed", "pw-record exited"))

	require.Len(t, bus.sent, 2)
	alert := bus.sent[1]
	assert.Equal(t, uint32(0), alert.ReplacesID)
	assert.Equal(t, dbus.UrgencyCritical, alert.Urgency())
	assert.Equal(t, "pw-record exited", alert.Body)

	// Only the countdown bubble is dismissed.
	require.NoError(t, n.Close())
	assert.Equal(t, []uint32{1}, bus.closed)
}

func TestDBusNotifier_CloseWithoutBubble(t *testing.T) {
	bus := &fakeBus{}
	n := NewDBusNotifier(bus, "sinkrec", nil)

	require.NoError(t, n.Close())
	assert.Empty(t, bus.closed)
	assert.True(t, bus.shutdown)
}

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.Notify(context.Background(), "x"))
	assert.NoError(t, n.Close())
}
