package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sinkrec/internal/model"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
)

var testSink = pipewire.Sink{ID: 57, Serial: 2057, Description: "HD Audio Controller Analog Stereo"}

type fakeFinder struct {
	sink pipewire.Sink
	err  error
}

func (f *fakeFinder) FindSink(context.Context, pipewire.Matcher) (pipewire.Sink, error) {
	return f.sink, f.err
}

type fakeVolume struct {
	current int
	getErr  error
	setErr  error
	sets    []int
}

func (f *fakeVolume) Get(context.Context, pipewire.Sink) (int, error) {
	return f.current, f.getErr
}

func (f *fakeVolume) Set(ctx context.Context, _ pipewire.Sink, pct int) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.sets = append(f.sets, pct)
	if f.setErr != nil {
		return f.setErr
	}
	f.current = pct
	return nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, summary string) error {
	f.messages = append(f.messages, summary)
	return f.err
}

func (f *fakeNotifier) Close() error { return nil }

type fakeSequencer struct {
	called  bool
	volume  *fakeVolume
	seenVol int
	results []model.Result
	err     error
	cancel  context.CancelFunc
}

func (f *fakeSequencer) Run(ctx context.Context, _ pipewire.Sink, tracks []model.Track) ([]model.Result, error) {
	f.called = true
	f.seenVol = f.volume.current
	if f.cancel != nil {
		f.cancel()
		return f.results, ctx.Err()
	}
	return f.results, f.err
}

func testPlan() Plan {
	return Plan{
		Tracks:           []model.Track{{Title: "a", Seconds: 1}, {Title: "b", Seconds: 2}},
		MaxVolume:        100,
		CountdownSeconds: 2,
		CountdownTick:    time.Millisecond,
	}
}

func newDeps(vol *fakeVolume) (Deps, *fakeNotifier, *fakeSequencer) {
	n := &fakeNotifier{}
	seq := &fakeSequencer{volume: vol}
	return Deps{
		Finder:    &fakeFinder{sink: testSink},
		Volume:    vol,
		Notifier:  n,
		Sequencer: seq,
	}, n, seq
}

func TestRun_RestoresVolume(t *testing.T) {
	vol := &fakeVolume{current: 40}
	deps, n, seq := newDeps(vol)
	seq.results = []model.Result{{Status: model.StatusCompleted}, {Status: model.StatusCompleted}}

	rep, err := Run(context.Background(), deps, testPlan())
	require.NoError(t, err)

	assert.Equal(t, testSink, rep.Sink)
	assert.Equal(t, 40, rep.OriginalVolume)
	assert.Len(t, rep.Results, 2)

	assert.True(t, seq.called)
	assert.Equal(t, 100, seq.seenVol, "recording should run at max volume")
	assert.Equal(t, []int{100, 40}, vol.sets)
	assert.Equal(t, []string{"Get ready...", "2...", "1...", "Starting!"}, n.messages)
}

func TestRun_NoTracks(t *testing.T) {
	vol := &fakeVolume{current: 40}
	deps, _, _ := newDeps(vol)

	plan := testPlan()
	plan.Tracks = nil

	_, err := Run(context.Background(), deps, plan)
	assert.ErrorIs(t, err, ErrNoTracks)
	assert.Empty(t, vol.sets)
}

func TestRun_SinkNotFound(t *testing.T) {
	vol := &fakeVolume{current: 40}
	deps, n, seq := newDeps(vol)
	deps.Finder = &fakeFinder{err: pipewire.ErrSinkNotFound}

	_, err := Run(context.Background(), deps, testPlan())
	assert.ErrorIs(t, err, pipewire.ErrSinkNotFound)
	assert.Empty(t, vol.sets)
	assert.Empty(t, n.messages)
	assert.False(t, seq.called)
}

func TestRun_VolumeReadFails(t *testing.T) {
	vol := &fakeVolume{getErr: errors.New("wpctl missing")}
	deps, _, seq := newDeps(vol)

	_, err := Run(context.Background(), deps, testPlan())
	assert.Error(t, err)
	assert.Empty(t, vol.sets, "nothing to restore when the original was never read")
	assert.False(t, seq.called)
}

func TestRun_DryRun(t *testing.T) {
	vol := &fakeVolume{current: 35}
	deps, n, seq := newDeps(vol)

	plan := testPlan()
	plan.DryRun = true

	rep, err := Run(context.Background(), deps, plan)
	require.NoError(t, err)
	assert.Equal(t, 35, rep.OriginalVolume)
	assert.Empty(t, vol.sets)
	assert.Empty(t, n.messages)
	assert.False(t, seq.called)
}

func TestRun_InterruptedStillRestores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vol := &fakeVolume{current: 55}
	deps, _, seq := newDeps(vol)
	seq.cancel = cancel
	seq.results = []model.Result{{Status: model.StatusInterrupted}}

	rep, err := Run(ctx, deps, testPlan())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rep.Results, 1)
	assert.Equal(t, []int{100, 55}, vol.sets)
}

func TestRun_SequencerFailureRestores(t *testing.T) {
	vol := &fakeVolume{current: 20}
	deps, _, seq := newDeps(vol)
	seq.err = errors.New("track 1 failed")

	_, err := Run(context.Background(), deps, testPlan())
	assert.ErrorContains(t, err, "track 1 failed")
	assert.Equal(t, []int{100, 20}, vol.sets)
}

func TestRun_RestoreFailureIsReported(t *testing.T) {
	vol := &fakeVolume{current: 20}
	deps, _, _ := newDeps(vol)
	deps.Volume = &failSecondSet{fakeVolume: vol}

	_, err := Run(context.Background(), deps, testPlan())
	assert.ErrorContains(t, err, "failed to restore volume")
}

type failSecondSet struct {
	*fakeVolume
}

func (f *failSecondSet) Set(ctx context.Context, sink pipewire.Sink, pct int) error {
	if len(f.sets) == 1 {
		f.sets = append(f.sets, pct)
		return errors.New("wpctl gone")
	}
	return f.fakeVolume.Set(ctx, sink, pct)
}

func TestRun_NotifierFailureDoesNotStopRecording(t *testing.T) {
	vol := &fakeVolume{current: 20}
	deps, n, seq := newDeps(vol)
	n.err = errors.New("no daemon")

	_, err := Run(context.Background(), deps, testPlan())
	require.NoError(t, err)
	assert.True(t, seq.called)
}

func TestRun_CancelledDuringCountdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vol := &fakeVolume{current: 20}
	deps, _, seq := newDeps(vol)
	deps.Volume = &cancelAwareVolume{fakeVolume: vol}

	_, err := Run(ctx, deps, testPlan())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, seq.called)
	assert.Equal(t, []int{100, 20}, vol.sets)
}

// cancelAwareVolume ignores cancellation so the max-volume step succeeds
// on an already cancelled context.
type cancelAwareVolume struct {
	*fakeVolume
}

func (c *cancelAwareVolume) Set(_ context.Context, sink pipewire.Sink, pct int) error {
	return c.fakeVolume.Set(context.Background(), sink, pct)
}

func TestRestorer(t *testing.T) {
	vol := &fakeVolume{current: 100}
	r := NewRestorer(vol, nil)

	// Nothing captured yet.
	require.NoError(t, r.Restore(context.Background()))
	assert.Empty(t, vol.sets)
	_, ok := r.Original()
	assert.False(t, ok)

	r.Capture(testSink, 42)
	pct, ok := r.Original()
	assert.True(t, ok)
	assert.Equal(t, 42, pct)

	require.NoError(t, r.Restore(context.Background()))
	require.NoError(t, r.Restore(context.Background()))
	assert.Equal(t, []int{42}, vol.sets, "restore runs once")
}

func TestRestorer_RetryAfterFailure(t *testing.T) {
	vol := &fakeVolume{current: 100, setErr: errors.New("busy")}
	r := NewRestorer(vol, nil)
	r.Capture(testSink, 42)

	assert.Error(t, r.Restore(context.Background()))

	vol.setErr = nil
	require.NoError(t, r.Restore(context.Background()))
	assert.Equal(t, []int{42, 42}, vol.sets)
}
