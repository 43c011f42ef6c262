package radio

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuild   = snowflake.ID(10)
	testChannel = snowflake.ID(77)
)

func intPtr(v int) *int { return &v }

type fakeRecords struct {
	mu     sync.Mutex
	states map[string]db.RadioState
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{states: make(map[string]db.RadioState)}
}

func (r *fakeRecords) SaveRadioState(state db.RadioState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.GuildId] = state
	return nil
}

func (r *fakeRecords) FindRadioState(guildID string) (db.RadioState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[guildID]
	return state, ok, nil
}

func (r *fakeRecords) PlayingRadioStates() ([]db.RadioState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var playing []db.RadioState
	for _, state := range r.states {
		if state.IsPlaying {
			playing = append(playing, state)
		}
	}
	return playing, nil
}

func (r *fakeRecords) state(t *testing.T, guildID snowflake.ID) db.RadioState {
	t.Helper()
	state, ok, err := r.FindRadioState(guildID.String())
	require.NoError(t, err)
	require.True(t, ok)
	return state
}

type fakeTransmitter struct {
	mu     sync.Mutex
	frames int
	closed bool
}

func (f *fakeTransmitter) WriteFrame(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	return nil
}

func (f *fakeTransmitter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeTransmitter) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type dial struct {
	guildID   snowflake.ID
	channelID snowflake.ID
}

type fakeDialer struct {
	mu           sync.Mutex
	dials        []dial
	transmitters []*fakeTransmitter
	err          error
}

func (d *fakeDialer) Dial(ctx context.Context, guildID, channelID snowflake.ID) (Transmitter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	d.dials = append(d.dials, dial{guildID: guildID, channelID: channelID})
	transmitter := &fakeTransmitter{}
	d.transmitters = append(d.transmitters, transmitter)
	return transmitter, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// silentSource blocks until the context is cancelled, like a healthy
// stream with no frames ready yet.
func silentSource(ctx context.Context, streamURL string, volumePercent int) (<-chan []byte, io.Closer, error) {
	frames := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(frames)
	}()
	return frames, nopCloser{}, nil
}

func newTestManager(defaults Defaults) (*Manager, *fakeRecords, *fakeDialer) {
	records := newFakeRecords()
	dialer := &fakeDialer{}
	manager := NewManager(records, dialer, silentSource, defaults)
	return manager, records, dialer
}

func TestStartDialsAndCheckpoints(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{})
	defer manager.Close()

	err := manager.Start(testGuild, testChannel, "http://radio.example/live")
	require.NoError(t, err)

	require.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, dial{guildID: testGuild, channelID: testChannel}, dialer.dials[0])

	state := records.state(t, testGuild)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, testChannel.String(), state.VoiceChannelId)
	assert.Equal(t, "http://radio.example/live", state.StreamUrl)
	require.NotNil(t, state.VolumePercent)
	assert.Equal(t, 100, *state.VolumePercent)
}

func TestStartWithoutChannelFails(t *testing.T) {
	manager, _, dialer := newTestManager(Defaults{})

	err := manager.Start(testGuild, 0, "http://radio.example/live")
	require.Error(t, err)
	assert.Zero(t, dialer.dialCount())
}

func TestStartFallsBackToDefaults(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{
		VoiceChannelID: testChannel,
		StreamURL:      "http://radio.example/default",
	})
	defer manager.Close()

	require.NoError(t, manager.Start(testGuild, 0, ""))

	require.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, testChannel, dialer.dials[0].channelID)
	assert.Equal(t, "http://radio.example/default", records.state(t, testGuild).StreamUrl)
}

func TestStartDialFailure(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{})
	dialer.err = errors.New("voice gateway down")

	err := manager.Start(testGuild, testChannel, "http://radio.example/live")
	require.Error(t, err)

	_, ok, _ := records.FindRadioState(testGuild.String())
	assert.False(t, ok)
}

func TestStopEndsSessionAndCheckpoints(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{})

	require.NoError(t, manager.Start(testGuild, testChannel, "http://radio.example/live"))
	require.NoError(t, manager.Stop(testGuild))

	assert.False(t, records.state(t, testGuild).IsPlaying)
	assert.True(t, dialer.transmitters[0].isClosed())
}

func TestStopWithoutSessionStillCheckpoints(t *testing.T) {
	manager, records, _ := newTestManager(Defaults{VoiceChannelID: testChannel, StreamURL: "http://radio.example/live"})

	require.NoError(t, manager.Stop(testGuild))
	assert.False(t, records.state(t, testGuild).IsPlaying)
}

func TestSetStreamWhileStoppedOnlyCheckpoints(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{})

	require.NoError(t, manager.SetStream(testGuild, "http://radio.example/next"))

	assert.Zero(t, dialer.dialCount())
	state := records.state(t, testGuild)
	assert.Equal(t, "http://radio.example/next", state.StreamUrl)
	assert.False(t, state.IsPlaying)
}

func TestSetStreamWhilePlayingRestarts(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{})
	defer manager.Close()

	require.NoError(t, manager.Start(testGuild, testChannel, "http://radio.example/live"))
	require.NoError(t, manager.SetStream(testGuild, "http://radio.example/next"))

	assert.Equal(t, 2, dialer.dialCount())
	assert.True(t, dialer.transmitters[0].isClosed())
	state := records.state(t, testGuild)
	assert.Equal(t, "http://radio.example/next", state.StreamUrl)
	assert.True(t, state.IsPlaying)
}

func TestSetStreamRejectsEmptyURL(t *testing.T) {
	manager, _, _ := newTestManager(Defaults{})
	require.Error(t, manager.SetStream(testGuild, ""))
}

func TestSetVolumeValidatesRange(t *testing.T) {
	manager, records, _ := newTestManager(Defaults{})

	require.Error(t, manager.SetVolume(testGuild, -1))
	require.Error(t, manager.SetVolume(testGuild, 201))

	require.NoError(t, manager.SetVolume(testGuild, 150))
	stored := records.state(t, testGuild)
	require.NotNil(t, stored.VolumePercent)
	assert.Equal(t, 150, *stored.VolumePercent)
}

func TestSetVolumeZeroMutesAndSurvivesRestart(t *testing.T) {
	manager, records, _ := newTestManager(Defaults{VoiceChannelID: testChannel, StreamURL: "http://radio.example/live"})

	require.NoError(t, manager.SetVolume(testGuild, 0))

	stored := records.state(t, testGuild)
	require.NotNil(t, stored.VolumePercent)
	assert.Equal(t, 0, *stored.VolumePercent)

	status := manager.Status(testGuild)
	require.NotNil(t, status.VolumePercent)
	assert.Equal(t, 0, *status.VolumePercent)

	// a fresh manager over the same records keeps the mute
	restarted := NewManager(records, &fakeDialer{}, silentSource, Defaults{})
	status = restarted.Status(testGuild)
	require.NotNil(t, status.VolumePercent)
	assert.Equal(t, 0, *status.VolumePercent)
}

func TestStatusReflectsCheckpoint(t *testing.T) {
	manager, _, _ := newTestManager(Defaults{})
	defer manager.Close()

	require.NoError(t, manager.Start(testGuild, testChannel, "http://radio.example/live"))

	status := manager.Status(testGuild)
	assert.True(t, status.IsPlaying)
	assert.Equal(t, "http://radio.example/live", status.StreamUrl)
}

func TestResumeRestartsPlayingSessions(t *testing.T) {
	manager, records, dialer := newTestManager(Defaults{})
	defer manager.Close()

	require.NoError(t, records.SaveRadioState(db.RadioState{
		GuildId:        testGuild.String(),
		VoiceChannelId: testChannel.String(),
		StreamUrl:      "http://radio.example/live",
		IsPlaying:      true,
		VolumePercent:  intPtr(80),
	}))
	require.NoError(t, records.SaveRadioState(db.RadioState{
		GuildId:        "11",
		VoiceChannelId: "78",
		StreamUrl:      "http://radio.example/other",
	}))

	manager.Resume()

	require.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, testGuild, dialer.dials[0].guildID)
}

func TestFramesReachTransmitter(t *testing.T) {
	records := newFakeRecords()
	dialer := &fakeDialer{}
	source := func(ctx context.Context, streamURL string, volumePercent int) (<-chan []byte, io.Closer, error) {
		frames := make(chan []byte, 3)
		frames <- []byte{1}
		frames <- []byte{2}
		frames <- []byte{3}
		close(frames)
		return frames, nopCloser{}, nil
	}
	manager := NewManager(records, dialer, source, Defaults{})

	require.NoError(t, manager.Start(testGuild, testChannel, "http://radio.example/live"))

	assert.Eventually(t, func() bool {
		transmitter := dialer.transmitters[0]
		transmitter.mu.Lock()
		defer transmitter.mu.Unlock()
		return transmitter.frames >= 3
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, manager.Stop(testGuild))
}
