package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/audio"
	"github.com/nordwache/guildbot/db"
	"github.com/nordwache/guildbot/logger/dlog"
)

const (
	frameInterval  = 20 * time.Millisecond
	reconnectDelay = 5 * time.Second

	MinVolume = 0
	MaxVolume = 200
)

// Transmitter is one open voice transmission.
type Transmitter interface {
	WriteFrame(frame []byte) error
	Close()
}

// Dialer opens a voice transmission into a guild channel.
type Dialer interface {
	Dial(ctx context.Context, guildID, channelID snowflake.ID) (Transmitter, error)
}

// Source opens the audio pipeline for a stream URL and yields opus
// frames until the stream ends or the context is cancelled.
type Source func(ctx context.Context, streamURL string, volumePercent int) (<-chan []byte, io.Closer, error)

// FFmpegSource decodes the stream with ffmpeg and encodes it to opus.
func FFmpegSource(ctx context.Context, streamURL string, volumePercent int) (<-chan []byte, io.Closer, error) {
	pcm, err := audio.Stream(ctx, streamURL, volumePercent)
	if err != nil {
		return nil, nil, err
	}
	return audio.Encode(pcm), pcm, nil
}

// Records is the persisted radio checkpoint surface.
type Records interface {
	SaveRadioState(state db.RadioState) error
	FindRadioState(guildID string) (db.RadioState, bool, error)
	PlayingRadioStates() ([]db.RadioState, error)
}

// Defaults fill in channel and stream when neither the command nor the
// checkpoint provides one.
type Defaults struct {
	VoiceChannelID snowflake.ID
	StreamURL      string
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns at most one radio session per guild. The persisted
// RadioState is the restart checkpoint; the in-memory session is the
// live playback.
type Manager struct {
	records  Records
	dialer   Dialer
	source   Source
	defaults Defaults

	mu       sync.Mutex
	sessions map[snowflake.ID]*session
}

func NewManager(records Records, dialer Dialer, source Source, defaults Defaults) *Manager {
	return &Manager{
		records:  records,
		dialer:   dialer,
		source:   source,
		defaults: defaults,
		sessions: make(map[snowflake.ID]*session),
	}
}

// Start begins (or restarts) playback. A zero channelID or empty
// streamURL falls back to the checkpoint, then to the configured
// defaults.
func (m *Manager) Start(guildID, channelID snowflake.ID, streamURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.loadState(guildID)
	if channelID != 0 {
		state.VoiceChannelId = channelID.String()
	}
	if streamURL != "" {
		state.StreamUrl = streamURL
	}
	if state.VoiceChannelId == "" {
		return errors.New("no voice channel configured for the radio")
	}
	if state.StreamUrl == "" {
		return errors.New("no stream url configured for the radio")
	}
	state.IsPlaying = true

	return m.startLocked(guildID, state)
}

// Stop ends playback and checkpoints the stopped state.
func (m *Manager) Stop(guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked(guildID)

	state := m.loadState(guildID)
	state.IsPlaying = false
	return m.records.SaveRadioState(state)
}

// SetStream changes the stream URL. A playing session restarts on the
// new stream.
func (m *Manager) SetStream(guildID snowflake.ID, streamURL string) error {
	if streamURL == "" {
		return errors.New("stream url must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.loadState(guildID)
	state.StreamUrl = streamURL
	if !state.IsPlaying {
		return m.records.SaveRadioState(state)
	}
	return m.startLocked(guildID, state)
}

// SetVolume changes the playback volume in percent. A playing session
// restarts so ffmpeg picks up the new filter.
func (m *Manager) SetVolume(guildID snowflake.ID, percent int) error {
	if percent < MinVolume || percent > MaxVolume {
		return fmt.Errorf("volume must be between %d and %d, got %d", MinVolume, MaxVolume, percent)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.loadState(guildID)
	state.VolumePercent = &percent
	if !state.IsPlaying {
		return m.records.SaveRadioState(state)
	}
	return m.startLocked(guildID, state)
}

// Status reports the checkpointed session settings.
func (m *Manager) Status(guildID snowflake.ID) db.RadioState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadState(guildID)
}

// Resume restarts every session that was playing when the process last
// stopped.
func (m *Manager) Resume() {
	states, err := m.records.PlayingRadioStates()
	if err != nil {
		dlog.Log.Error("Failed to load radio checkpoints", "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, state := range states {
		guildID, err := snowflake.Parse(state.GuildId)
		if err != nil {
			dlog.Log.Error("Invalid guild id in radio checkpoint", "guildId", state.GuildId, "err", err)
			continue
		}
		if err := m.startLocked(guildID, state); err != nil {
			dlog.Log.Error("Failed to resume radio", "guildId", state.GuildId, "err", err)
		}
	}
}

// Close stops all live sessions without touching the checkpoints, so
// playback resumes after a restart.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for guildID := range m.sessions {
		m.stopLocked(guildID)
	}
}

func (m *Manager) loadState(guildID snowflake.ID) db.RadioState {
	state, found, err := m.records.FindRadioState(guildID.String())
	if err != nil {
		dlog.Log.Error("Failed to load radio checkpoint", "guildId", guildID, "err", err)
	}
	if !found {
		state = db.RadioState{GuildId: guildID.String()}
	}
	if state.VoiceChannelId == "" && m.defaults.VoiceChannelID != 0 {
		state.VoiceChannelId = m.defaults.VoiceChannelID.String()
	}
	if state.StreamUrl == "" {
		state.StreamUrl = m.defaults.StreamURL
	}
	// only an unset volume defaults to 100, a checkpointed 0 is a mute
	if state.VolumePercent == nil {
		volume := 100
		state.VolumePercent = &volume
	}
	return state
}

func (m *Manager) startLocked(guildID snowflake.ID, state db.RadioState) error {
	if state.VolumePercent == nil {
		volume := 100
		state.VolumePercent = &volume
	}

	channelID, err := snowflake.Parse(state.VoiceChannelId)
	if err != nil {
		return fmt.Errorf("invalid radio voice channel id %q: %w", state.VoiceChannelId, err)
	}

	m.stopLocked(guildID)

	ctx, cancel := context.WithCancel(context.Background())
	transmitter, err := m.dialer.Dial(ctx, guildID, channelID)
	if err != nil {
		cancel()
		return fmt.Errorf("joining radio channel: %w", err)
	}

	if err := m.records.SaveRadioState(state); err != nil {
		transmitter.Close()
		cancel()
		return err
	}

	s := &session{cancel: cancel, done: make(chan struct{})}
	m.sessions[guildID] = s
	go m.run(ctx, s, transmitter, state)

	dlog.Log.Info("Radio started", "guildId", state.GuildId, "channelId", state.VoiceChannelId, "streamUrl", state.StreamUrl)
	return nil
}

func (m *Manager) stopLocked(guildID snowflake.ID) {
	s, ok := m.sessions[guildID]
	if !ok {
		return
	}
	delete(m.sessions, guildID)
	s.cancel()
	<-s.done
}

// run streams opus frames at the 20ms cadence and reopens the source
// when the upstream drops.
func (m *Manager) run(ctx context.Context, s *session, transmitter Transmitter, state db.RadioState) {
	defer close(s.done)
	defer transmitter.Close()

	for {
		frames, closer, err := m.source(ctx, state.StreamUrl, *state.VolumePercent)
		if err != nil {
			dlog.Log.Error("Failed to open radio stream", "guildId", state.GuildId, "err", err)
		} else {
			m.pump(ctx, transmitter, frames, state.GuildId)
			_ = closer.Close()
		}

		if ctx.Err() != nil {
			return
		}
		dlog.Log.Warn("Radio stream ended, reconnecting", "guildId", state.GuildId)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (m *Manager) pump(ctx context.Context, transmitter Transmitter, frames <-chan []byte, guildID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := transmitter.WriteFrame(frame); err != nil {
				dlog.Log.Error("Failed to write radio frame", "guildId", guildID, "err", err)
				return
			}
			time.Sleep(frameInterval)
		}
	}
}
