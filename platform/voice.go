package platform

import (
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/radio"
	"golang.org/x/net/context"
)

// voiceAdapter exposes gateway voice state and voice connections to the
// support reconciler and the radio manager.
type voiceAdapter struct {
	client    bot.Client
	messenger *Messenger
}

func (v *voiceAdapter) LiveVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, bool) {
	state, ok := v.client.Caches().VoiceState(guildID, userID)
	if !ok || state.ChannelID == nil {
		return 0, false
	}
	return *state.ChannelID, true
}

func (v *voiceAdapter) MoveMember(guildID, userID, channelID snowflake.ID) error {
	_, err := v.client.Rest().UpdateMember(guildID, userID, discord.MemberUpdate{
		ChannelID: &channelID,
	})
	return err
}

func (v *voiceAdapter) SendDM(userID snowflake.ID, content string) error {
	return v.messenger.SendDM(userID, content)
}

func (v *voiceAdapter) Dial(ctx context.Context, guildID, channelID snowflake.ID) (radio.Transmitter, error) {
	conn := v.client.VoiceManager().CreateConn(guildID)
	if err := conn.Open(ctx, channelID, false, true); err != nil {
		return nil, err
	}
	if err := conn.SetSpeaking(ctx, voice.SpeakingFlagMicrophone); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	if _, err := conn.UDP().Write(voice.SilenceAudioFrame); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return &transmission{conn: conn}, nil
}

type transmission struct {
	conn voice.Conn
}

func (t *transmission) WriteFrame(frame []byte) error {
	_, err := t.conn.UDP().Write(frame)
	return err
}

func (t *transmission) Close() {
	t.conn.Close(context.Background())
}
