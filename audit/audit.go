package audit

import (
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/logger/dlog"
)

type Messenger interface {
	CreateMessage(channelID snowflake.ID, message discord.MessageCreate) (*discord.Message, error)
}

// Logger mirrors significant transitions into a log channel. It is never on
// the critical path: every failure is logged server-side and swallowed.
type Logger struct {
	messenger Messenger
	channelID snowflake.ID
}

func New(messenger Messenger, channelID snowflake.ID) *Logger {
	return &Logger{messenger: messenger, channelID: channelID}
}

func (l *Logger) LogEvent(guildID snowflake.ID, title, description string) {
	if l == nil || l.channelID == 0 {
		return
	}
	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(description).
		SetTimestamp(time.Now()).
		Build()
	_, err := l.messenger.CreateMessage(l.channelID, discord.NewMessageCreateBuilder().SetEmbeds(embed).Build())
	if err != nil {
		dlog.Log.Warn("Failed to send audit event", "guildId", guildID, "title", title, "err", err)
	}
}
