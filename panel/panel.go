package panel

import (
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/db"
	"github.com/nordwache/guildbot/logger/dlog"
)

// RenderFunc derives the panel content from current state. It must be free
// of side effects; the synchronizer may call it on every trigger.
type RenderFunc func() discord.Embed

type Records interface {
	FindPanel(guildId, key string) (db.PersistentMessage, bool, error)
	SavePanel(p db.PersistentMessage) error
}

type Messenger interface {
	GetMessage(channelID snowflake.ID, messageID snowflake.ID) (*discord.Message, error)
	CreateMessage(channelID snowflake.ID, message discord.MessageCreate) (*discord.Message, error)
	UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, message discord.MessageUpdate) (*discord.Message, error)
}

// Synchronizer keeps exactly one live status message per (guild, key).
// When the referenced message is gone it re-sends and re-points the record,
// state machine absent → creating → present, with "present but invalidated"
// looping back through creating. The mutex serializes Ensure so concurrent
// triggers cannot both miss the record and post duplicates.
type Synchronizer struct {
	records   Records
	messenger Messenger

	mu sync.Mutex
}

func NewSynchronizer(records Records, messenger Messenger) *Synchronizer {
	return &Synchronizer{records: records, messenger: messenger}
}

// Ensure renders the panel for (guildID, key) into channelID. A nil message
// with nil error means the target channel could not be resolved; the next
// natural trigger retries.
func (s *Synchronizer) Ensure(guildID snowflake.ID, key string, channelID snowflake.ID, render RenderFunc) (*discord.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, found, err := s.records.FindPanel(guildID.String(), key)
	if err != nil {
		return nil, err
	}

	embed := render()

	if found {
		return s.refresh(record, embed), nil
	}

	message, err := s.messenger.CreateMessage(channelID, discord.NewMessageCreateBuilder().SetEmbeds(embed).Build())
	if err != nil {
		dlog.Log.Warn("Panel channel not resolvable", "guildId", guildID, "key", key, "err", err)
		return nil, nil
	}

	err = s.records.SavePanel(db.PersistentMessage{
		GuildId:   guildID.String(),
		Key:       key,
		ChannelId: message.ChannelID.String(),
		MessageId: message.ID.String(),
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// refresh edits the recorded message in place and self-heals when it was
// deleted externally. This path never fails the caller.
func (s *Synchronizer) refresh(record db.PersistentMessage, embed discord.Embed) *discord.Message {
	channelID := snowflake.MustParse(record.ChannelId)
	messageID := snowflake.MustParse(record.MessageId)

	if _, err := s.messenger.GetMessage(channelID, messageID); err == nil {
		message, err := s.messenger.UpdateMessage(channelID, messageID, discord.NewMessageUpdateBuilder().SetEmbeds(embed).Build())
		if err == nil {
			return message
		}
		dlog.Log.Warn("Panel edit failed, replacing message", "key", record.Key, "err", err)
	}

	// message gone, send a replacement in the originally recorded channel
	message, err := s.messenger.CreateMessage(channelID, discord.NewMessageCreateBuilder().SetEmbeds(embed).Build())
	if err != nil {
		dlog.Log.Warn("Panel replacement failed", "key", record.Key, "err", err)
		return nil
	}

	record.MessageId = message.ID.String()
	record.ChannelId = message.ChannelID.String()
	if err = s.records.SavePanel(record); err != nil {
		dlog.Log.Error("Failed to repoint panel record", "key", record.Key, "err", err)
	}
	return message
}
