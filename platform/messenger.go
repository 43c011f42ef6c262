package platform

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Messenger is the rest surface the domain packages write through.
type Messenger struct {
	rest rest.Rest
}

func (m *Messenger) GetMessage(channelID, messageID snowflake.ID) (*discord.Message, error) {
	return m.rest.GetMessage(channelID, messageID)
}

func (m *Messenger) CreateMessage(channelID snowflake.ID, message discord.MessageCreate) (*discord.Message, error) {
	return m.rest.CreateMessage(channelID, message)
}

func (m *Messenger) UpdateMessage(channelID, messageID snowflake.ID, message discord.MessageUpdate) (*discord.Message, error) {
	return m.rest.UpdateMessage(channelID, messageID, message)
}

func (m *Messenger) SendDM(userID snowflake.ID, content string) error {
	channel, err := m.rest.CreateDMChannel(userID)
	if err != nil {
		return err
	}
	_, err = m.rest.CreateMessage(channel.ID(), discord.NewMessageCreateBuilder().
		SetContent(content).
		Build())
	return err
}
