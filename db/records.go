package db

const (
	GiveawayRunning = "running"
	GiveawayEnded   = "ended"
)

const (
	HistoryActionEnd    = "end"
	HistoryActionReroll = "reroll"
)

// Giveaway is the authoritative record of a prize draw. EndAt is RFC3339,
// node properties stay plain strings so the cypher layer can render them.
type Giveaway struct {
	Id           string   `json:"id"`
	GuildId      string   `json:"guildId"`
	ChannelId    string   `json:"channelId"`
	MessageId    string   `json:"messageId"`
	Prize        string   `json:"prize"`
	WinnerCount  int      `json:"winnerCount,omitempty"`
	HostId       string   `json:"hostId"`
	Status       string   `json:"status"`
	EndAt        string   `json:"endAt"`
	Participants []string `json:"participants,omitempty"`
}

// GiveawayHistory is an append-only audit row, one per end or reroll.
type GiveawayHistory struct {
	GiveawayId   string   `json:"giveawayId"`
	GuildId      string   `json:"guildId"`
	ChannelId    string   `json:"channelId"`
	MessageId    string   `json:"messageId"`
	Prize        string   `json:"prize"`
	WinnerCount  int      `json:"winnerCount,omitempty"`
	Winners      []string `json:"winners,omitempty"`
	Participants int      `json:"participants,omitempty"`
	EndedAt      string   `json:"endedAt"`
	Action       string   `json:"action"`
}

// PersistentMessage points at the live panel message for (GuildId, Key).
type PersistentMessage struct {
	GuildId   string `json:"guildId"`
	Key       string `json:"key"`
	ChannelId string `json:"channelId"`
	MessageId string `json:"messageId"`
}

// RadioState is the resume checkpoint for a guild's radio session.
// VolumePercent is a pointer so a muted session (0) survives the
// round trip; nil means the volume was never set.
type RadioState struct {
	GuildId        string `json:"guildId"`
	VoiceChannelId string `json:"voiceChannelId"`
	StreamUrl      string `json:"streamUrl"`
	IsPlaying      bool   `json:"isPlaying,omitempty"`
	VolumePercent  *int   `json:"volumePercent,omitempty"`
}
