package platform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/nordwache/guildbot/giveaway"
	"github.com/nordwache/guildbot/logger/dlog"
	"github.com/nordwache/guildbot/radio"
)

const genericErrorReply = "Something went wrong, please try again later."

func (b *Bot) onCommand(e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()

	var err error
	switch data.CommandName() {
	case "giveaway":
		err = b.handleGiveaway(e, data)
	case "supportqueue":
		err = b.handleSupportQueue(e, data)
	case "radio":
		err = b.handleRadio(e, data)
	default:
		return
	}
	if err != nil {
		dlog.Log.Error("Command failed", "command", data.CommandName(), "err", err)
		_ = reply(e, genericErrorReply)
	}
}

func (b *Bot) handleGiveaway(e *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) error {
	switch subCommand(data) {
	case "create":
		return b.giveawayCreate(e, data)
	case "end":
		if !b.isStaff(e.Member()) {
			return reply(e, "You need a staff role to end giveaways.")
		}
		outcome, err := b.Engine.End(data.String("code"))
		if err != nil {
			return err
		}
		if !outcome.OK {
			return reply(e, "No running giveaway with that code.")
		}
		return reply(e, fmt.Sprintf("Giveaway ended with %d winner(s).", len(outcome.Winners)))
	case "reroll":
		if !b.isStaff(e.Member()) {
			return reply(e, "You need a staff role to reroll giveaways.")
		}
		outcome, err := b.Engine.Reroll(data.String("code"))
		if err != nil {
			return err
		}
		if !outcome.OK {
			return reply(e, "Only ended giveaways can be rerolled.")
		}
		return reply(e, fmt.Sprintf("Rerolled %d new winner(s).", len(outcome.Winners)))
	}
	return nil
}

func (b *Bot) giveawayCreate(e *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) error {
	prize := data.String("prize")
	winnerCount := data.Int("winners")
	if winnerCount < 1 {
		return reply(e, "Winner count must be at least 1.")
	}

	duration, err := parseRunDuration(data.String("duration"))
	if err != nil || duration <= 0 {
		return reply(e, "Duration must look like 30m, 12h or 2d.")
	}

	channelID, ok := data.OptSnowflake("channel")
	if !ok {
		channelID = optionalID(b.cfg.Giveaways.DefaultChannelID)
	}
	if channelID == 0 {
		return reply(e, "Pick a channel, no default giveaway channel is configured.")
	}

	created, err := b.Engine.Create(b.guildID, channelID, e.User().ID, prize, winnerCount, duration)
	if err != nil {
		return err
	}
	return reply(e, fmt.Sprintf("Giveaway `%s` is live in <#%s>.", created.Id, created.ChannelId))
}

func (b *Bot) handleSupportQueue(e *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) error {
	if !b.cfg.SupportQueue.Enabled {
		return reply(e, "The support queue is disabled.")
	}

	switch subCommand(data) {
	case "status":
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetEmbeds(b.Reconciler.StatusEmbed(b.guildID)).
			SetEphemeral(true).
			Build())
	case "skip":
		if !b.isStaff(e.Member()) {
			return reply(e, "You need a staff role to manage the queue.")
		}
		entry, ok := b.Reconciler.Skip(b.guildID)
		if !ok {
			return reply(e, "The queue is empty.")
		}
		return reply(e, fmt.Sprintf("Skipped <@%s>.", entry.UserID))
	case "clear":
		if !b.isStaff(e.Member()) {
			return reply(e, "You need a staff role to manage the queue.")
		}
		b.Reconciler.Clear(b.guildID)
		return reply(e, "The queue was cleared.")
	}
	return nil
}

func (b *Bot) handleRadio(e *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) error {
	if !b.cfg.Radio.Enabled {
		return reply(e, "The radio is disabled.")
	}
	if !b.isStaff(e.Member()) {
		return reply(e, "You need a staff role to control the radio.")
	}

	switch subCommand(data) {
	case "start":
		channelID, _ := data.OptSnowflake("channel")
		streamURL, _ := data.OptString("stream")
		if err := b.Radio.Start(b.guildID, channelID, streamURL); err != nil {
			return reply(e, fmt.Sprintf("Could not start the radio: %s", err))
		}
		b.RefreshRadioPanel()
		return reply(e, "Radio started. 📻")
	case "stop":
		if err := b.Radio.Stop(b.guildID); err != nil {
			return err
		}
		b.RefreshRadioPanel()
		return reply(e, "Radio stopped.")
	case "set-stream":
		if err := b.Radio.SetStream(b.guildID, data.String("url")); err != nil {
			return reply(e, fmt.Sprintf("Could not change the stream: %s", err))
		}
		b.RefreshRadioPanel()
		return reply(e, "Stream updated.")
	case "volume":
		if err := b.Radio.SetVolume(b.guildID, data.Int("percent")); err != nil {
			return reply(e, fmt.Sprintf("Could not change the volume: %s", err))
		}
		b.RefreshRadioPanel()
		return reply(e, "Volume updated.")
	case "status":
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetEmbeds(b.radioStatusEmbed()).
			SetEphemeral(true).
			Build())
	}
	return nil
}

const radioPanelKey = "radio_status"

// RefreshRadioPanel re-renders the persistent radio info message if an
// info channel is configured.
func (b *Bot) RefreshRadioPanel() {
	channelID := optionalID(b.cfg.Radio.InfoChannelID)
	if channelID == 0 {
		return
	}
	_, err := b.Panels.Ensure(b.guildID, radioPanelKey, channelID, b.radioStatusEmbed)
	if err != nil {
		dlog.Log.Warn("Radio panel refresh failed", "guildId", b.guildID, "err", err)
	}
}

func (b *Bot) radioStatusEmbed() discord.Embed {
	state := b.Radio.Status(b.guildID)

	builder := discord.NewEmbedBuilder().
		SetTitle("📻 Radio").
		AddField("Playing", yesNo(state.IsPlaying), true).
		AddField("Volume", fmt.Sprintf("%d%%", *state.VolumePercent), true)
	if state.StreamUrl != "" {
		builder.AddField("Stream", state.StreamUrl, false)
	}
	if state.VoiceChannelId != "" {
		builder.AddField("Channel", "<#"+state.VoiceChannelId+">", true)
	}
	if metadata, ok := radio.FetchMetadata(state.StreamUrl); ok {
		if metadata.Title != "" {
			builder.AddField("Now playing", metadata.Title, false)
		}
		if metadata.ServerName != "" {
			builder.AddField("Station", metadata.ServerName, true)
		}
		builder.AddField("Listeners", strconv.Itoa(metadata.Listeners), true)
	}
	return builder.Build()
}

func (b *Bot) onComponent(e *events.ComponentInteractionCreate) {
	customID := e.Data.CustomID()
	if !strings.HasPrefix(customID, "giveaway_join:") {
		return
	}
	id := strings.TrimPrefix(customID, "giveaway_join:")

	result, err := b.Engine.ToggleEntry(id, e.User().ID)
	if err != nil {
		dlog.Log.Error("Giveaway entry failed", "id", id, "err", err)
		_ = componentReply(e, genericErrorReply)
		return
	}

	switch result {
	case giveaway.EntryJoined:
		_ = componentReply(e, "You're in! Good luck. 🎉")
	case giveaway.EntryLeft:
		_ = componentReply(e, "Your entry was removed.")
	case giveaway.EntryClosed:
		_ = componentReply(e, "That giveaway has already ended.")
	default:
		_ = componentReply(e, "That giveaway no longer exists.")
	}
}

func (b *Bot) isStaff(member *discord.ResolvedMember) bool {
	staff := optionalIDs(b.cfg.SupportQueue.StaffRoleIDs)
	if len(staff) == 0 || member == nil {
		return true
	}
	for _, roleID := range member.RoleIDs {
		for _, staffID := range staff {
			if roleID == staffID {
				return true
			}
		}
	}
	return false
}

func subCommand(data discord.SlashCommandInteractionData) string {
	if data.SubCommandName == nil {
		return ""
	}
	return *data.SubCommandName
}

// parseRunDuration accepts the stdlib forms plus a day suffix.
func parseRunDuration(raw string) (time.Duration, error) {
	if days, found := strings.CutSuffix(raw, "d"); found {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}

func reply(e *events.ApplicationCommandInteractionCreate, content string) error {
	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build())
}

func componentReply(e *events.ComponentInteractionCreate, content string) error {
	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build())
}
