package platform

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/nordwache/guildbot/logger/dlog"
)

func commandDefinitions() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        "giveaway",
			Description: "Run giveaways in this server",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{
					Name:        "create",
					Description: "Start a new giveaway",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionString{
							Name:        "prize",
							Description: "What the winners get",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:        "duration",
							Description: "How long the giveaway runs, e.g. 30m, 12h, 2d",
							Required:    true,
						},
						discord.ApplicationCommandOptionInt{
							Name:        "winners",
							Description: "How many winners to draw",
							Required:    true,
						},
						discord.ApplicationCommandOptionChannel{
							Name:        "channel",
							Description: "Channel to announce in, defaults to the configured one",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "end",
					Description: "End a running giveaway now",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionString{
							Name:        "code",
							Description: "The giveaway code",
							Required:    true,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "reroll",
					Description: "Draw new winners for an ended giveaway",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionString{
							Name:        "code",
							Description: "The giveaway code",
							Required:    true,
						},
					},
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "supportqueue",
			Description: "Manage the voice support queue",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{
					Name:        "status",
					Description: "Show who is waiting",
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "skip",
					Description: "Drop the first person in the queue",
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "clear",
					Description: "Empty the queue",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "radio",
			Description: "Control the community radio",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{
					Name:        "start",
					Description: "Start the radio",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionChannel{
							Name:        "channel",
							Description: "Voice channel to play in",
						},
						discord.ApplicationCommandOptionString{
							Name:        "stream",
							Description: "Stream URL to play",
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "stop",
					Description: "Stop the radio",
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "set-stream",
					Description: "Change the stream URL",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionString{
							Name:        "url",
							Description: "The new stream URL",
							Required:    true,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "volume",
					Description: "Change the playback volume",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionInt{
							Name:        "percent",
							Description: "Volume in percent, 0 to 200",
							Required:    true,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "status",
					Description: "Show what is playing",
				},
			},
		},
	}
}

func (b *Bot) registerCommands() {
	_, err := b.client.Rest().SetGuildCommands(b.client.ApplicationID(), b.guildID, commandDefinitions())
	if err != nil {
		dlog.Log.Error("Failed to register guild commands", "guildId", b.guildID, "err", err)
		return
	}
	dlog.Log.Info("Registered guild commands", "guildId", b.guildID)
}
