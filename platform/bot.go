package platform

import (
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/audit"
	"github.com/nordwache/guildbot/config"
	"github.com/nordwache/guildbot/db"
	"github.com/nordwache/guildbot/giveaway"
	"github.com/nordwache/guildbot/logger/dlog"
	"github.com/nordwache/guildbot/panel"
	"github.com/nordwache/guildbot/queue"
	"github.com/nordwache/guildbot/radio"
	"github.com/nordwache/guildbot/support"
	"golang.org/x/net/context"
)

// Bot wires the gateway to the domain engines. One instance serves one
// configured guild.
type Bot struct {
	client  bot.Client
	cfg     *config.Config
	guildID snowflake.ID

	Messenger  *Messenger
	Audit      *audit.Logger
	Panels     *panel.Synchronizer
	Engine     *giveaway.Engine
	Reconciler *support.Reconciler
	Radio      *radio.Manager
}

func Setup(cfg *config.Config, store *db.Store) *Bot {
	b := &Bot{cfg: cfg, guildID: snowflake.MustParse(cfg.GuildID)}

	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildVoiceStates,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagsAll),
		),
		bot.WithEventListenerFunc(b.onReady),
		bot.WithEventListenerFunc(b.onCommand),
		bot.WithEventListenerFunc(b.onComponent),
		bot.WithEventListenerFunc(b.onVoiceStateUpdate),
	)
	if err != nil {
		panic(err)
	}
	b.client = client

	b.Messenger = &Messenger{rest: client.Rest()}
	b.Audit = audit.New(b.Messenger, optionalID(cfg.Logging.AuditChannelID))
	b.Panels = panel.NewSynchronizer(store, b.Messenger)

	voiceAdapter := &voiceAdapter{client: client, messenger: b.Messenger}

	b.Engine = giveaway.NewEngine(store, b.Messenger, b.Audit)

	// support traffic can be noisy, it gets its own log channel when one
	// is configured
	supportAudit := audit.New(b.Messenger, supportLogChannel(cfg))
	b.Reconciler = support.NewReconciler(queue.NewStore(), b.Panels, voiceAdapter, supportAudit, support.Config{
		QueueChannelID:  optionalID(cfg.SupportQueue.QueueChannelID),
		AgentChannelIDs: optionalIDs(cfg.SupportQueue.AgentChannelIDs),
		StatusChannelID: optionalID(cfg.SupportQueue.StatusChannelID),
	})
	b.Radio = radio.NewManager(store, voiceAdapter, radio.FFmpegSource, radio.Defaults{
		VoiceChannelID: optionalID(cfg.Radio.VoiceChannelID),
		StreamURL:      cfg.Radio.StreamURL,
	})

	return b
}

// Start opens the gateway. Recovery of giveaways, radio sessions and
// panels happens in the ready handler once the cache is primed.
func (b *Bot) Start(ctx context.Context) {
	if err := b.client.OpenGateway(ctx); err != nil {
		panic(err)
	}
}

func (b *Bot) Close() {
	b.Radio.Close()
	b.client.Close(context.TODO())
	dlog.Log.Info("disgo closed successfully")
}

func (b *Bot) Client() bot.Client {
	return b.client
}

func (b *Bot) onReady(e *events.Ready) {
	user, _ := e.Client().Caches().SelfUser()
	dlog.Log.Info("Gateway ready", "username", user.Username)

	b.registerCommands()

	if err := b.Engine.Resume(); err != nil {
		dlog.Log.Error("Failed to resume giveaways", "err", err)
	}
	if b.cfg.Radio.Enabled {
		go func() {
			b.Radio.Resume()
			b.RefreshRadioPanel()
		}()
	}
	if b.cfg.SupportQueue.Enabled {
		b.Reconciler.RefreshPanel(b.guildID)
	}
}

func (b *Bot) onVoiceStateUpdate(e *events.GuildVoiceStateUpdate) {
	if !b.cfg.SupportQueue.Enabled {
		return
	}
	b.Reconciler.HandleTransition(support.VoiceTransition{
		GuildID:      e.VoiceState.GuildID,
		UserID:       e.VoiceState.UserID,
		OldChannelID: e.OldVoiceState.ChannelID,
		NewChannelID: e.VoiceState.ChannelID,
		IsBot:        e.Member.User.Bot,
	})
}

// supportLogChannel resolves where support queue events are logged, the
// dedicated channel first, the guild audit channel as fallback.
func supportLogChannel(cfg *config.Config) snowflake.ID {
	if id := optionalID(cfg.SupportQueue.LogChannelID); id != 0 {
		return id
	}
	return optionalID(cfg.Logging.AuditChannelID)
}

func optionalID(raw string) snowflake.ID {
	if raw == "" {
		return 0
	}
	return snowflake.MustParse(raw)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func optionalIDs(raw []string) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(raw))
	for _, r := range raw {
		if id := optionalID(r); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
