package support

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/logger/dlog"
	"github.com/nordwache/guildbot/panel"
	"github.com/nordwache/guildbot/queue"
)

const PanelKey = "support_queue_status"

const queueGreeting = "You were added to the support queue. Please stay in the channel until a supporter pulls you into a voice channel."

// VoiceTransition is the platform-independent shape of one voice-state
// change.
type VoiceTransition struct {
	GuildID      snowflake.ID
	UserID       snowflake.ID
	OldChannelID *snowflake.ID
	NewChannelID *snowflake.ID
	IsBot        bool
}

// Voice is the live platform surface the reconciler needs: the member's
// current voice channel, the ability to move them, and best-effort DMs.
type Voice interface {
	LiveVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, bool)
	MoveMember(guildID, userID, channelID snowflake.ID) error
	SendDM(userID snowflake.ID, content string) error
}

type Audit interface {
	LogEvent(guildID snowflake.ID, title, description string)
}

type Config struct {
	QueueChannelID  snowflake.ID
	AgentChannelIDs []snowflake.ID
	StatusChannelID snowflake.ID
}

// Reconciler turns raw voice-channel transitions into queue mutations and
// supporter matches.
type Reconciler struct {
	store  *queue.Store
	panels *panel.Synchronizer
	voice  Voice
	audit  Audit
	cfg    Config
}

func NewReconciler(store *queue.Store, panels *panel.Synchronizer, voice Voice, audit Audit, cfg Config) *Reconciler {
	return &Reconciler{store: store, panels: panels, voice: voice, audit: audit, cfg: cfg}
}

func (r *Reconciler) HandleTransition(t VoiceTransition) {
	oldChannel := unwrap(t.OldChannelID)
	newChannel := unwrap(t.NewChannelID)
	mutated := false

	if newChannel == r.cfg.QueueChannelID && oldChannel != r.cfg.QueueChannelID {
		r.store.Add(t.GuildID, t.UserID)
		mutated = true

		// closed DMs are the member's choice, not our problem
		if err := r.voice.SendDM(t.UserID, queueGreeting); err != nil {
			dlog.Log.Debug("Queue greeting DM failed", "userId", t.UserID, "err", err)
		}
		if r.audit != nil {
			r.audit.LogEvent(t.GuildID, "Support queue",
				fmt.Sprintf("<@%s> joined the support queue.", t.UserID))
		}
	}

	if oldChannel == r.cfg.QueueChannelID && newChannel != r.cfg.QueueChannelID {
		r.store.Remove(t.GuildID, t.UserID)
		mutated = true
	}

	if newChannel != 0 && !t.IsBot && r.isAgentChannel(newChannel) {
		if r.match(t.GuildID, t.UserID, newChannel) {
			mutated = true
		}
	}

	if mutated {
		r.RefreshPanel(t.GuildID)
	}
}

// match pops the head ticket for the supporter who just became available.
// A popped user who already left the queue channel is dropped, not
// re-enqueued: tickets are single use.
func (r *Reconciler) match(guildID, agentID, agentChannelID snowflake.ID) bool {
	entry, ok := r.store.PopNext(guildID)
	if !ok {
		return false
	}

	liveChannel, live := r.voice.LiveVoiceChannel(guildID, entry.UserID)
	if !live || liveChannel != r.cfg.QueueChannelID {
		dlog.Log.Info("Dropping stale queue ticket", "guildId", guildID, "userId", entry.UserID)
		return true
	}

	if err := r.voice.MoveMember(guildID, entry.UserID, agentChannelID); err != nil {
		dlog.Log.Error("Failed to move queued member", "guildId", guildID, "userId", entry.UserID, "err", err)
		return true
	}

	if r.audit != nil {
		r.audit.LogEvent(guildID, "Support queue match",
			fmt.Sprintf("<@%s> was moved to <@%s> in <#%s>.", entry.UserID, agentID, agentChannelID))
	}
	return true
}

// Skip drops the head entry without matching it.
func (r *Reconciler) Skip(guildID snowflake.ID) (queue.Entry, bool) {
	entry, ok := r.store.PopNext(guildID)
	if ok {
		r.RefreshPanel(guildID)
	}
	return entry, ok
}

// Clear empties the queue.
func (r *Reconciler) Clear(guildID snowflake.ID) {
	r.store.Clear(guildID)
	r.RefreshPanel(guildID)
}

// RefreshPanel re-renders the persistent queue-status message if one is
// configured. Failures are absorbed; the next trigger retries.
func (r *Reconciler) RefreshPanel(guildID snowflake.ID) {
	if r.panels == nil || r.cfg.StatusChannelID == 0 {
		return
	}
	_, err := r.panels.Ensure(guildID, PanelKey, r.cfg.StatusChannelID, func() discord.Embed {
		return r.StatusEmbed(guildID)
	})
	if err != nil {
		dlog.Log.Warn("Queue panel refresh failed", "guildId", guildID, "err", err)
	}
}

// StatusEmbed renders the current queue order.
func (r *Reconciler) StatusEmbed(guildID snowflake.ID) discord.Embed {
	entries := r.store.Snapshot(guildID)

	description := "Nobody is waiting in the support queue right now."
	if len(entries) > 0 {
		lines := make([]string, len(entries))
		for i, entry := range entries {
			lines[i] = fmt.Sprintf("%d. <@%s> – since <t:%d:R>", i+1, entry.UserID, entry.JoinedAt.Unix())
		}
		description = strings.Join(lines, "\n")
	}

	return discord.NewEmbedBuilder().
		SetTitle("Voice support queue").
		SetDescription(description).
		SetTimestamp(time.Now()).
		Build()
}

func (r *Reconciler) isAgentChannel(channelID snowflake.ID) bool {
	for _, id := range r.cfg.AgentChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

func unwrap(id *snowflake.ID) snowflake.ID {
	if id == nil {
		return 0
	}
	return *id
}
