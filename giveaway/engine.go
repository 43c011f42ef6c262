package giveaway

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/nordwache/guildbot/db"
	"github.com/nordwache/guildbot/logger/dlog"
)

const noWinnersText = "No winners, not enough participants."

type Store interface {
	SaveGiveaway(g db.Giveaway) error
	FindGiveaway(id string) (db.Giveaway, bool, error)
	RunningGiveaways() ([]db.Giveaway, error)
	AppendHistory(h db.GiveawayHistory) error
}

type Messenger interface {
	CreateMessage(channelID snowflake.ID, message discord.MessageCreate) (*discord.Message, error)
	UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, message discord.MessageUpdate) (*discord.Message, error)
}

type Audit interface {
	LogEvent(guildID snowflake.ID, title, description string)
}

type EntryResult int

const (
	EntryNotFound EntryResult = iota
	EntryClosed
	EntryJoined
	EntryLeft
)

// Outcome reports what an End or Reroll actually did. OK is false when the
// record was missing or in the wrong status, reported to the caller as a
// plain value rather than an error.
type Outcome struct {
	OK      bool
	Winners []string
}

// Engine owns giveaway state transitions. The persisted record is the
// authority for the running→ended flip; the mutex serializes every
// read-modify-write of a record, so an entry toggle cannot interleave with
// a timer or command driven end.
type Engine struct {
	store     Store
	messenger Messenger
	audit     Audit
	timers    *Timers

	mu  sync.Mutex
	now func() time.Time
}

func NewEngine(store Store, messenger Messenger, audit Audit) *Engine {
	return &Engine{
		store:     store,
		messenger: messenger,
		audit:     audit,
		timers:    NewTimers(),
		now:       time.Now,
	}
}

func (e *Engine) Create(guildID, channelID, hostID snowflake.ID, prize string, winnerCount int, duration time.Duration) (db.Giveaway, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	endAt := e.now().Add(duration)

	embed := announcementEmbed(prize, hostID.String(), winnerCount, endAt)
	message, err := e.messenger.CreateMessage(channelID, discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(discord.NewSuccessButton("Join", "giveaway_join:"+id)).
		Build())
	if err != nil {
		return db.Giveaway{}, fmt.Errorf("failed to post giveaway announcement: %w", err)
	}

	giveaway := db.Giveaway{
		Id:          id,
		GuildId:     guildID.String(),
		ChannelId:   channelID.String(),
		MessageId:   message.ID.String(),
		Prize:       prize,
		WinnerCount: winnerCount,
		HostId:      hostID.String(),
		Status:      db.GiveawayRunning,
		EndAt:       endAt.Format(time.RFC3339),
	}
	if err = e.store.SaveGiveaway(giveaway); err != nil {
		return db.Giveaway{}, fmt.Errorf("failed to persist giveaway %s: %w", id, err)
	}

	e.schedule(id, endAt)

	if e.audit != nil {
		e.audit.LogEvent(guildID, "Giveaway created",
			fmt.Sprintf("Giveaway %s for %q by <@%s>, %d winner(s), ends %s.", id, prize, hostID, winnerCount, endAt.Format(time.RFC3339)))
	}
	return giveaway, nil
}

// ToggleEntry flips the user's participation while the giveaway runs.
func (e *Engine) ToggleEntry(id string, userID snowflake.ID) (EntryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	giveaway, ok, err := e.store.FindGiveaway(id)
	if err != nil {
		return EntryNotFound, err
	}
	if !ok {
		return EntryNotFound, nil
	}
	if giveaway.Status != db.GiveawayRunning {
		return EntryClosed, nil
	}

	result := EntryJoined
	user := userID.String()
	index := -1
	for i, participant := range giveaway.Participants {
		if participant == user {
			index = i
			break
		}
	}
	if index == -1 {
		giveaway.Participants = append(giveaway.Participants, user)
	} else {
		giveaway.Participants = append(giveaway.Participants[:index], giveaway.Participants[index+1:]...)
		result = EntryLeft
	}

	if err = e.store.SaveGiveaway(giveaway); err != nil {
		return EntryNotFound, err
	}
	return result, nil
}

// End flips running→ended, selects winners and updates the announcement.
// Safe to call from both the timer and the command path; the second caller
// sees the persisted ended status and backs off.
func (e *Engine) End(id string) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	giveaway, ok, err := e.store.FindGiveaway(id)
	if err != nil {
		return Outcome{}, err
	}
	if !ok || giveaway.Status != db.GiveawayRunning {
		return Outcome{OK: false}, nil
	}

	e.timers.Cancel(id)

	giveaway.Status = db.GiveawayEnded
	if err = e.store.SaveGiveaway(giveaway); err != nil {
		return Outcome{}, fmt.Errorf("failed to mark giveaway %s ended: %w", id, err)
	}

	winners := pickWinners(giveaway.Participants, giveaway.WinnerCount)

	e.editAnnouncement(giveaway, "Winners", winners)

	if len(winners) > 0 {
		channelID := snowflake.MustParse(giveaway.ChannelId)
		_, err = e.messenger.CreateMessage(channelID, discord.NewMessageCreateBuilder().
			SetContent(fmt.Sprintf("Congratulations %s!", mentionList(winners))).
			Build())
		if err != nil {
			dlog.Log.Error("Failed to send giveaway congratulations", "id", id, "err", err)
		}
	}

	e.appendHistory(giveaway, winners, db.HistoryActionEnd)

	if e.audit != nil {
		e.audit.LogEvent(snowflake.MustParse(giveaway.GuildId), "Giveaway ended",
			fmt.Sprintf("Giveaway %s ended with %d participant(s), winners: %s.", id, len(giveaway.Participants), winnersText(winners)))
	}
	return Outcome{OK: true, Winners: winners}, nil
}

// Reroll redraws winners of an already ended giveaway. The status stays
// ended, the announcement gains a reroll field.
func (e *Engine) Reroll(id string) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	giveaway, ok, err := e.store.FindGiveaway(id)
	if err != nil {
		return Outcome{}, err
	}
	if !ok || giveaway.Status != db.GiveawayEnded {
		return Outcome{OK: false}, nil
	}

	winners := pickWinners(giveaway.Participants, giveaway.WinnerCount)

	e.editAnnouncement(giveaway, "New winners (reroll)", winners)
	e.appendHistory(giveaway, winners, db.HistoryActionReroll)

	if e.audit != nil {
		e.audit.LogEvent(snowflake.MustParse(giveaway.GuildId), "Giveaway rerolled",
			fmt.Sprintf("Giveaway %s rerolled, new winners: %s.", id, winnersText(winners)))
	}
	return Outcome{OK: true, Winners: winners}, nil
}

// Resume rehydrates timers from persisted state after a restart. Past-due
// giveaways end immediately, before any new command is processed.
func (e *Engine) Resume() error {
	running, err := e.store.RunningGiveaways()
	if err != nil {
		return err
	}

	for _, giveaway := range running {
		endAt, err := time.Parse(time.RFC3339, giveaway.EndAt)
		if err != nil || !endAt.After(e.now()) {
			if _, err = e.End(giveaway.Id); err != nil {
				dlog.Log.Error("Failed to end overdue giveaway", "id", giveaway.Id, "err", err)
			}
			continue
		}
		e.schedule(giveaway.Id, endAt)
	}
	dlog.Log.Info("Resumed running giveaways", "count", len(running))
	return nil
}

func (e *Engine) schedule(id string, endAt time.Time) {
	e.timers.Schedule(id, endAt, func() {
		if _, err := e.End(id); err != nil {
			dlog.Log.Error("Timer-driven giveaway end failed", "id", id, "err", err)
		}
	})
}

// editAnnouncement strips the join button and shows the draw result. The
// message can be gone; that only costs the visible update.
func (e *Engine) editAnnouncement(giveaway db.Giveaway, fieldName string, winners []string) {
	endAt, _ := time.Parse(time.RFC3339, giveaway.EndAt)
	embed := discord.NewEmbedBuilder().
		SetTitle("🎉 Giveaway").
		SetDescription(giveaway.Prize).
		AddField("Host", "<@"+giveaway.HostId+">", true).
		AddField("Winner count", fmt.Sprintf("%d", giveaway.WinnerCount), true).
		AddField("Ended", fmt.Sprintf("<t:%d:R>", endAt.Unix()), true).
		AddField(fieldName, winnersText(winners), false).
		SetTimestamp(e.now()).
		Build()

	channelID := snowflake.MustParse(giveaway.ChannelId)
	messageID := snowflake.MustParse(giveaway.MessageId)
	_, err := e.messenger.UpdateMessage(channelID, messageID, discord.NewMessageUpdateBuilder().
		SetEmbeds(embed).
		ClearContainerComponents().
		Build())
	if err != nil {
		dlog.Log.Error("Failed to update giveaway announcement", "id", giveaway.Id, "err", err)
	}
}

// history rows are nice to have, a failed write never fails the draw
func (e *Engine) appendHistory(giveaway db.Giveaway, winners []string, action string) {
	err := e.store.AppendHistory(db.GiveawayHistory{
		GiveawayId:   giveaway.Id,
		GuildId:      giveaway.GuildId,
		ChannelId:    giveaway.ChannelId,
		MessageId:    giveaway.MessageId,
		Prize:        giveaway.Prize,
		WinnerCount:  giveaway.WinnerCount,
		Winners:      winners,
		Participants: len(giveaway.Participants),
		EndedAt:      e.now().Format(time.RFC3339),
		Action:       action,
	})
	if err != nil {
		dlog.Log.Error("Failed to append giveaway history", "id", giveaway.Id, "action", action, "err", err)
	}
}

func winnersText(winners []string) string {
	if len(winners) == 0 {
		return noWinnersText
	}
	return mentionList(winners)
}

func mentionList(ids []string) string {
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@" + id + ">"
	}
	return strings.Join(mentions, ", ")
}

func announcementEmbed(prize, hostID string, winnerCount int, endAt time.Time) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle("🎉 Giveaway").
		SetDescription(prize).
		AddField("Host", "<@"+hostID+">", true).
		AddField("Winner count", fmt.Sprintf("%d", winnerCount), true).
		AddField("Ends", fmt.Sprintf("<t:%d:R>", endAt.Unix()), true).
		SetTimestamp(time.Now()).
		Build()
}
