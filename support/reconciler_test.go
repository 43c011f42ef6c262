package support

import (
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildID      = snowflake.ID(10)
	queueChannel = snowflake.ID(100)
	agentChannel = snowflake.ID(200)
)

type move struct {
	userID    snowflake.ID
	channelID snowflake.ID
}

type fakeVoice struct {
	liveChannels map[snowflake.ID]snowflake.ID
	moves        []move
	dms          []snowflake.ID
	dmErr        error
	moveErr      error
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{liveChannels: make(map[snowflake.ID]snowflake.ID)}
}

func (v *fakeVoice) LiveVoiceChannel(guild, userID snowflake.ID) (snowflake.ID, bool) {
	channelID, ok := v.liveChannels[userID]
	return channelID, ok
}

func (v *fakeVoice) MoveMember(guild, userID, channelID snowflake.ID) error {
	if v.moveErr != nil {
		return v.moveErr
	}
	v.moves = append(v.moves, move{userID: userID, channelID: channelID})
	v.liveChannels[userID] = channelID
	return nil
}

func (v *fakeVoice) SendDM(userID snowflake.ID, content string) error {
	if v.dmErr != nil {
		return v.dmErr
	}
	v.dms = append(v.dms, userID)
	return nil
}

type auditEvent struct {
	title       string
	description string
}

type fakeAudit struct {
	events []auditEvent
}

func (a *fakeAudit) LogEvent(guild snowflake.ID, title, description string) {
	a.events = append(a.events, auditEvent{title: title, description: description})
}

func newTestReconciler() (*Reconciler, *queue.Store, *fakeVoice, *fakeAudit) {
	store := queue.NewStore()
	voice := newFakeVoice()
	audit := &fakeAudit{}
	reconciler := NewReconciler(store, nil, voice, audit, Config{
		QueueChannelID:  queueChannel,
		AgentChannelIDs: []snowflake.ID{agentChannel},
	})
	return reconciler, store, voice, audit
}

func id(v snowflake.ID) *snowflake.ID { return &v }

func enterQueue(r *Reconciler, voice *fakeVoice, userID snowflake.ID) {
	voice.liveChannels[userID] = queueChannel
	r.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       userID,
		NewChannelID: id(queueChannel),
	})
}

func TestEnteringQueueChannelEnqueues(t *testing.T) {
	reconciler, store, voice, audit := newTestReconciler()

	enterQueue(reconciler, voice, 1)

	snapshot := store.Snapshot(guildID)
	require.Len(t, snapshot, 1)
	assert.Equal(t, snowflake.ID(1), snapshot[0].UserID)
	assert.Equal(t, []snowflake.ID{1}, voice.dms)
	require.Len(t, audit.events, 1)
	assert.Equal(t, "Support queue", audit.events[0].title)
}

func TestDMFailureIsSwallowed(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	voice.dmErr = errors.New("dms closed")

	enterQueue(reconciler, voice, 1)

	assert.Len(t, store.Snapshot(guildID), 1)
}

func TestMovingWithinQueueChannelDoesNotReAdd(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       1,
		OldChannelID: id(queueChannel),
		NewChannelID: id(queueChannel),
	})

	assert.Len(t, store.Snapshot(guildID), 1)
	assert.Len(t, voice.dms, 1)
}

func TestLeavingQueueChannelDequeues(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       1,
		OldChannelID: id(queueChannel),
	})

	assert.Empty(t, store.Snapshot(guildID))
}

func TestAgentJoinMatchesHeadOfQueue(t *testing.T) {
	reconciler, store, voice, audit := newTestReconciler()
	enterQueue(reconciler, voice, 1)
	enterQueue(reconciler, voice, 2)
	enterQueue(reconciler, voice, 3)

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       99,
		NewChannelID: id(agentChannel),
	})

	require.Len(t, voice.moves, 1)
	assert.Equal(t, move{userID: 1, channelID: agentChannel}, voice.moves[0])

	snapshot := store.Snapshot(guildID)
	require.Len(t, snapshot, 2)
	assert.Equal(t, snowflake.ID(2), snapshot[0].UserID)
	assert.Equal(t, snowflake.ID(3), snapshot[1].UserID)

	matched := false
	for _, event := range audit.events {
		if event.title == "Support queue match" {
			matched = true
		}
	}
	assert.True(t, matched)
}

func TestStaleTicketIsDroppedNotRetried(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)
	enterQueue(reconciler, voice, 2)
	enterQueue(reconciler, voice, 3)

	// head disconnected between enqueue and match
	delete(voice.liveChannels, 1)

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       99,
		NewChannelID: id(agentChannel),
	})

	assert.Empty(t, voice.moves)
	snapshot := store.Snapshot(guildID)
	require.Len(t, snapshot, 2)
	assert.Equal(t, snowflake.ID(2), snapshot[0].UserID)
}

func TestBotNeverTriggersMatching(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       500,
		NewChannelID: id(agentChannel),
		IsBot:        true,
	})

	assert.Empty(t, voice.moves)
	assert.Len(t, store.Snapshot(guildID), 1)
}

func TestAgentJoinWithEmptyQueue(t *testing.T) {
	reconciler, _, voice, _ := newTestReconciler()

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       99,
		NewChannelID: id(agentChannel),
	})

	assert.Empty(t, voice.moves)
}

func TestMoveFailureStillConsumesTicket(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)
	voice.moveErr = errors.New("missing permissions")

	reconciler.HandleTransition(VoiceTransition{
		GuildID:      guildID,
		UserID:       99,
		NewChannelID: id(agentChannel),
	})

	assert.Empty(t, store.Snapshot(guildID))
}

func TestSkipDropsHead(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)
	enterQueue(reconciler, voice, 2)

	entry, ok := reconciler.Skip(guildID)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(1), entry.UserID)
	assert.Len(t, store.Snapshot(guildID), 1)

	_, ok = reconciler.Skip(guildID)
	_, ok = reconciler.Skip(guildID)
	assert.False(t, ok)
}

func TestClearEmptiesQueue(t *testing.T) {
	reconciler, store, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)
	enterQueue(reconciler, voice, 2)

	reconciler.Clear(guildID)
	assert.Empty(t, store.Snapshot(guildID))
}

func TestStatusEmbedListsWaitingUsers(t *testing.T) {
	reconciler, _, voice, _ := newTestReconciler()
	enterQueue(reconciler, voice, 1)
	enterQueue(reconciler, voice, 2)

	embed := reconciler.StatusEmbed(guildID)
	assert.Contains(t, embed.Description, "<@1>")
	assert.Contains(t, embed.Description, "<@2>")
}

func TestStatusEmbedEmptyQueue(t *testing.T) {
	reconciler, _, _, _ := newTestReconciler()
	embed := reconciler.StatusEmbed(guildID)
	assert.Contains(t, embed.Description, "Nobody is waiting")
}
