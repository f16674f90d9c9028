package repositories

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockDB(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func namespace(collection string) string {
	return mtest.TestDb + "." + collection
}

func toDoc(t testing.TB, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

// sent returns the next command the repository issued, checking its name.
func sent(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt, "expected a %s command", name)
	require.Equal(mt, name, evt.CommandName)
	return evt.Command
}

func values(t testing.TB, raw bson.Raw) []bson.RawValue {
	t.Helper()
	vals, err := raw.Values()
	require.NoError(t, err)
	return vals
}

func countResponse(collection string, n int64) bson.D {
	return mtest.CreateCursorResponse(0, namespace(collection), mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: n}})
}

func TestMongoFindOrCreateDirect(t *testing.T) {
	mt := newMockDB(t)

	mt.Run("upserts on the pair key", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		stored := models.Conversation{ID: primitive.NewObjectID(), Participants: []uint{3, 7}, PairKey: "3:7", UnreadCount: map[string]int{}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, stored)}))

		conv, err := repo.FindOrCreateDirect(context.Background(), 7, 3)
		require.NoError(mt, err)
		assert.Equal(mt, stored.ID, conv.ID)

		cmd := sent(mt, "findAndModify")
		assert.Equal(mt, ConversationsCollection, cmd.Lookup("findAndModify").StringValue())
		assert.Equal(mt, "3:7", cmd.Lookup("query", "pair_key").StringValue())
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.True(mt, cmd.Lookup("new").Boolean())

		participants := values(mt, cmd.Lookup("update", "$setOnInsert", "participants").Array())
		require.Len(mt, participants, 2)
		assert.Equal(mt, int64(7), participants[0].AsInt64())
		assert.Equal(mt, int64(3), participants[1].AsInt64())
	})

	mt.Run("rereads after losing the upsert race", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		winner := models.Conversation{ID: primitive.NewObjectID(), Participants: []uint{1, 2}, PairKey: "1:2", UnreadCount: map[string]int{}}
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(0, namespace(ConversationsCollection), mtest.FirstBatch, toDoc(mt, winner)),
		)

		conv, err := repo.FindOrCreateDirect(context.Background(), 1, 2)
		require.NoError(mt, err)
		assert.Equal(mt, winner.ID, conv.ID)

		sent(mt, "findAndModify")
		find := sent(mt, "find")
		assert.Equal(mt, "1:2", find.Lookup("filter", "pair_key").StringValue())
	})

	mt.Run("surfaces other write errors", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad"}))

		_, err := repo.FindOrCreateDirect(context.Background(), 1, 2)
		assert.Error(mt, err)
	})
}

func TestMongoConversationLookups(t *testing.T) {
	mt := newMockDB(t)

	mt.Run("get by id maps a missing document", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(ConversationsCollection), mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)

		_, err = repo.GetByID(context.Background(), "not-hex")
		assert.ErrorIs(mt, err, ErrInvalidID)
	})

	mt.Run("lists by participant newest first", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		a := models.Conversation{ID: primitive.NewObjectID(), Participants: []uint{4, 5}}
		b := models.Conversation{ID: primitive.NewObjectID(), Participants: []uint{4, 6}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(ConversationsCollection), mtest.FirstBatch, toDoc(mt, a), toDoc(mt, b)))

		convs, err := repo.ListByParticipant(context.Background(), 4)
		require.NoError(mt, err)
		require.Len(mt, convs, 2)
		assert.Equal(mt, a.ID, convs[0].ID)

		cmd := sent(mt, "find")
		assert.Equal(mt, int64(4), cmd.Lookup("filter", "participants").AsInt64())
		assert.Equal(mt, int64(-1), cmd.Lookup("sort", "updated_at").AsInt64())
	})
}

func TestMongoRecordMessageIncrementsRecipientsOnly(t *testing.T) {
	mt := newMockDB(t)

	mt.Run("increments", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		id := primitive.NewObjectID()
		updated := models.Conversation{ID: id, Participants: []uint{1, 2, 3}, UnreadCount: map[string]int{"2": 1, "3": 1}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, updated)}))

		last := models.LastMessage{Content: "hello", SenderID: 1, SentAt: time.Now().UTC()}
		conv, err := repo.RecordMessage(context.Background(), id, last, []uint{2, 3})
		require.NoError(mt, err)
		assert.Equal(mt, 1, conv.UnreadFor(2))

		cmd := sent(mt, "findAndModify")
		assert.Equal(mt, id, cmd.Lookup("query", "_id").ObjectID())
		assert.Equal(mt, "hello", cmd.Lookup("update", "$set", "last_message", "content").StringValue())

		inc := cmd.Lookup("update", "$inc").Document()
		assert.Equal(mt, int64(1), inc.Lookup("unread_count.2").AsInt64())
		assert.Equal(mt, int64(1), inc.Lookup("unread_count.3").AsInt64())
		_, err = inc.LookupErr("unread_count.1")
		assert.Error(mt, err, "the sender's counter is untouched")
	})

	mt.Run("no recipients skips the increment", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, models.Conversation{ID: id})}))

		_, err := repo.RecordMessage(context.Background(), id, models.LastMessage{Content: "note"}, nil)
		require.NoError(mt, err)

		cmd := sent(mt, "findAndModify")
		_, err = cmd.LookupErr("update", "$inc")
		assert.Error(mt, err)
	})

	mt.Run("reset zeroes one counter", func(mt *mtest.T) {
		repo := NewMongoConversationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ResetUnread(context.Background(), id, 9)
		assert.ErrorIs(mt, err, ErrNotFound)

		cmd := sent(mt, "findAndModify")
		assert.Equal(mt, int64(0), cmd.Lookup("update", "$set", "unread_count.9").AsInt64())
	})
}

func TestMongoListMessagesIsChronological(t *testing.T) {
	mt := newMockDB(t)

	mt.Run("reverses the newest-first page", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		convID := primitive.NewObjectID()
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		newest := models.Message{ID: primitive.NewObjectID(), ConversationID: convID, SenderID: 1, Content: "third", CreatedAt: base.Add(2 * time.Minute)}
		middle := models.Message{ID: primitive.NewObjectID(), ConversationID: convID, SenderID: 2, Content: "second", CreatedAt: base.Add(time.Minute)}
		mt.AddMockResponses(
			countResponse(MessagesCollection, 3),
			mtest.CreateCursorResponse(0, namespace(MessagesCollection), mtest.FirstBatch, toDoc(mt, newest), toDoc(mt, middle)),
		)

		msgs, total, err := repo.ListByConversation(context.Background(), convID, 1, 2)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), total)
		require.Len(mt, msgs, 2)
		assert.Equal(mt, "second", msgs[0].Content)
		assert.Equal(mt, "third", msgs[1].Content)

		count := sent(mt, "aggregate")
		stages := values(mt, count.Lookup("pipeline").Array())
		require.NotEmpty(mt, stages)
		assert.Equal(mt, convID, stages[0].Document().Lookup("$match", "conversation_id").ObjectID())

		find := sent(mt, "find")
		assert.Equal(mt, convID, find.Lookup("filter", "conversation_id").ObjectID())
		sort := values(mt, find.Lookup("sort").Document())
		require.Len(mt, sort, 2)
		keys, err := find.Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		assert.Equal(mt, "created_at", keys[0].Key())
		assert.Equal(mt, int64(-1), sort[0].AsInt64())
		assert.Equal(mt, int64(2), find.Lookup("limit").AsInt64())
	})

	mt.Run("later pages skip whole pages", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		mt.AddMockResponses(
			countResponse(MessagesCollection, 0),
			mtest.CreateCursorResponse(0, namespace(MessagesCollection), mtest.FirstBatch),
		)

		msgs, _, err := repo.ListByConversation(context.Background(), primitive.NewObjectID(), 3, 20)
		require.NoError(mt, err)
		assert.Empty(mt, msgs)

		sent(mt, "aggregate")
		find := sent(mt, "find")
		assert.Equal(mt, int64(40), find.Lookup("skip").AsInt64())
	})
}

func TestMongoUnreadFiltersExcludeOwnMessages(t *testing.T) {
	mt := newMockDB(t)

	mt.Run("mark conversation read", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		convID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}))

		n, err := repo.MarkConversationRead(context.Background(), convID, 5)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)

		cmd := sent(mt, "update")
		updates := values(mt, cmd.Lookup("updates").Array())
		require.Len(mt, updates, 1)
		stmt := updates[0].Document()
		assert.True(mt, stmt.Lookup("multi").Boolean())
		assert.Equal(mt, convID, stmt.Lookup("q", "conversation_id").ObjectID())
		assert.Equal(mt, int64(5), stmt.Lookup("q", "sender", "$ne").AsInt64())
		assert.False(mt, stmt.Lookup("q", "is_read").Boolean())
		assert.True(mt, stmt.Lookup("u", "$set", "is_read").Boolean())
	})

	mt.Run("global count", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		mt.AddMockResponses(countResponse(MessagesCollection, 4))

		n, err := repo.CountUnreadFromOthers(context.Background(), 5, nil)
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), n)

		cmd := sent(mt, "aggregate")
		match := values(mt, cmd.Lookup("pipeline").Array())[0].Document().Lookup("$match").Document()
		assert.Equal(mt, int64(5), match.Lookup("sender", "$ne").AsInt64())
		assert.False(mt, match.Lookup("is_read").Boolean())
		_, err = match.LookupErr("conversation_id")
		assert.Error(mt, err, "global scope does not filter by conversation")
	})

	mt.Run("participant count", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		within := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
		mt.AddMockResponses(countResponse(MessagesCollection, 1))

		n, err := repo.CountUnreadFromOthers(context.Background(), 5, within)
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)

		cmd := sent(mt, "aggregate")
		match := values(mt, cmd.Lookup("pipeline").Array())[0].Document().Lookup("$match").Document()
		in := values(mt, match.Lookup("conversation_id", "$in").Array())
		require.Len(mt, in, 2)
		assert.Equal(mt, within[0], in[0].ObjectID())
	})

	mt.Run("empty participant scope skips the query", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)

		n, err := repo.CountUnreadFromOthers(context.Background(), 5, []primitive.ObjectID{})
		require.NoError(mt, err)
		assert.Zero(mt, n)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("blank messages are rejected before the write", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)

		err := repo.CreateMessage(context.Background(), &models.Message{ConversationID: primitive.NewObjectID(), Content: "  "})
		assert.True(mt, errors.Is(err, models.ErrEmptyMessage))
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestMongoNotifications(t *testing.T) {
	mt := newMockDB(t)

	mt.Run("create validates the type and resets state", func(mt *mtest.T) {
		repo := NewMongoNotificationRepository(mt.DB)

		err := repo.CreateNotification(context.Background(), &models.Notification{RecipientID: 1, Type: "poke"})
		assert.ErrorIs(mt, err, ErrInvalidNotificationType)
		assert.Nil(mt, mt.GetStartedEvent())

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		n := &models.Notification{RecipientID: 1, ActorID: 2, Type: models.NotificationMessage, Content: "hi", IsRead: true}
		require.NoError(mt, repo.CreateNotification(context.Background(), n))
		assert.False(mt, n.ID.IsZero())
		assert.False(mt, n.IsRead)

		cmd := sent(mt, "insert")
		docs := values(mt, cmd.Lookup("documents").Array())
		require.Len(mt, docs, 1)
		assert.Equal(mt, int64(1), docs[0].Document().Lookup("recipient").AsInt64())
		assert.Equal(mt, "message", docs[0].Document().Lookup("type").StringValue())
		assert.False(mt, docs[0].Document().Lookup("is_read").Boolean())
	})

	mt.Run("list is newest first per recipient", func(mt *mtest.T) {
		repo := NewMongoNotificationRepository(mt.DB)
		first := models.Notification{ID: primitive.NewObjectID(), RecipientID: 8, Type: models.NotificationSystem}
		mt.AddMockResponses(
			countResponse(NotificationsCollection, 1),
			mtest.CreateCursorResponse(0, namespace(NotificationsCollection), mtest.FirstBatch, toDoc(mt, first)),
		)

		list, total, err := repo.ListByRecipient(context.Background(), 8, 1, 10)
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), total)
		require.Len(mt, list, 1)

		sent(mt, "aggregate")
		find := sent(mt, "find")
		assert.Equal(mt, int64(8), find.Lookup("filter", "recipient").AsInt64())
		assert.Equal(mt, int64(-1), find.Lookup("sort", "created_at").AsInt64())
	})

	mt.Run("count unread", func(mt *mtest.T) {
		repo := NewMongoNotificationRepository(mt.DB)
		mt.AddMockResponses(countResponse(NotificationsCollection, 3))

		n, err := repo.CountUnread(context.Background(), 8)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)

		cmd := sent(mt, "aggregate")
		match := values(mt, cmd.Lookup("pipeline").Array())[0].Document().Lookup("$match").Document()
		assert.Equal(mt, int64(8), match.Lookup("recipient").AsInt64())
		assert.False(mt, match.Lookup("is_read").Boolean())
	})

	mt.Run("mark one and mark all", func(mt *mtest.T) {
		repo := NewMongoNotificationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, models.Notification{ID: id, RecipientID: 8, IsRead: true})}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}, bson.E{Key: "nModified", Value: 4}),
		)

		n, err := repo.MarkAsRead(context.Background(), id)
		require.NoError(mt, err)
		assert.True(mt, n.IsRead)
		one := sent(mt, "findAndModify")
		assert.Equal(mt, id, one.Lookup("query", "_id").ObjectID())
		assert.True(mt, one.Lookup("update", "$set", "is_read").Boolean())

		updated, err := repo.MarkAllAsRead(context.Background(), 8)
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), updated)
		all := values(mt, sent(mt, "update").Lookup("updates").Array())[0].Document()
		assert.Equal(mt, int64(8), all.Lookup("q", "recipient").AsInt64())
		assert.False(mt, all.Lookup("q", "is_read").Boolean())
	})
}

func TestPageBoundsDoesNotOverflow(t *testing.T) {
	skip, limit := pageBounds(0, 0)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(20), limit)

	skip, limit = pageBounds(3, 15)
	assert.Equal(t, int64(30), skip)
	assert.Equal(t, int64(15), limit)

	skip, _ = pageBounds(math.MaxInt, 50)
	assert.Equal(t, int64(math.MaxInt64), skip)
}
