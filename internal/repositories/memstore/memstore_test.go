package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFindOrCreateDirectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository()

	first, err := repo.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)
	again, err := repo.FindOrCreateDirect(ctx, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.ElementsMatch(t, []uint{1, 2}, first.Participants)
	assert.Empty(t, first.UnreadCount)

	other, err := repo.FindOrCreateDirect(ctx, 1, 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestRecordMessageIncrementsRecipientsOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository()
	conv, err := repo.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	sentAt := time.Now().UTC()
	updated, err := repo.RecordMessage(ctx, conv.ID, models.LastMessage{Content: "hi", SenderID: 1, SentAt: sentAt}, []uint{2})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.UnreadFor(2))
	assert.Equal(t, 0, updated.UnreadFor(1))
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "hi", updated.LastMessage.Content)
	assert.True(t, updated.UpdatedAt.Equal(sentAt))
	for key := range updated.UnreadCount {
		assert.Contains(t, []string{"1", "2"}, key)
	}

	reset, err := repo.ResetUnread(ctx, conv.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, reset.UnreadFor(2))
}

func TestConversationLookupErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository()

	_, err := repo.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, repositories.ErrInvalidID)

	_, err = repo.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestListByParticipantNewestUpdatedFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository()
	older, _ := repo.FindOrCreateDirect(ctx, 1, 2)
	newer, _ := repo.FindOrCreateDirect(ctx, 1, 3)
	_, _ = repo.FindOrCreateDirect(ctx, 2, 3)

	_, err := repo.RecordMessage(ctx, older.ID, models.LastMessage{Content: "late", SenderID: 2, SentAt: time.Now().Add(time.Minute)}, []uint{1})
	require.NoError(t, err)

	convs, err := repo.ListByParticipant(ctx, 1)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, older.ID, convs[0].ID)
	assert.Equal(t, newer.ID, convs[1].ID)
}

func TestListByConversationPagesChronologically(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository()
	convID := primitive.NewObjectID()
	base := time.Now().UTC()

	for i := 0; i < 25; i++ {
		msg := &models.Message{ConversationID: convID, SenderID: 1, Content: fmt.Sprintf("m%02d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.CreateMessage(ctx, msg))
	}
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{ConversationID: primitive.NewObjectID(), SenderID: 1, Content: "elsewhere"}))

	first, total, err := repo.ListByConversation(ctx, convID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, first, 20)
	assert.Equal(t, "m05", first[0].Content)
	assert.Equal(t, "m24", first[19].Content)

	again, _, err := repo.ListByConversation(ctx, convID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	second, _, err := repo.ListByConversation(ctx, convID, 2, 20)
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, "m00", second[0].Content)
}

func TestCreateMessageRequiresContentOrAttachment(t *testing.T) {
	repo := NewMessageRepository()
	err := repo.CreateMessage(context.Background(), &models.Message{ConversationID: primitive.NewObjectID(), SenderID: 1, Content: "   "})
	assert.ErrorIs(t, err, models.ErrEmptyMessage)

	err = repo.CreateMessage(context.Background(), &models.Message{ConversationID: primitive.NewObjectID(), SenderID: 1, AttachmentURL: "https://cdn.example.com/cv.pdf"})
	assert.NoError(t, err)
}

func TestMarkConversationReadSkipsOwnMessages(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository()
	convID := primitive.NewObjectID()
	otherConv := primitive.NewObjectID()

	require.NoError(t, repo.CreateMessage(ctx, &models.Message{ConversationID: convID, SenderID: 1, Content: "from 1"}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{ConversationID: convID, SenderID: 2, Content: "from 2"}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{ConversationID: otherConv, SenderID: 3, Content: "from 3"}))

	unread, err := repo.CountUnreadFromOthers(ctx, 2, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	scoped, err := repo.CountUnreadFromOthers(ctx, 2, []primitive.ObjectID{convID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, scoped)

	none, err := repo.CountUnreadFromOthers(ctx, 2, []primitive.ObjectID{})
	require.NoError(t, err)
	assert.Zero(t, none)

	n, err := repo.MarkConversationRead(ctx, convID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for _, m := range repo.ByConversation(convID) {
		if m.SenderID == 2 {
			assert.False(t, m.IsRead)
		} else {
			assert.True(t, m.IsRead)
		}
	}
}

func TestNotificationLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()

	err := repo.CreateNotification(ctx, &models.Notification{RecipientID: 2, ActorID: 1, Type: "wave"})
	assert.ErrorIs(t, err, repositories.ErrInvalidNotificationType)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{RecipientID: 2, ActorID: 1, Type: models.NotificationMessage, Content: fmt.Sprintf("n%d", i)}))
	}
	require.NoError(t, repo.CreateNotification(ctx, &models.Notification{RecipientID: 3, ActorID: 1, Type: models.NotificationSystem}))

	list, total, err := repo.ListByRecipient(ctx, 2, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].Content)

	read, err := repo.MarkAsRead(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := repo.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	n, err := repo.MarkAllAsRead(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, _ = repo.CountUnread(ctx, 3)
	assert.EqualValues(t, 1, count)
}

func TestUserAndConnectionRepositories(t *testing.T) {
	ctx := context.Background()
	store := New()

	alice := &models.User{Name: "Alice", Email: "alice@example.com"}
	bob := &models.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, store.Users.CreateUser(ctx, alice))
	require.NoError(t, store.Users.CreateUser(ctx, bob))
	assert.ErrorIs(t, store.Users.CreateUser(ctx, &models.User{Email: "alice@example.com"}), repositories.ErrConflict)
	assert.True(t, alice.IsActive)
	assert.Equal(t, models.RoleStudent, alice.Role)

	req := &models.ConnectionRequest{SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, store.Connections.CreateRequest(ctx, req))
	assert.ErrorIs(t, store.Connections.CreateRequest(ctx, &models.ConnectionRequest{SenderID: bob.ID, ReceiverID: alice.ID}), repositories.ErrConflict)

	pending, err := store.Connections.ListPendingForReceiver(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.Connections.UpdateRequestStatus(ctx, req.ID, models.ConnectionAccepted))
	conns, err := store.Connections.ListConnections(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "Alice", conns[0].Name)

	require.NoError(t, store.Users.SetActive(ctx, alice.ID, false))
	found, err := store.Users.SearchUsers(ctx, "ali")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestPageBounds(t *testing.T) {
	start, end := page(25, 2, 20)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = page(25, 3, 20)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	start, end = page(25, int(^uint(0)>>1), 20)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}
