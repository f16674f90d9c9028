package repositories

import (
	"context"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	// ListByConversation returns one page in chronological order plus the conversation total.
	ListByConversation(ctx context.Context, conversationID primitive.ObjectID, page, limit int) ([]models.Message, int64, error)
	// MarkConversationRead flags every message in the conversation not sent by userID as read.
	MarkConversationRead(ctx context.Context, conversationID primitive.ObjectID, userID uint) (int64, error)
	// CountUnreadFromOthers counts unread messages not sent by userID. A nil within counts across
	// every conversation; otherwise only the listed conversations are considered.
	CountUnreadFromOthers(ctx context.Context, userID uint, within []primitive.ObjectID) (int64, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection(MessagesCollection)}
}

func (r *MongoMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg.ID = primitive.NewObjectID()
	msg.IsRead = false
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

func (r *MongoMessageRepository) ListByConversation(ctx context.Context, conversationID primitive.ObjectID, page, limit int) ([]models.Message, int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := bson.M{"conversation_id": conversationID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip, lim := pageBounds(page, limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(lim)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	reverseMessages(msgs)
	return msgs, total, nil
}

func (r *MongoMessageRepository) MarkConversationRead(ctx context.Context, conversationID primitive.ObjectID, userID uint) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := bson.M{
		"conversation_id": conversationID,
		"sender":          bson.M{"$ne": userID},
		"is_read":         false,
	}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoMessageRepository) CountUnreadFromOthers(ctx context.Context, userID uint, within []primitive.ObjectID) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := bson.M{
		"sender":  bson.M{"$ne": userID},
		"is_read": false,
	}
	if within != nil {
		if len(within) == 0 {
			return 0, nil
		}
		filter["conversation_id"] = bson.M{"$in": within}
	}
	return r.collection.CountDocuments(ctx, filter)
}

func reverseMessages(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
