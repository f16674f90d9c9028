package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for conversation data operations
type ConversationRepository interface {
	// FindOrCreateDirect returns the single direct conversation of the pair, creating it on first use.
	FindOrCreateDirect(ctx context.Context, a, b uint) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByParticipant(ctx context.Context, userID uint) ([]models.Conversation, error)
	ListIDsByParticipant(ctx context.Context, userID uint) ([]primitive.ObjectID, error)
	// RecordMessage stores the preview and adds one unread message for every recipient.
	RecordMessage(ctx context.Context, id primitive.ObjectID, last models.LastMessage, recipients []uint) (*models.Conversation, error)
	ResetUnread(ctx context.Context, id primitive.ObjectID, userID uint) (*models.Conversation, error)
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	collection *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{collection: db.Collection(ConversationsCollection)}
}

func (r *MongoConversationRepository) FindOrCreateDirect(ctx context.Context, a, b uint) (*models.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"pair_key": models.DirectPairKey(a, b)}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": []uint{a, b},
			"unread_count": bson.M{},
			"created_at":   now,
			"updated_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv models.Conversation
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert won the race; the document exists now
		err = r.collection.FindOne(ctx, filter).Decode(&conv)
	}
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	return &conv, nil
}

func (r *MongoConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	var conv models.Conversation
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListByParticipant returns the user's conversations, most recently updated first
func (r *MongoConversationRepository) ListByParticipant(ctx context.Context, userID uint) ([]models.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	convs := []models.Conversation{}
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *MongoConversationRepository) ListIDsByParticipant(ctx context.Context, userID uint) ([]primitive.ObjectID, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (r *MongoConversationRepository) RecordMessage(ctx context.Context, id primitive.ObjectID, last models.LastMessage, recipients []uint) (*models.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"last_message": last,
			"updated_at":   last.SentAt,
		},
	}
	if len(recipients) > 0 {
		inc := bson.M{}
		for _, uid := range recipients {
			inc["unread_count."+models.UserKey(uid)] = 1
		}
		update["$inc"] = inc
	}
	return r.updateOne(ctx, id, update)
}

func (r *MongoConversationRepository) ResetUnread(ctx context.Context, id primitive.ObjectID, userID uint) (*models.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"unread_count." + models.UserKey(userID): 0}}
	return r.updateOne(ctx, id, update)
}

func (r *MongoConversationRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Conversation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var conv models.Conversation
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}
