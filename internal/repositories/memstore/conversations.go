package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationRepository struct {
	mu    sync.RWMutex
	convs map[primitive.ObjectID]*models.Conversation
	pairs map[string]primitive.ObjectID
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		convs: make(map[primitive.ObjectID]*models.Conversation),
		pairs: make(map[string]primitive.ObjectID),
	}
}

func (r *ConversationRepository) FindOrCreateDirect(_ context.Context, a, b uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.DirectPairKey(a, b)
	if id, ok := r.pairs[key]; ok {
		return cloneConversation(r.convs[id]), nil
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: []uint{a, b},
		PairKey:      key,
		UnreadCount:  map[string]int{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.convs[conv.ID] = conv
	r.pairs[key] = conv.ID
	return cloneConversation(conv), nil
}

// Insert stores a prebuilt conversation, e.g. a group thread seeded by tests.
func (r *ConversationRepository) Insert(conv *models.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv.ID.IsZero() {
		conv.ID = primitive.NewObjectID()
	}
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int{}
	}
	r.convs[conv.ID] = cloneConversation(conv)
	if conv.PairKey != "" {
		r.pairs[conv.PairKey] = conv.ID
	}
}

func (r *ConversationRepository) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	objID, err := repositories.ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.convs[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) ListByParticipant(_ context.Context, userID uint) ([]models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Conversation{}
	for _, conv := range r.convs {
		if conv.HasParticipant(userID) {
			out = append(out, *cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *ConversationRepository) ListIDsByParticipant(ctx context.Context, userID uint) ([]primitive.ObjectID, error) {
	convs, _ := r.ListByParticipant(ctx, userID)
	ids := make([]primitive.ObjectID, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *ConversationRepository) RecordMessage(_ context.Context, id primitive.ObjectID, last models.LastMessage, recipients []uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	snapshot := last
	conv.LastMessage = &snapshot
	conv.UpdatedAt = last.SentAt
	for _, uid := range recipients {
		conv.UnreadCount[models.UserKey(uid)]++
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) ResetUnread(_ context.Context, id primitive.ObjectID, userID uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	conv.UnreadCount[models.UserKey(userID)] = 0
	return cloneConversation(conv), nil
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Participants = append([]uint(nil), c.Participants...)
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	if c.LastMessage != nil {
		last := *c.LastMessage
		out.LastMessage = &last
	}
	return &out
}
