package rtclient

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the client-side cache the push events keep warm: the feed, the conversation
// list and the unread badge. The HTTP listings stay authoritative; the Replace methods
// load them after a (re)connect.
type Store struct {
	mu            sync.RWMutex
	feed          []models.PostView
	conversations []models.ConversationView
	messages      map[primitive.ObjectID][]models.MessageView
	summary       models.UnreadSummary
}

func NewStore() *Store {
	return &Store{messages: make(map[primitive.ObjectID][]models.MessageView)}
}

// Apply decodes one envelope into the cache. Unknown events are ignored.
func (s *Store) Apply(env realtime.Envelope) error {
	switch env.Event {
	case realtime.EventPostCreated:
		var post models.PostView
		if err := json.Unmarshal(env.Data, &post); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		s.PrependPost(post)
	case realtime.EventConversationUpdated:
		var conv models.ConversationView
		if err := json.Unmarshal(env.Data, &conv); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		s.UpsertConversation(conv)
	case realtime.EventUnreadSummary:
		var summary models.UnreadSummary
		if err := json.Unmarshal(env.Data, &summary); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		s.SetSummary(summary)
	case realtime.EventConversationNewMessage:
		var msg models.MessageView
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		s.AppendMessage(msg)
	}
	return nil
}

// PrependPost adds post to the top of the feed unless a post with the same id is cached.
// It reports whether the feed changed.
func (s *Store) PrependPost(post models.PostView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.feed {
		if p.ID == post.ID {
			return false
		}
	}
	s.feed = append([]models.PostView{post}, s.feed...)
	return true
}

// UpsertConversation replaces the cached conversation with the same id in place, or
// prepends it when unknown.
func (s *Store) UpsertConversation(conv models.ConversationView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.conversations {
		if s.conversations[i].ID == conv.ID {
			s.conversations[i] = conv
			return
		}
	}
	s.conversations = append([]models.ConversationView{conv}, s.conversations...)
}

// AppendMessage records a message for an open conversation, skipping duplicates.
func (s *Store) AppendMessage(msg models.MessageView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages[msg.ConversationID] {
		if m.ID == msg.ID {
			return false
		}
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return true
}

func (s *Store) SetSummary(summary models.UnreadSummary) {
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
}

func (s *Store) ReplaceFeed(posts []models.PostView) {
	s.mu.Lock()
	s.feed = append([]models.PostView(nil), posts...)
	s.mu.Unlock()
}

func (s *Store) ReplaceConversations(convs []models.ConversationView) {
	s.mu.Lock()
	s.conversations = append([]models.ConversationView(nil), convs...)
	s.mu.Unlock()
}

func (s *Store) Feed() []models.PostView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PostView(nil), s.feed...)
}

func (s *Store) Conversations() []models.ConversationView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ConversationView(nil), s.conversations...)
}

func (s *Store) Messages(conversationID primitive.ObjectID) []models.MessageView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MessageView(nil), s.messages[conversationID]...)
}

func (s *Store) Summary() models.UnreadSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}
