package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
)

type ConnectionRepository struct {
	mu       sync.RWMutex
	requests map[uint]models.ConnectionRequest
	nextID   uint
	users    *UserRepository
}

func NewConnectionRepository(users *UserRepository) *ConnectionRepository {
	return &ConnectionRepository{requests: make(map[uint]models.ConnectionRequest), users: users}
}

func (r *ConnectionRepository) CreateRequest(_ context.Context, req *models.ConnectionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if samePair(existing, req.SenderID, req.ReceiverID) &&
			(existing.Status == models.ConnectionPending || existing.Status == models.ConnectionAccepted) {
			return repositories.ErrConflict
		}
	}

	r.nextID++
	now := time.Now().UTC()
	req.ID = r.nextID
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Status = models.ConnectionPending
	r.requests[req.ID] = *req
	return nil
}

func (r *ConnectionRepository) GetRequestByID(_ context.Context, id uint) (*models.ConnectionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &req, nil
}

func (r *ConnectionRepository) GetAcceptedBetween(_ context.Context, a, b uint) (*models.ConnectionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if samePair(req, a, b) && req.Status == models.ConnectionAccepted {
			return &req, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *ConnectionRepository) ListPendingForReceiver(_ context.Context, userID uint) ([]models.ConnectionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.ConnectionRequest{}
	for _, req := range r.requests {
		if req.ReceiverID == userID && req.Status == models.ConnectionPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *ConnectionRepository) ListConnections(ctx context.Context, userID uint) ([]models.User, error) {
	r.mu.RLock()
	var ids []uint
	for _, req := range r.requests {
		if req.Status != models.ConnectionAccepted {
			continue
		}
		switch userID {
		case req.SenderID:
			ids = append(ids, req.ReceiverID)
		case req.ReceiverID:
			ids = append(ids, req.SenderID)
		}
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return r.users.GetUsersByIDs(ctx, ids)
}

func (r *ConnectionRepository) UpdateRequestStatus(_ context.Context, id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	r.requests[id] = req
	return nil
}

func (r *ConnectionRepository) DeleteRequest(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}

func samePair(req models.ConnectionRequest, a, b uint) bool {
	return (req.SenderID == a && req.ReceiverID == b) || (req.SenderID == b && req.ReceiverID == a)
}
