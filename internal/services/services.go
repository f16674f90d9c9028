// Package services holds the messaging and notification workflows. Each workflow persists
// first and pushes afterwards; a failed push never fails the request.
package services

import (
	"context"
	"errors"
	"math"

	"github.com/anonto42/careerconnect/backend/internal/apperr"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
)

// Emitter is the push surface of the realtime gateway
type Emitter interface {
	EmitToUser(userID uint, event string, payload interface{})
	EmitToConversation(conversationID string, event string, payload interface{})
	Broadcast(event string, payload interface{})
}

// Pagination bounds shared by the list endpoints
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50
	// MaxPage keeps (page-1)*limit inside int range; later pages are simply empty.
	MaxPage = math.MaxInt32
)

// NormalizePage clamps page and limit to the accepted range.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// summaries resolves user ids to display summaries; unknown ids are left out.
func summaries(ctx context.Context, users repositories.UserRepository, ids []uint) (map[uint]models.UserSummary, error) {
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.UserSummary, len(found))
	for i := range found {
		out[found[i].ID] = found[i].ToSummary()
	}
	return out, nil
}

func summaryOf(users map[uint]models.UserSummary, id uint) models.UserSummary {
	if u, ok := users[id]; ok {
		return u
	}
	return models.UserSummary{ID: id}
}

// lookupError maps repository lookups of a resource to the client-facing taxonomy.
func lookupError(err error, what string) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		return apperr.Validation("Invalid " + what + " id")
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(what + " not found")
	default:
		return err
	}
}
