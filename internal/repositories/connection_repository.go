package repositories

import (
	"context"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"gorm.io/gorm"
)

// ConnectionRepository defines the interface for connection request operations
type ConnectionRepository interface {
	CreateRequest(ctx context.Context, req *models.ConnectionRequest) error
	GetRequestByID(ctx context.Context, id uint) (*models.ConnectionRequest, error)
	GetAcceptedBetween(ctx context.Context, a, b uint) (*models.ConnectionRequest, error)
	ListPendingForReceiver(ctx context.Context, userID uint) ([]models.ConnectionRequest, error)
	ListConnections(ctx context.Context, userID uint) ([]models.User, error)
	UpdateRequestStatus(ctx context.Context, id uint, status string) error
	DeleteRequest(ctx context.Context, id uint) error
}

// PostgresConnectionRepository implements ConnectionRepository for PostgreSQL
type PostgresConnectionRepository struct {
	db *gorm.DB
}

func NewPostgresConnectionRepository(db *gorm.DB) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{db: db}
}

// CreateRequest stores a pending request unless one is pending or accepted for the pair already.
func (r *PostgresConnectionRepository) CreateRequest(ctx context.Context, req *models.ConnectionRequest) error {
	db := r.db.WithContext(ctx)

	var existing models.ConnectionRequest
	err := db.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status IN ?",
		req.SenderID, req.ReceiverID, req.ReceiverID, req.SenderID,
		[]string{models.ConnectionPending, models.ConnectionAccepted}).First(&existing).Error
	if err == nil {
		return ErrConflict
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	req.Status = models.ConnectionPending
	return db.Create(req).Error
}

func (r *PostgresConnectionRepository) GetRequestByID(ctx context.Context, id uint) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &req, nil
}

func (r *PostgresConnectionRepository) GetAcceptedBetween(ctx context.Context, a, b uint) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			a, b, b, a, models.ConnectionAccepted).
		First(&req).Error
	if err != nil {
		return nil, translateGormError(err)
	}
	return &req, nil
}

func (r *PostgresConnectionRepository) ListPendingForReceiver(ctx context.Context, userID uint) ([]models.ConnectionRequest, error) {
	var requests []models.ConnectionRequest
	if err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", userID, models.ConnectionPending).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListConnections returns the users with an accepted request to or from userID
func (r *PostgresConnectionRepository) ListConnections(ctx context.Context, userID uint) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	var users []models.User
	sent := db.Model(&models.ConnectionRequest{}).Select("receiver_id").Where("sender_id = ? AND status = ?", userID, models.ConnectionAccepted)
	received := db.Model(&models.ConnectionRequest{}).Select("sender_id").Where("receiver_id = ? AND status = ?", userID, models.ConnectionAccepted)

	if err := db.Where("id IN (?) OR id IN (?)", sent, received).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresConnectionRepository) UpdateRequestStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.ConnectionRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (r *PostgresConnectionRepository) DeleteRequest(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ConnectionRequest{}, id).Error
}
