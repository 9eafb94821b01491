package chat

import (
	"context"

	"gorm.io/gorm"
)

// Repository defines the interface for chat data access
type Repository interface {
	Create(ctx context.Context, message *Message) error
	ListRecent(ctx context.Context, projectID uint64, limit int) ([]Message, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new chat repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, message *Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListRecent returns the most recent messages newest-first. Clients reverse
// to oldest-first for display.
func (r *RepositoryImpl) ListRecent(ctx context.Context, projectID uint64, limit int) ([]Message, error) {
	var messages []Message
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
