package file

import (
	"context"

	"gorm.io/gorm"
)

// Repository defines the interface for file data access
type Repository interface {
	Create(ctx context.Context, file *File) error
	FindByID(ctx context.Context, id uint64) (*File, error)
	Save(ctx context.Context, file *File) error
	Delete(ctx context.Context, id uint64) error
	CreateVersion(ctx context.Context, version *Version) error
	ListVersions(ctx context.Context, fileID uint64) ([]Version, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new file repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, file *File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).First(&f, id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, file *File) error {
	return r.db.WithContext(ctx).Save(file).Error
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&File{}, id).Error
}

func (r *RepositoryImpl) CreateVersion(ctx context.Context, version *Version) error {
	return r.db.WithContext(ctx).Create(version).Error
}

// ListVersions returns versions newest-first
func (r *RepositoryImpl) ListVersions(ctx context.Context, fileID uint64) ([]Version, error) {
	var versions []Version
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, err
}
