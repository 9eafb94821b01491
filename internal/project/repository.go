package project

import (
	"context"

	"gorm.io/gorm"
)

// Repository defines the interface for project data access
type Repository interface {
	Create(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id uint64) (*Project, error)
	FindDetail(ctx context.Context, id uint64) (*Project, []MemberDTO, error)
	ListByUser(ctx context.Context, userID uint64) ([]Project, error)
	AddMember(ctx context.Context, projectID uint64, userID uint64) error
	RemoveMember(ctx context.Context, projectID uint64, userID uint64) error
	IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error)
	MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new project repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Create persists the project and the owner's membership row together.
func (r *RepositoryImpl) Create(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		membership := &Membership{ProjectID: project.ID, UserID: project.OwnerID}
		return tx.Create(membership).Error
	})
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindDetail loads the project with its files and resolves member names.
func (r *RepositoryImpl) FindDetail(ctx context.Context, id uint64) (*Project, []MemberDTO, error) {
	var p Project
	err := r.db.WithContext(ctx).Preload("Files").First(&p, id).Error
	if err != nil {
		return nil, nil, err
	}

	var members []MemberDTO
	err = r.db.WithContext(ctx).
		Table("memberships").
		Select("users.id AS id, users.name AS user_name").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.project_id = ?", id).
		Order("memberships.created_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, nil, err
	}

	return &p, members, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID uint64) ([]Project, error) {
	var projects []Project
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.project_id = projects.id").
		Where("memberships.user_id = ?", userID).
		Order("projects.created_at ASC").
		Find(&projects).Error
	return projects, err
}

func (r *RepositoryImpl) AddMember(ctx context.Context, projectID uint64, userID uint64) error {
	membership := &Membership{ProjectID: projectID, UserID: userID}
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *RepositoryImpl) RemoveMember(ctx context.Context, projectID uint64, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&Membership{}).Error
}

func (r *RepositoryImpl) IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Membership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *RepositoryImpl) MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&Membership{}).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
