package project

import (
	"collaborative-code-editor/internal/errors"
	"context"
	defError "errors"
	"fmt"

	"gorm.io/gorm"
)

// Service defines the interface for project business logic
type Service interface {
	CreateProject(ctx context.Context, ownerID uint64, name string) (*Project, error)
	EnterProject(ctx context.Context, projectID uint64, userID uint64) (*DetailResponse, error)
	ListProjects(ctx context.Context, userID uint64) ([]Project, error)
	AddMember(ctx context.Context, projectID uint64, requesterID uint64, targetUserID uint64) error
	LeaveProject(ctx context.Context, projectID uint64, userID uint64) error

	// Provider methods used by the file and chat services.
	OwnerID(ctx context.Context, projectID uint64) (uint64, error)
	IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error)
	MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error)
}

// Broadcaster pushes realtime events to project members.
type Broadcaster interface {
	BroadcastProjectChanged(projectID uint64)
	NotifyProjectMembers(memberIDs []uint64, title, message string)
}

type DefaultService struct {
	repository  Repository
	broadcaster Broadcaster
}

func NewService(repository Repository, broadcaster Broadcaster) Service {
	return &DefaultService{repository: repository, broadcaster: broadcaster}
}

func (s *DefaultService) CreateProject(ctx context.Context, ownerID uint64, name string) (*Project, error) {
	if name == "" {
		return nil, errors.BadRequest("Project name cannot be empty", nil)
	}

	p := &Project{Name: name, OwnerID: ownerID}
	if err := s.repository.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *DefaultService) EnterProject(ctx context.Context, projectID uint64, userID uint64) (*DetailResponse, error) {
	isMember, err := s.repository.IsMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbidden("You are not a member of this project", nil)
	}

	p, members, err := s.repository.FindDetail(ctx, projectID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Project not found", err)
		}
		return nil, err
	}

	return &DetailResponse{
		ID:      p.ID,
		Name:    p.Name,
		OwnerID: p.OwnerID,
		Members: members,
		Files:   p.Files,
	}, nil
}

func (s *DefaultService) ListProjects(ctx context.Context, userID uint64) ([]Project, error) {
	return s.repository.ListByUser(ctx, userID)
}

func (s *DefaultService) AddMember(ctx context.Context, projectID uint64, requesterID uint64, targetUserID uint64) error {
	ownerID, err := s.OwnerID(ctx, projectID)
	if err != nil {
		return err
	}
	if ownerID != requesterID {
		return errors.Forbidden("Only the project owner can add members", nil)
	}

	alreadyMember, err := s.repository.IsMember(ctx, projectID, targetUserID)
	if err != nil {
		return err
	}
	if alreadyMember {
		return errors.Conflict("User is already a member", nil)
	}

	if err := s.repository.AddMember(ctx, projectID, targetUserID); err != nil {
		return err
	}

	s.broadcaster.BroadcastProjectChanged(projectID)
	memberIDs, err := s.repository.MemberIDs(ctx, projectID)
	if err == nil {
		s.broadcaster.NotifyProjectMembers(memberIDs, "Member joined",
			fmt.Sprintf("A new member joined project %d", projectID))
	}
	return nil
}

func (s *DefaultService) LeaveProject(ctx context.Context, projectID uint64, userID uint64) error {
	ownerID, err := s.OwnerID(ctx, projectID)
	if err != nil {
		return err
	}
	if ownerID == userID {
		return errors.UnprocessableEntity("The owner cannot leave the project", nil)
	}

	isMember, err := s.repository.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.NotFound("Membership not found", nil)
	}

	if err := s.repository.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}

	s.broadcaster.BroadcastProjectChanged(projectID)
	return nil
}

func (s *DefaultService) OwnerID(ctx context.Context, projectID uint64) (uint64, error) {
	p, err := s.repository.FindByID(ctx, projectID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.NotFound("Project not found", err)
		}
		return 0, err
	}
	return p.OwnerID, nil
}

func (s *DefaultService) IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error) {
	return s.repository.IsMember(ctx, projectID, userID)
}

func (s *DefaultService) MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error) {
	return s.repository.MemberIDs(ctx, projectID)
}
