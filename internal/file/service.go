package file

import (
	"collaborative-code-editor/internal/errors"
	"context"
	defError "errors"
	"fmt"

	"gorm.io/gorm"
)

// Service defines the interface for file business logic
type Service interface {
	CreateFile(ctx context.Context, requesterID uint64, projectID uint64, name string) (*File, error)
	RenameFile(ctx context.Context, requesterID uint64, fileID uint64, name string) (*File, error)
	DeleteFile(ctx context.Context, requesterID uint64, fileID uint64) error
	AssignFile(ctx context.Context, requesterID uint64, fileID uint64, targetUserID uint64) (*File, error)
	UnassignFile(ctx context.Context, requesterID uint64, fileID uint64) (*File, error)
	StartEditing(ctx context.Context, requesterID uint64, fileID uint64) (*File, error)
	SaveFile(ctx context.Context, requesterID uint64, fileID uint64, content string) (*File, error)
	ListVersions(ctx context.Context, requesterID uint64, fileID uint64) ([]Version, error)
}

// ProjectProvider answers ownership and membership questions without
// depending on the project package.
type ProjectProvider interface {
	OwnerID(ctx context.Context, projectID uint64) (uint64, error)
	IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error)
	MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error)
}

// Broadcaster pushes realtime events to project members. Implemented by the
// hub; a no-op fake in tests.
type Broadcaster interface {
	BroadcastProjectChanged(projectID uint64)
	NotifyProjectMembers(memberIDs []uint64, title, message string)
	NotifyUser(userID uint64, title, message string) error
}

type DefaultService struct {
	repository  Repository
	projects    ProjectProvider
	broadcaster Broadcaster
}

func NewService(repository Repository, projects ProjectProvider, broadcaster Broadcaster) Service {
	return &DefaultService{
		repository:  repository,
		projects:    projects,
		broadcaster: broadcaster,
	}
}

// requireOwner rejects everyone but the project owner. Only the owner may
// create, delete, rename, assign, or unassign files.
func (s *DefaultService) requireOwner(ctx context.Context, projectID uint64, requesterID uint64) error {
	ownerID, err := s.projects.OwnerID(ctx, projectID)
	if err != nil {
		return err
	}
	if ownerID != requesterID {
		return errors.Forbidden("Only project owners can manage files", nil)
	}
	return nil
}

func (s *DefaultService) findFile(ctx context.Context, fileID uint64) (*File, error) {
	f, err := s.repository.FindByID(ctx, fileID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("File not found", err)
		}
		return nil, err
	}
	return f, nil
}

// fanOut announces a mutation to the whole project group and drops a
// notification in every member's inbox.
func (s *DefaultService) fanOut(ctx context.Context, projectID uint64, title, message string) {
	s.broadcaster.BroadcastProjectChanged(projectID)

	memberIDs, err := s.projects.MemberIDs(ctx, projectID)
	if err != nil {
		return
	}
	s.broadcaster.NotifyProjectMembers(memberIDs, title, message)
}

func (s *DefaultService) CreateFile(ctx context.Context, requesterID uint64, projectID uint64, name string) (*File, error) {
	if err := s.requireOwner(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	f := &File{
		Name:      name,
		ProjectID: projectID,
		Status:    StatusUnassigned,
	}
	if err := s.repository.Create(ctx, f); err != nil {
		return nil, err
	}

	s.fanOut(ctx, projectID, "File created", fmt.Sprintf("File %q was added to the project", name))
	return f, nil
}

func (s *DefaultService) RenameFile(ctx context.Context, requesterID uint64, fileID uint64, name string) (*File, error) {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, f.ProjectID, requesterID); err != nil {
		return nil, err
	}

	f.Name = name
	if err := s.repository.Save(ctx, f); err != nil {
		return nil, err
	}

	s.fanOut(ctx, f.ProjectID, "File renamed", fmt.Sprintf("A file was renamed to %q", name))
	return f, nil
}

func (s *DefaultService) DeleteFile(ctx context.Context, requesterID uint64, fileID uint64) error {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, f.ProjectID, requesterID); err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, fileID); err != nil {
		return err
	}

	s.fanOut(ctx, f.ProjectID, "File deleted", fmt.Sprintf("File %q was deleted", f.Name))
	return nil
}

func (s *DefaultService) AssignFile(ctx context.Context, requesterID uint64, fileID uint64, targetUserID uint64) (*File, error) {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, f.ProjectID, requesterID); err != nil {
		return nil, err
	}

	isMember, err := s.projects.IsMember(ctx, f.ProjectID, targetUserID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.UnprocessableEntity("Target user is not a project member", nil)
	}

	if !CanTransition(f.Status, StatusAssigned) {
		return nil, errors.Conflict(
			fmt.Sprintf("cannot assign a file in %s status", f.Status), nil)
	}

	f.Status = StatusAssigned
	f.AssignedTo = &targetUserID
	if err := s.repository.Save(ctx, f); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastProjectChanged(f.ProjectID)
	// Target may simply be offline; assignment already succeeded.
	_ = s.broadcaster.NotifyUser(targetUserID, "File assigned",
		fmt.Sprintf("File %q was assigned to you", f.Name))
	return f, nil
}

func (s *DefaultService) UnassignFile(ctx context.Context, requesterID uint64, fileID uint64) (*File, error) {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, f.ProjectID, requesterID); err != nil {
		return nil, err
	}

	if f.Status == StatusProgress {
		return nil, errors.Conflict("cannot unassign a file in Progress", nil)
	}
	if !CanTransition(f.Status, StatusUnassigned) {
		return nil, errors.Conflict(
			fmt.Sprintf("cannot unassign a file in %s status", f.Status), nil)
	}

	f.Status = StatusUnassigned
	f.AssignedTo = nil
	if err := s.repository.Save(ctx, f); err != nil {
		return nil, err
	}

	s.fanOut(ctx, f.ProjectID, "File unassigned", fmt.Sprintf("File %q is unassigned again", f.Name))
	return f, nil
}

func (s *DefaultService) StartEditing(ctx context.Context, requesterID uint64, fileID uint64) (*File, error) {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if f.AssignedTo == nil || *f.AssignedTo != requesterID {
		return nil, errors.Forbidden("Only the assigned member can start editing", nil)
	}
	if !CanTransition(f.Status, StatusProgress) {
		return nil, errors.Conflict(
			fmt.Sprintf("cannot start editing a file in %s status", f.Status), nil)
	}

	f.Status = StatusProgress
	if err := s.repository.Save(ctx, f); err != nil {
		return nil, err
	}

	s.fanOut(ctx, f.ProjectID, "Editing started", fmt.Sprintf("File %q is now being edited", f.Name))
	return f, nil
}

func (s *DefaultService) SaveFile(ctx context.Context, requesterID uint64, fileID uint64, content string) (*File, error) {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if f.AssignedTo == nil || *f.AssignedTo != requesterID {
		return nil, errors.Forbidden("Only the assigned member can save this file", nil)
	}
	if !CanTransition(f.Status, StatusSaved) {
		return nil, errors.Conflict(
			fmt.Sprintf("cannot save a file in %s status", f.Status), nil)
	}

	f.Status = StatusSaved
	f.Content = content
	if err := s.repository.Save(ctx, f); err != nil {
		return nil, err
	}

	version := &Version{
		FileID:  f.ID,
		Name:    f.Name,
		Content: content,
		SavedBy: requesterID,
	}
	if err := s.repository.CreateVersion(ctx, version); err != nil {
		return nil, err
	}

	s.fanOut(ctx, f.ProjectID, "File saved", fmt.Sprintf("File %q was saved", f.Name))
	return f, nil
}

func (s *DefaultService) ListVersions(ctx context.Context, requesterID uint64, fileID uint64) ([]Version, error) {
	f, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.projects.IsMember(ctx, f.ProjectID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbidden("Only project members can view versions", nil)
	}

	return s.repository.ListVersions(ctx, fileID)
}
