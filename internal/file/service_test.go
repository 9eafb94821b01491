package file

import (
	apperrors "collaborative-code-editor/internal/errors"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, file *File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*File), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, file *File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateVersion(ctx context.Context, version *Version) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockRepository) ListVersions(ctx context.Context, fileID uint64) ([]Version, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Version), args.Error(1)
}

type MockProjectProvider struct {
	mock.Mock
}

func (m *MockProjectProvider) OwnerID(ctx context.Context, projectID uint64) (uint64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockProjectProvider) IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectProvider) MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastProjectChanged(projectID uint64) {
	m.Called(projectID)
}

func (m *MockBroadcaster) NotifyProjectMembers(memberIDs []uint64, title, message string) {
	m.Called(memberIDs, title, message)
}

func (m *MockBroadcaster) NotifyUser(userID uint64, title, message string) error {
	args := m.Called(userID, title, message)
	return args.Error(0)
}

const (
	ownerID  = uint64(1)
	memberID = uint64(2)
)

func newTestService() (Service, *MockRepository, *MockProjectProvider, *MockBroadcaster) {
	repo := new(MockRepository)
	projects := new(MockProjectProvider)
	broadcaster := new(MockBroadcaster)
	return NewService(repo, projects, broadcaster), repo, projects, broadcaster
}

func assignedFile(status Status) *File {
	to := memberID
	return &File{ID: 10, Name: "main.go", ProjectID: 7, AssignedTo: &to, Status: status}
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	apiErr, ok := err.(*apperrors.APIError)
	assert.True(t, ok)
	return apiErr.Status
}

func TestCreateFileOwnerOnly(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *File) bool {
		return f.Name == "main.go" && f.Status == StatusUnassigned
	})).Return(nil)
	projects.On("MemberIDs", mock.Anything, uint64(7)).Return([]uint64{1, 2}, nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyProjectMembers", []uint64{1, 2}, "File created", mock.Anything).Return()

	f, err := service.CreateFile(context.Background(), ownerID, 7, "main.go")

	assert.NoError(t, err)
	assert.Equal(t, StatusUnassigned, f.Status)
	repo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestCreateFileRejectsNonOwner(t *testing.T) {
	service, _, projects, _ := newTestService()

	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)

	_, err := service.CreateFile(context.Background(), memberID, 7, "main.go")

	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))
}

func TestAssignFileTransitionsToAssigned(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(&File{ID: 10, Name: "main.go", ProjectID: 7, Status: StatusUnassigned}, nil)
	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)
	projects.On("IsMember", mock.Anything, uint64(7), memberID).Return(true, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyUser", memberID, "File assigned", mock.Anything).Return(nil)

	f, err := service.AssignFile(context.Background(), ownerID, 10, memberID)

	assert.NoError(t, err)
	assert.Equal(t, StatusAssigned, f.Status)
	assert.Equal(t, memberID, *f.AssignedTo)
	broadcaster.AssertExpectations(t)
}

func TestAssignFileRejectsNonMemberTarget(t *testing.T) {
	service, repo, projects, _ := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(&File{ID: 10, ProjectID: 7, Status: StatusUnassigned}, nil)
	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)
	projects.On("IsMember", mock.Anything, uint64(7), uint64(99)).Return(false, nil)

	_, err := service.AssignFile(context.Background(), ownerID, 10, 99)

	assert.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))
}

func TestAssignFileRejectsAlreadyAssigned(t *testing.T) {
	service, repo, projects, _ := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusAssigned), nil)
	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)
	projects.On("IsMember", mock.Anything, uint64(7), memberID).Return(true, nil)

	_, err := service.AssignFile(context.Background(), ownerID, 10, memberID)

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))
}

func TestUnassignFileFromAssigned(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusAssigned), nil)
	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	projects.On("MemberIDs", mock.Anything, uint64(7)).Return([]uint64{1, 2}, nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyProjectMembers", []uint64{1, 2}, "File unassigned", mock.Anything).Return()

	f, err := service.UnassignFile(context.Background(), ownerID, 10)

	assert.NoError(t, err)
	assert.Equal(t, StatusUnassigned, f.Status)
	assert.Nil(t, f.AssignedTo)
}

func TestUnassignFileInProgressRejected(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusProgress), nil)
	projects.On("OwnerID", mock.Anything, uint64(7)).Return(ownerID, nil)

	_, err := service.UnassignFile(context.Background(), ownerID, 10)

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))
	assert.Contains(t, err.Error(), "Progress")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "BroadcastProjectChanged", mock.Anything)
}

func TestStartEditingByAssignee(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusAssigned), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	projects.On("MemberIDs", mock.Anything, uint64(7)).Return([]uint64{1, 2}, nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyProjectMembers", mock.Anything, "Editing started", mock.Anything).Return()

	f, err := service.StartEditing(context.Background(), memberID, 10)

	assert.NoError(t, err)
	assert.Equal(t, StatusProgress, f.Status)
}

func TestStartEditingRejectsOtherMembers(t *testing.T) {
	service, repo, _, _ := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusAssigned), nil)

	_, err := service.StartEditing(context.Background(), uint64(3), 10)

	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))
}

func TestSaveFileWritesVersion(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusProgress), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateVersion", mock.Anything, mock.MatchedBy(func(v *Version) bool {
		return v.FileID == 10 && v.Content == "package main" && v.SavedBy == memberID
	})).Return(nil)
	projects.On("MemberIDs", mock.Anything, uint64(7)).Return([]uint64{1, 2}, nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyProjectMembers", mock.Anything, "File saved", mock.Anything).Return()

	f, err := service.SaveFile(context.Background(), memberID, 10, "package main")

	assert.NoError(t, err)
	assert.Equal(t, StatusSaved, f.Status)
	assert.Equal(t, "package main", f.Content)
	repo.AssertExpectations(t)
}

func TestSaveFileRejectedBeforeEditingStarts(t *testing.T) {
	service, repo, _, _ := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusAssigned), nil)

	_, err := service.SaveFile(context.Background(), memberID, 10, "content")

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))
}

func TestSavedFileCanReenterProgress(t *testing.T) {
	service, repo, projects, broadcaster := newTestService()

	repo.On("FindByID", mock.Anything, uint64(10)).Return(assignedFile(StatusSaved), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	projects.On("MemberIDs", mock.Anything, uint64(7)).Return([]uint64{1, 2}, nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyProjectMembers", mock.Anything, mock.Anything, mock.Anything).Return()

	f, err := service.StartEditing(context.Background(), memberID, 10)

	assert.NoError(t, err)
	assert.Equal(t, StatusProgress, f.Status)
}

func TestFileNotFound(t *testing.T) {
	service, repo, _, _ := newTestService()

	repo.On("FindByID", mock.Anything, uint64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.StartEditing(context.Background(), memberID, 99)

	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}

func TestCanTransitionEdges(t *testing.T) {
	assert.True(t, CanTransition(StatusUnassigned, StatusAssigned))
	assert.True(t, CanTransition(StatusAssigned, StatusProgress))
	assert.True(t, CanTransition(StatusAssigned, StatusUnassigned))
	assert.True(t, CanTransition(StatusProgress, StatusSaved))
	assert.True(t, CanTransition(StatusSaved, StatusProgress))

	assert.False(t, CanTransition(StatusProgress, StatusUnassigned))
	assert.False(t, CanTransition(StatusUnassigned, StatusProgress))
	assert.False(t, CanTransition(StatusSaved, StatusUnassigned))
}
