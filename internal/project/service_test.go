package project

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

func (m *MockRepository) Create(ctx context.Context, project *Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockRepository) FindDetail(ctx context.Context, id uint64) (*Project, []MemberDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*Project), args.Get(1).([]MemberDTO), args.Error(2)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uint64) ([]Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Project), args.Error(1)
}

func (m *MockRepository) AddMember(ctx context.Context, projectID uint64, userID uint64) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MockRepository) RemoveMember(ctx context.Context, projectID uint64, userID uint64) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MockRepository) IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MemberIDs(ctx context.Context, projectID uint64) ([]uint64, error) {
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

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	apiErr, ok := err.(*apperrors.APIError)
	assert.True(t, ok)
	return apiErr.Status
}

func TestEnterProjectRequiresMembership(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockBroadcaster))

	repo.On("IsMember", mock.Anything, uint64(7), uint64(3)).Return(false, nil)

	_, err := service.EnterProject(context.Background(), 7, 3)

	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))
	repo.AssertNotCalled(t, "FindDetail", mock.Anything, mock.Anything)
}

func TestEnterProjectReturnsDetail(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockBroadcaster))

	repo.On("IsMember", mock.Anything, uint64(7), uint64(1)).Return(true, nil)
	repo.On("FindDetail", mock.Anything, uint64(7)).Return(
		&Project{ID: 7, Name: "demo", OwnerID: 1},
		[]MemberDTO{{ID: 1, UserName: "alice"}, {ID: 2, UserName: "bob"}},
		nil,
	)

	detail, err := service.EnterProject(context.Background(), 7, 1)

	assert.NoError(t, err)
	assert.Equal(t, uint64(7), detail.ID)
	assert.Len(t, detail.Members, 2)
}

func TestAddMemberOwnerOnly(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockBroadcaster))

	repo.On("FindByID", mock.Anything, uint64(7)).Return(&Project{ID: 7, OwnerID: 1}, nil)

	err := service.AddMember(context.Background(), 7, 2, 3)

	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))
}

func TestAddMemberAlreadyMember(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockBroadcaster))

	repo.On("FindByID", mock.Anything, uint64(7)).Return(&Project{ID: 7, OwnerID: 1}, nil)
	repo.On("IsMember", mock.Anything, uint64(7), uint64(2)).Return(true, nil)

	err := service.AddMember(context.Background(), 7, 1, 2)

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))
}

func TestAddMemberNotifiesProject(t *testing.T) {
	repo := new(MockRepository)
	broadcaster := new(MockBroadcaster)
	service := NewService(repo, broadcaster)

	repo.On("FindByID", mock.Anything, uint64(7)).Return(&Project{ID: 7, OwnerID: 1}, nil)
	repo.On("IsMember", mock.Anything, uint64(7), uint64(2)).Return(false, nil)
	repo.On("AddMember", mock.Anything, uint64(7), uint64(2)).Return(nil)
	repo.On("MemberIDs", mock.Anything, uint64(7)).Return([]uint64{1, 2}, nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()
	broadcaster.On("NotifyProjectMembers", []uint64{1, 2}, "Member joined", mock.Anything).Return()

	err := service.AddMember(context.Background(), 7, 1, 2)

	assert.NoError(t, err)
	broadcaster.AssertExpectations(t)
}

func TestLeaveProjectOwnerRejected(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockBroadcaster))

	repo.On("FindByID", mock.Anything, uint64(7)).Return(&Project{ID: 7, OwnerID: 1}, nil)

	err := service.LeaveProject(context.Background(), 7, 1)

	assert.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))
	repo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeaveProjectMemberRemoved(t *testing.T) {
	repo := new(MockRepository)
	broadcaster := new(MockBroadcaster)
	service := NewService(repo, broadcaster)

	repo.On("FindByID", mock.Anything, uint64(7)).Return(&Project{ID: 7, OwnerID: 1}, nil)
	repo.On("IsMember", mock.Anything, uint64(7), uint64(2)).Return(true, nil)
	repo.On("RemoveMember", mock.Anything, uint64(7), uint64(2)).Return(nil)
	broadcaster.On("BroadcastProjectChanged", uint64(7)).Return()

	err := service.LeaveProject(context.Background(), 7, 2)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOwnerIDProjectNotFound(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockBroadcaster))

	repo.On("FindByID", mock.Anything, uint64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.OwnerID(context.Background(), 99)

	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}
