package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/repository"
	"namo/internal/testutil"
)

func TestVoteService_UpsertWithMocks(t *testing.T) {
	name := &model.Name{ID: 10, Name: "Emma"}

	tests := []struct {
		name          string
		setupMock     func(*MockVoteRepository)
		nameErr       error
		expectedError error
		expectedLiked bool
	}{
		{
			name: "first vote is inserted",
			setupMock: func(m *MockVoteRepository) {
				m.On("FindByUserAndName", mock.Anything, uint(1), uint(10)).Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Vote")).Return(nil)
			},
			expectedLiked: true,
		},
		{
			name: "revote overwrites",
			setupMock: func(m *MockVoteRepository) {
				m.On("FindByUserAndName", mock.Anything, uint(1), uint(10)).Return(&model.Vote{ID: 3, UserID: 1, NameID: 10, Liked: false}, nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(v *model.Vote) bool { return v.ID == 3 && v.Liked })).Return(nil)
			},
			expectedLiked: true,
		},
		{
			name: "concurrent insert retries as update",
			setupMock: func(m *MockVoteRepository) {
				m.On("FindByUserAndName", mock.Anything, uint(1), uint(10)).Return(nil, gorm.ErrRecordNotFound).Once()
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Vote")).Return(gorm.ErrDuplicatedKey)
				m.On("FindByUserAndName", mock.Anything, uint(1), uint(10)).Return(&model.Vote{ID: 8, UserID: 1, NameID: 10, Liked: false}, nil).Once()
				m.On("Update", mock.Anything, mock.MatchedBy(func(v *model.Vote) bool { return v.ID == 8 && v.Liked })).Return(nil)
			},
			expectedLiked: true,
		},
		{
			name:          "unknown name",
			setupMock:     func(m *MockVoteRepository) {},
			nameErr:       gorm.ErrRecordNotFound,
			expectedError: apperrors.ErrNameNotFound,
		},
		{
			name: "name deleted between check and insert",
			setupMock: func(m *MockVoteRepository) {
				m.On("FindByUserAndName", mock.Anything, uint(1), uint(10)).Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Vote")).Return(gorm.ErrForeignKeyViolated)
			},
			expectedError: apperrors.ErrNameNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voteRepo := new(MockVoteRepository)
			tt.setupMock(voteRepo)
			store := testutil.NewStore()
			names := &stubNames{NameRepository: store.Names(), name: name, err: tt.nameErr}

			vote, err := NewVoteService(voteRepo, names).Upsert(context.Background(), 1, 10, true)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedLiked, vote.Liked)
			}
			voteRepo.AssertExpectations(t)
		})
	}
}

// stubNames answers FindByID with a fixed result.
type stubNames struct {
	repository.NameRepository
	name *model.Name
	err  error
}

func (s *stubNames) FindByID(context.Context, uint) (*model.Name, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.name, nil
}

func TestVoteService_UpsertTwiceKeepsOneRow(t *testing.T) {
	store := testutil.NewStore()
	emma := store.AddName("Austria", "Emma", "f", testutil.IntPtr(1200))
	svc := NewVoteService(store.Votes(), store.Names())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, 1, emma.ID, true)
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, 1, emma.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 1, store.VoteRows())
	vote, err := store.Votes().FindByUserAndName(ctx, 1, emma.ID)
	require.NoError(t, err)
	assert.False(t, vote.Liked)
}

func TestVoteService_Stats(t *testing.T) {
	store := testutil.NewStore()
	emma := store.AddName("Austria", "Emma", "f", testutil.IntPtr(1200))
	anna := store.AddName("Austria", "Anna", "f", testutil.IntPtr(1100))
	svc := NewVoteService(store.Votes(), store.Names())
	ctx := context.Background()

	for user, liked := range map[uint]bool{1: true, 2: true, 3: true, 4: false} {
		_, err := svc.Upsert(ctx, user, emma.ID, liked)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, emma.ID)
	require.NoError(t, err)
	assert.Equal(t, &model.VoteStats{NameID: emma.ID, Name: "Emma", TotalVotes: 4, Likes: 3, Dislikes: 1, LikePercentage: 75.0}, stats)

	stats, err = svc.Stats(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalVotes)
	assert.Equal(t, 0.0, stats.LikePercentage)

	_, err = svc.Stats(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNameNotFound)
}

func TestLikePercentage(t *testing.T) {
	assert.Equal(t, 75.0, LikePercentage(3, 4))
	assert.Equal(t, 33.33, LikePercentage(1, 3))
	assert.Equal(t, 66.67, LikePercentage(2, 3))
	assert.Equal(t, 100.0, LikePercentage(5, 5))
	assert.Equal(t, 0.0, LikePercentage(0, 0))
}

func TestVoteService_RemoveAndList(t *testing.T) {
	store := testutil.NewStore()
	zoe := store.AddName("Germany", "Zoe", "f", testutil.IntPtr(10))
	ben := store.AddName("Germany", "Ben", "m", testutil.IntPtr(20))
	leon := store.AddName("Germany", "Leon", "m", testutil.IntPtr(30))
	svc := NewVoteService(store.Votes(), store.Names())
	ctx := context.Background()

	for id, liked := range map[uint]bool{zoe.ID: true, ben.ID: false, leon.ID: true} {
		_, err := svc.Upsert(ctx, 1, id, liked)
		require.NoError(t, err)
	}

	votes, err := svc.List(ctx, 1, nil, 0, 100)
	require.NoError(t, err)
	require.Len(t, votes, 3)
	assert.Equal(t, []string{"Ben", "Leon", "Zoe"}, []string{votes[0].Name.Name, votes[1].Name.Name, votes[2].Name.Name})

	liked := true
	votes, err = svc.List(ctx, 1, &liked, 0, 100)
	require.NoError(t, err)
	assert.Len(t, votes, 2)

	require.NoError(t, svc.Remove(ctx, 1, ben.ID))
	assert.ErrorIs(t, svc.Remove(ctx, 1, ben.ID), apperrors.ErrVoteNotFound)
}

func TestVoteService_RemoveStoreFailure(t *testing.T) {
	voteRepo := new(MockVoteRepository)
	voteRepo.On("DeleteByUserAndName", mock.Anything, uint(1), uint(2)).Return(int64(0), errors.New("timeout"))

	err := NewVoteService(voteRepo, nil).Remove(context.Background(), 1, 2)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	voteRepo.AssertExpectations(t)
}
