package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/repository"
)

// VoteService records and reports likes and dislikes.
type VoteService interface {
	Upsert(ctx context.Context, userID, nameID uint, liked bool) (*model.Vote, error)
	Remove(ctx context.Context, userID, nameID uint) error
	List(ctx context.Context, userID uint, liked *bool, skip, limit int) ([]model.Vote, error)
	Stats(ctx context.Context, nameID uint) (*model.VoteStats, error)
}

type voteService struct {
	voteRepo repository.VoteRepository
	nameRepo repository.NameRepository
}

// NewVoteService creates a new vote service.
func NewVoteService(voteRepo repository.VoteRepository, nameRepo repository.NameRepository) VoteService {
	return &voteService{voteRepo: voteRepo, nameRepo: nameRepo}
}

// Upsert stores the user's vote on a name, overwriting an earlier one. The
// unique (user, name) index decides concurrent first votes; the loser of
// that race updates the winner's row.
func (s *voteService) Upsert(ctx context.Context, userID, nameID uint, liked bool) (*model.Vote, error) {
	if _, err := s.nameRepo.FindByID(ctx, nameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNameNotFound
		}
		return nil, fmt.Errorf("find name: %w", err)
	}

	existing, err := s.voteRepo.FindByUserAndName(ctx, userID, nameID)
	if err == nil {
		return s.overwrite(ctx, existing, liked)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find vote: %w", err)
	}

	vote := &model.Vote{UserID: userID, NameID: nameID, Liked: liked}
	err = s.voteRepo.Create(ctx, vote)
	switch {
	case err == nil:
		return vote, nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return nil, apperrors.ErrNameNotFound
	case !errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, fmt.Errorf("create vote: %w", err)
	}

	existing, err = s.voteRepo.FindByUserAndName(ctx, userID, nameID)
	if err != nil {
		return nil, fmt.Errorf("find vote after conflict: %w", err)
	}
	return s.overwrite(ctx, existing, liked)
}

func (s *voteService) overwrite(ctx context.Context, vote *model.Vote, liked bool) (*model.Vote, error) {
	vote.Liked = liked
	if err := s.voteRepo.Update(ctx, vote); err != nil {
		return nil, fmt.Errorf("update vote: %w", err)
	}
	return vote, nil
}

func (s *voteService) Remove(ctx context.Context, userID, nameID uint) error {
	n, err := s.voteRepo.DeleteByUserAndName(ctx, userID, nameID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	if n == 0 {
		return apperrors.ErrVoteNotFound
	}
	return nil
}

func (s *voteService) List(ctx context.Context, userID uint, liked *bool, skip, limit int) ([]model.Vote, error) {
	votes, err := s.voteRepo.ListByUser(ctx, userID, liked, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

// Stats tallies the votes on a name. The like percentage is rounded to two
// decimals and is zero when nobody voted.
func (s *voteService) Stats(ctx context.Context, nameID uint) (*model.VoteStats, error) {
	name, err := s.nameRepo.FindByID(ctx, nameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNameNotFound
		}
		return nil, fmt.Errorf("find name: %w", err)
	}

	tally, err := s.voteRepo.TallyByName(ctx, nameID)
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}

	return &model.VoteStats{
		NameID:         name.ID,
		Name:           name.Name,
		TotalVotes:     tally.Total,
		Likes:          tally.Likes,
		Dislikes:       tally.Total - tally.Likes,
		LikePercentage: LikePercentage(tally.Likes, tally.Total),
	}, nil
}

// LikePercentage returns likes/total as a percentage rounded to two decimals.
func LikePercentage(likes, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(likes).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2).
		InexactFloat64()
}
