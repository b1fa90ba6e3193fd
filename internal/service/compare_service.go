package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/repository"
)

// CompareService contrasts the likes of two users.
type CompareService interface {
	Compare(ctx context.Context, userID uint, otherUsername string) (*model.Comparison, error)
}

type compareService struct {
	voteRepo repository.VoteRepository
	userRepo repository.UserRepository
}

// NewCompareService creates a new comparison service.
func NewCompareService(voteRepo repository.VoteRepository, userRepo repository.UserRepository) CompareService {
	return &compareService{voteRepo: voteRepo, userRepo: userRepo}
}

func (s *compareService) Compare(ctx context.Context, userID uint, otherUsername string) (*model.Comparison, error) {
	other, err := s.userRepo.FindByUsername(ctx, otherUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	mine, err := s.voteRepo.LikedNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	theirs, err := s.voteRepo.LikedNames(ctx, other.ID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}

	return Partition(mine, theirs), nil
}

// Partition splits two name sets, keyed by id, into their intersection and
// the two differences.
func Partition(a, b []model.Name) *model.Comparison {
	inA := make(map[uint]struct{}, len(a))
	for _, n := range a {
		inA[n.ID] = struct{}{}
	}
	inB := make(map[uint]struct{}, len(b))
	for _, n := range b {
		inB[n.ID] = struct{}{}
	}

	out := &model.Comparison{Both: []model.Name{}, OnlyA: []model.Name{}, OnlyB: []model.Name{}}
	for _, n := range a {
		if _, ok := inB[n.ID]; ok {
			out.Both = append(out.Both, n)
		} else {
			out.OnlyA = append(out.OnlyA, n)
		}
	}
	for _, n := range b {
		if _, ok := inA[n.ID]; !ok {
			out.OnlyB = append(out.OnlyB, n)
		}
	}
	return out
}
