package repository

import (
	"context"

	"gorm.io/gorm"

	"namo/internal/model"
)

// VoteTally counts the votes on one name.
type VoteTally struct {
	Total int64
	Likes int64
}

// VoteRepository defines persistence operations on votes.
type VoteRepository interface {
	Create(ctx context.Context, vote *model.Vote) error
	Update(ctx context.Context, vote *model.Vote) error
	FindByUserAndName(ctx context.Context, userID, nameID uint) (*model.Vote, error)
	DeleteByUserAndName(ctx context.Context, userID, nameID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint, liked *bool, skip, limit int) ([]model.Vote, error)
	TallyByName(ctx context.Context, nameID uint) (VoteTally, error)
	LikedNames(ctx context.Context, userID uint) ([]model.Name, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository builds a GORM-backed repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Create inserts a vote. A concurrent insert for the same (user, name) pair
// fails with gorm.ErrDuplicatedKey.
func (r *voteRepository) Create(ctx context.Context, vote *model.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *voteRepository) Update(ctx context.Context, vote *model.Vote) error {
	return r.db.WithContext(ctx).Model(vote).Update("vote", vote.Liked).Error
}

func (r *voteRepository) FindByUserAndName(ctx context.Context, userID, nameID uint) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.WithContext(ctx).
		Where("votes.user_id = ? AND votes.name_id = ?", userID, nameID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) DeleteByUserAndName(ctx context.Context, userID, nameID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("votes.user_id = ? AND votes.name_id = ?", userID, nameID).
		Delete(&model.Vote{})
	return res.RowsAffected, res.Error
}

func (r *voteRepository) ListByUser(ctx context.Context, userID uint, liked *bool, skip, limit int) ([]model.Vote, error) {
	q := r.db.WithContext(ctx).
		Joins("JOIN names ON names.id = votes.name_id").
		Preload("Name").
		Where("votes.user_id = ?", userID)
	if liked != nil {
		q = q.Where("votes.vote = ?", *liked)
	}

	var votes []model.Vote
	if err := q.Order("names.name ASC, votes.id ASC").Offset(skip).Limit(limit).Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepository) TallyByName(ctx context.Context, nameID uint) (VoteTally, error) {
	var tally VoteTally
	err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN votes.vote THEN 1 ELSE 0 END), 0) AS likes").
		Where("votes.name_id = ?", nameID).
		Scan(&tally).Error
	return tally, err
}

func (r *voteRepository) LikedNames(ctx context.Context, userID uint) ([]model.Name, error) {
	var names []model.Name
	err := r.db.WithContext(ctx).
		Model(&model.Name{}).
		Joins("JOIN votes ON votes.name_id = names.id").
		Where("votes.user_id = ? AND votes.vote = ?", userID, true).
		Order("names.id ASC").
		Find(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
