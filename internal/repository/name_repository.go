package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"namo/internal/model"
)

// Direction orders names by popularity.
type Direction string

const (
	// DirectionPopular orders by descending count.
	DirectionPopular Direction = "popular"
	// DirectionUnpopular orders by ascending count.
	DirectionUnpopular Direction = "unpopular"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionPopular || d == DirectionUnpopular
}

// NameFilter narrows catalog queries. Empty fields do not filter.
type NameFilter struct {
	Gender string
	Source string
}

// WeightQuery selects the sampler's candidates.
type WeightQuery struct {
	UserID       uint
	Gender       string
	ExcludeVoted bool
}

// Cursor is the sort key of the last name of the previous page.
type Cursor struct {
	ID    uint
	Count int
}

// OrderedQuery selects one keyset page of names the user has not voted on.
type OrderedQuery struct {
	UserID    uint
	Direction Direction
	After     *Cursor
	Limit     int
	Filter    NameFilter
}

// NameRepository defines persistence operations on the name catalog.
type NameRepository interface {
	Create(ctx context.Context, name *model.Name) error
	Update(ctx context.Context, name *model.Name) error
	FindByID(ctx context.Context, id uint) (*model.Name, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Name, error)
	FindByDisplayName(ctx context.Context, displayName string) ([]model.Name, error)
	FindByKey(ctx context.Context, source, displayName string, gender *string) (*model.Name, error)
	List(ctx context.Context, filter NameFilter, skip, limit int) ([]model.Name, error)
	ListWeights(ctx context.Context, q WeightQuery) ([]model.NameWeight, error)
	ListOrdered(ctx context.Context, q OrderedQuery) ([]model.Name, error)
	ListByRank(ctx context.Context) ([]model.Name, error)
	UpdateInfo(ctx context.Context, id uint, info datatypes.JSONMap) error
	UpdateInfoByDisplayName(ctx context.Context, displayName string, info datatypes.JSONMap) error
	Count(ctx context.Context) (int64, error)
}

// countKey treats a null count as zero so (count, id) is a strict order.
const countKey = "COALESCE(names.count, 0)"

const notVotedBy = "NOT EXISTS (SELECT 1 FROM votes WHERE votes.name_id = names.id AND votes.user_id = ?)"

type nameRepository struct {
	db *gorm.DB
}

// NewNameRepository builds a GORM-backed repository.
func NewNameRepository(db *gorm.DB) NameRepository {
	return &nameRepository{db: db}
}

func (r *nameRepository) Create(ctx context.Context, name *model.Name) error {
	return r.db.WithContext(ctx).Create(name).Error
}

func (r *nameRepository) Update(ctx context.Context, name *model.Name) error {
	return r.db.WithContext(ctx).Save(name).Error
}

func (r *nameRepository) FindByID(ctx context.Context, id uint) (*model.Name, error) {
	var name model.Name
	if err := r.db.WithContext(ctx).First(&name, id).Error; err != nil {
		return nil, err
	}
	return &name, nil
}

func (r *nameRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Name, error) {
	var names []model.Name
	if len(ids) == 0 {
		return names, nil
	}
	if err := r.db.WithContext(ctx).Where("names.id IN ?", ids).Find(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *nameRepository) FindByDisplayName(ctx context.Context, displayName string) ([]model.Name, error) {
	var names []model.Name
	if err := r.db.WithContext(ctx).Where("names.name = ?", displayName).Order("names.id ASC").Find(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *nameRepository) FindByKey(ctx context.Context, source, displayName string, gender *string) (*model.Name, error) {
	q := r.db.WithContext(ctx).Where("names.source = ? AND names.name = ?", source, displayName)
	if gender == nil {
		q = q.Where("names.gender IS NULL")
	} else {
		q = q.Where("names.gender = ?", *gender)
	}

	var name model.Name
	if err := q.First(&name).Error; err != nil {
		return nil, err
	}
	return &name, nil
}

func (r *nameRepository) List(ctx context.Context, filter NameFilter, skip, limit int) ([]model.Name, error) {
	var names []model.Name
	q := applyFilter(r.db.WithContext(ctx).Model(&model.Name{}), filter)
	if err := q.Order("names.id ASC").Offset(skip).Limit(limit).Find(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *nameRepository) ListWeights(ctx context.Context, wq WeightQuery) ([]model.NameWeight, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Name{}).
		Select("names.id AS id", "names.count AS count").
		Where("names.count IS NOT NULL AND names.count > 0")
	q = applyFilter(q, NameFilter{Gender: wq.Gender})
	if wq.ExcludeVoted {
		q = q.Where(notVotedBy, wq.UserID)
	}

	var weights []model.NameWeight
	if err := q.Find(&weights).Error; err != nil {
		return nil, err
	}
	return weights, nil
}

func (r *nameRepository) ListOrdered(ctx context.Context, oq OrderedQuery) ([]model.Name, error) {
	q := applyFilter(r.db.WithContext(ctx).Model(&model.Name{}), oq.Filter).
		Where(notVotedBy, oq.UserID)

	order := countKey + " DESC, names.id ASC"
	if oq.Direction == DirectionUnpopular {
		order = countKey + " ASC, names.id ASC"
	}

	if c := oq.After; c != nil {
		cmp := "<"
		if oq.Direction == DirectionUnpopular {
			cmp = ">"
		}
		q = q.Where("(("+countKey+" "+cmp+" ?) OR ("+countKey+" = ? AND names.id > ?))", c.Count, c.Count, c.ID)
	}

	var names []model.Name
	if err := q.Order(order).Limit(oq.Limit).Find(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *nameRepository) ListByRank(ctx context.Context) ([]model.Name, error) {
	var names []model.Name
	if err := r.db.WithContext(ctx).Order("names.rank IS NULL, names.rank ASC, names.id ASC").Find(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *nameRepository) UpdateInfo(ctx context.Context, id uint, info datatypes.JSONMap) error {
	return r.db.WithContext(ctx).
		Model(&model.Name{}).
		Where("names.id = ?", id).
		Updates(map[string]interface{}{"info": info, "info_checked_at": time.Now()}).Error
}

func (r *nameRepository) UpdateInfoByDisplayName(ctx context.Context, displayName string, info datatypes.JSONMap) error {
	return r.db.WithContext(ctx).
		Model(&model.Name{}).
		Where("names.name = ?", displayName).
		Updates(map[string]interface{}{"info": info, "info_checked_at": time.Now()}).Error
}

func (r *nameRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Name{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyFilter(q *gorm.DB, f NameFilter) *gorm.DB {
	if f.Gender != "" {
		q = q.Where("names.gender = ?", strings.ToLower(f.Gender))
	}
	if f.Source != "" {
		q = q.Where("LOWER(names.source) LIKE ?", "%"+strings.ToLower(f.Source)+"%")
	}
	return q
}
