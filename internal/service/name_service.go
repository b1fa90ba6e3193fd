package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"namo/internal/cache"
	"namo/internal/enrichment"
	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/repository"
	"namo/internal/sampler"
)

const nameCacheTTL = 5 * time.Minute

// Cache is a best-effort key/value store; misses and outages look the same.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RandomQuery parameterises weighted candidate selection.
type RandomQuery struct {
	UserID       uint
	N            int
	Gender       string
	ExcludeVoted bool
}

// OrderedQuery parameterises keyset browsing. AfterID is the id of the last
// name on the previous page.
type OrderedQuery struct {
	UserID    uint
	Direction repository.Direction
	AfterID   *uint
	Limit     int
	Filter    repository.NameFilter
}

// NameInfo is enrichment data for a display name.
type NameInfo struct {
	Name string                 `json:"name"`
	Info map[string]interface{} `json:"info"`
}

// NameService serves the name catalog.
type NameService interface {
	List(ctx context.Context, filter repository.NameFilter, skip, limit int) ([]model.Name, error)
	Create(ctx context.Context, name *model.Name) error
	Get(ctx context.Context, id uint) (*model.Name, error)
	Random(ctx context.Context, q RandomQuery) ([]model.Name, error)
	Ordered(ctx context.Context, q OrderedQuery) ([]model.Name, error)
	Info(ctx context.Context, displayName string) (*NameInfo, error)
}

type nameService struct {
	nameRepo repository.NameRepository
	fetcher  enrichment.Fetcher
	cache    Cache
	infoTTL  time.Duration
	source   sampler.Source
	logger   *slog.Logger
}

// NameServiceOption customises a name service.
type NameServiceOption func(*nameService)

// WithRandomSource replaces the sampler's randomness.
func WithRandomSource(src sampler.Source) NameServiceOption {
	return func(s *nameService) { s.source = src }
}

// WithInfoTTL sets how long fetched name info stays cached.
func WithInfoTTL(ttl time.Duration) NameServiceOption {
	return func(s *nameService) { s.infoTTL = ttl }
}

// NewNameService creates a new name service.
func NewNameService(nameRepo repository.NameRepository, fetcher enrichment.Fetcher, cache Cache, logger *slog.Logger, opts ...NameServiceOption) NameService {
	s := &nameService{
		nameRepo: nameRepo,
		fetcher:  fetcher,
		cache:    cache,
		infoTTL:  24 * time.Hour,
		source:   sampler.DefaultSource,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *nameService) List(ctx context.Context, filter repository.NameFilter, skip, limit int) ([]model.Name, error) {
	names, err := s.nameRepo.List(ctx, filter, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	return names, nil
}

func (s *nameService) Create(ctx context.Context, name *model.Name) error {
	if name.Gender != nil {
		g := strings.ToLower(*name.Gender)
		name.Gender = &g
	}
	if err := s.nameRepo.Create(ctx, name); err != nil {
		return fmt.Errorf("create name: %w", err)
	}
	return nil
}

// Get returns a name, reading through the cache.
func (s *nameService) Get(ctx context.Context, id uint) (*model.Name, error) {
	key := nameCacheKey(id)
	var cached model.Name
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	name, err := s.nameRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNameNotFound
		}
		return nil, fmt.Errorf("find name: %w", err)
	}

	_ = s.cache.SetJSON(ctx, key, name, nameCacheTTL)
	return name, nil
}

// Random draws up to q.N distinct names weighted by popularity count.
func (s *nameService) Random(ctx context.Context, q RandomQuery) ([]model.Name, error) {
	weights, err := s.nameRepo.ListWeights(ctx, repository.WeightQuery{
		UserID:       q.UserID,
		Gender:       q.Gender,
		ExcludeVoted: q.ExcludeVoted,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	items := make([]sampler.Item, 0, len(weights))
	for _, w := range weights {
		items = append(items, sampler.Item{ID: w.ID, Weight: int64(w.Count)})
	}
	ids := sampler.Sample(items, q.N, s.source)
	if len(ids) == 0 {
		return nil, apperrors.ErrNoContent
	}

	names, err := s.nameRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load sampled names: %w", err)
	}

	// keep the sampler's order, not the store's
	byID := make(map[uint]model.Name, len(names))
	for _, name := range names {
		byID[name.ID] = name
	}
	out := make([]model.Name, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.ErrNoContent
	}
	return out, nil
}

// Ordered returns one keyset page of names the user has not voted on.
func (s *nameService) Ordered(ctx context.Context, q OrderedQuery) ([]model.Name, error) {
	if !q.Direction.Valid() {
		return nil, apperrors.Invalid("direction must be popular or unpopular")
	}

	var cursor *repository.Cursor
	if q.AfterID != nil {
		anchor, err := s.nameRepo.FindByID(ctx, *q.AfterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrInvalidCursor
			}
			return nil, fmt.Errorf("resolve cursor: %w", err)
		}
		cursor = &repository.Cursor{ID: anchor.ID, Count: anchor.Weight()}
	}

	names, err := s.nameRepo.ListOrdered(ctx, repository.OrderedQuery{
		UserID:    q.UserID,
		Direction: q.Direction,
		After:     cursor,
		Limit:     q.Limit,
		Filter:    q.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("list ordered names: %w", err)
	}
	if len(names) == 0 {
		return nil, apperrors.ErrNoContent
	}
	return names, nil
}

// Info returns enrichment data for a display name from the catalog, the
// cache or the external source, in that order. Fresh results are cached and
// written back to every name with that display name.
func (s *nameService) Info(ctx context.Context, displayName string) (*NameInfo, error) {
	rows, err := s.nameRepo.FindByDisplayName(ctx, displayName)
	if err != nil {
		return nil, fmt.Errorf("find name: %w", err)
	}
	for _, row := range rows {
		if row.HasInfo() {
			return &NameInfo{Name: displayName, Info: row.Info}, nil
		}
	}

	key := infoCacheKey(displayName)
	var cached map[string]interface{}
	if s.cache.GetJSON(ctx, key, &cached) && len(cached) > 0 {
		return &NameInfo{Name: displayName, Info: cached}, nil
	}

	if s.fetcher == nil {
		return nil, apperrors.ErrEnrichmentUnavailable
	}
	data, err := s.fetcher.Fetch(ctx, displayName)
	if err != nil {
		s.logger.Warn("name info lookup failed", "name", displayName, "error", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEnrichmentUnavailable, err)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrInfoNotFound
	}

	info := enrichment.ToInfo(data)
	_ = s.cache.SetJSON(ctx, key, info, s.infoTTL)
	if len(rows) > 0 {
		if err := s.nameRepo.UpdateInfoByDisplayName(ctx, displayName, info); err != nil {
			s.logger.Warn("persist name info failed", "name", displayName, "error", err)
		}
		for _, row := range rows {
			_ = s.cache.Delete(ctx, nameCacheKey(row.ID))
		}
	}
	return &NameInfo{Name: displayName, Info: info}, nil
}

func nameCacheKey(id uint) string {
	return cache.NameKey(id)
}

func infoCacheKey(displayName string) string {
	return "name_info:" + strings.ToLower(displayName)
}
