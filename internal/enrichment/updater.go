package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"namo/internal/cache"
	"namo/internal/model"
)

// Fetcher looks up enrichment data for a display name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (map[string]string, error)
}

// NameStore is the part of the catalog the updater reads and writes.
type NameStore interface {
	ListByRank(ctx context.Context) ([]model.Name, error)
	UpdateInfo(ctx context.Context, id uint, info datatypes.JSONMap) error
}

// Invalidator drops cached copies of a record.
type Invalidator interface {
	Delete(ctx context.Context, key string) error
}

// Result summarises one updater run.
type Result struct {
	Candidates int
	Updated    int
	Empty      int
	Failed     int
}

// Updater fills missing info on catalog names, best ranked first.
type Updater struct {
	store   NameStore
	fetcher Fetcher
	logger  *slog.Logger
	cache   Invalidator
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithCache evicts the cached copy of every name the updater writes.
func WithCache(c Invalidator) UpdaterOption {
	return func(u *Updater) { u.cache = c }
}

// NewUpdater builds an updater.
func NewUpdater(store NameStore, fetcher Fetcher, logger *slog.Logger, opts ...UpdaterOption) *Updater {
	u := &Updater{store: store, fetcher: fetcher, logger: logger}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run processes the names that still need info: all of them when all is set,
// otherwise only the first. Names the source knows nothing about are stored
// with an empty map so they are not retried; fetch failures are logged and
// left for a later run.
func (u *Updater) Run(ctx context.Context, all bool) (Result, error) {
	var res Result

	names, err := u.store.ListByRank(ctx)
	if err != nil {
		return res, fmt.Errorf("list names: %w", err)
	}

	var pending []model.Name
	for _, n := range names {
		if n.NeedsInfo() {
			pending = append(pending, n)
		}
	}
	res.Candidates = len(pending)
	if !all && len(pending) > 1 {
		pending = pending[:1]
	}

	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		data, err := u.fetcher.Fetch(ctx, n.Name)
		if err != nil {
			res.Failed++
			u.logger.Warn("name info fetch failed", "name_id", n.ID, "name", n.Name, "error", err)
			continue
		}

		info := ToInfo(data)
		if err := u.store.UpdateInfo(ctx, n.ID, info); err != nil {
			return res, fmt.Errorf("store info for name %d: %w", n.ID, err)
		}
		u.evict(ctx, n.ID)
		if len(info) == 0 {
			res.Empty++
			u.logger.Info("no name info found", "name_id", n.ID, "name", n.Name)
			continue
		}
		res.Updated++
		u.logger.Info("name info stored", "name_id", n.ID, "name", n.Name, "categories", len(info))
	}

	return res, nil
}

func (u *Updater) evict(ctx context.Context, id uint) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, cache.NameKey(id)); err != nil {
		u.logger.Warn("name cache eviction failed", "name_id", id, "error", err)
	}
}

// ToInfo converts fetched data to the stored column type.
func ToInfo(data map[string]string) datatypes.JSONMap {
	info := make(datatypes.JSONMap, len(data))
	for k, v := range data {
		info[k] = v
	}
	return info
}
