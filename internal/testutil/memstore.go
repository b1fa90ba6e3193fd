// Package testutil provides in-memory repositories for service and HTTP tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"namo/internal/model"
	"namo/internal/repository"
)

// Store keeps users, names and votes in memory and enforces the same
// uniqueness rules as the database schema.
type Store struct {
	mu     sync.Mutex
	users  map[uint]model.User
	names  map[uint]model.Name
	votes  map[uint]model.Vote
	nextID uint
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[uint]model.User),
		names: make(map[uint]model.Name),
		votes: make(map[uint]model.Vote),
	}
}

// Users returns a UserRepository backed by the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Names returns a NameRepository backed by the store.
func (s *Store) Names() repository.NameRepository { return nameRepo{s} }

// Votes returns a VoteRepository backed by the store.
func (s *Store) Votes() repository.VoteRepository { return voteRepo{s} }

// AddName inserts a name with the given count and returns it.
func (s *Store) AddName(source, display string, gender string, count *int) model.Name {
	n := model.Name{Source: source, Name: display, Count: count}
	if gender != "" {
		g := gender
		n.Gender = &g
	}
	_ = nameRepo{s}.Create(context.Background(), &n)
	return n
}

// VoteRows returns the number of stored votes.
func (s *Store) VoteRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r userRepo) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

type nameRepo struct{ s *Store }

func (r nameRepo) Create(_ context.Context, name *model.Name) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name.ID = r.s.id()
	r.s.names[name.ID] = *name
	return nil
}

func (r nameRepo) Update(_ context.Context, name *model.Name) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.names[name.ID] = *name
	return nil
}

func (r nameRepo) FindByID(_ context.Context, id uint) (*model.Name, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.names[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (r nameRepo) FindByIDs(_ context.Context, ids []uint) ([]model.Name, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Name{}
	for _, id := range ids {
		if n, ok := r.s.names[id]; ok {
			out = append(out, n)
		}
	}
	sortByID(out)
	return out, nil
}

func (r nameRepo) FindByDisplayName(_ context.Context, display string) ([]model.Name, error) {
	return r.where(func(n model.Name) bool { return n.Name == display }), nil
}

func (r nameRepo) FindByKey(_ context.Context, source, display string, gender *string) (*model.Name, error) {
	found := r.where(func(n model.Name) bool {
		return n.Source == source && n.Name == display && sameGender(n.Gender, gender)
	})
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (r nameRepo) List(_ context.Context, f repository.NameFilter, skip, limit int) ([]model.Name, error) {
	return page(r.where(matches(f)), skip, limit), nil
}

func (r nameRepo) ListWeights(_ context.Context, q repository.WeightQuery) ([]model.NameWeight, error) {
	voted := r.s.votedBy(q.UserID)
	names := r.where(func(n model.Name) bool {
		if n.Count == nil || *n.Count <= 0 || !matches(repository.NameFilter{Gender: q.Gender})(n) {
			return false
		}
		return !q.ExcludeVoted || !voted[n.ID]
	})
	out := make([]model.NameWeight, 0, len(names))
	for _, n := range names {
		out = append(out, model.NameWeight{ID: n.ID, Count: *n.Count})
	}
	return out, nil
}

func (r nameRepo) ListOrdered(_ context.Context, q repository.OrderedQuery) ([]model.Name, error) {
	voted := r.s.votedBy(q.UserID)
	names := r.where(func(n model.Name) bool {
		if voted[n.ID] || !matches(q.Filter)(n) {
			return false
		}
		if q.After == nil {
			return true
		}
		anchor := model.Name{ID: q.After.ID, Count: &q.After.Count}
		return Before(q.Direction, anchor, n)
	})
	sort.Slice(names, func(i, j int) bool { return Before(q.Direction, names[i], names[j]) })
	return page(names, 0, q.Limit), nil
}

func (r nameRepo) ListByRank(context.Context) ([]model.Name, error) {
	names := r.where(func(model.Name) bool { return true })
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i].Rank, names[j].Rank
		if (a == nil) != (b == nil) {
			return b == nil
		}
		if a != nil && *a != *b {
			return *a < *b
		}
		return names[i].ID < names[j].ID
	})
	return names, nil
}

func (r nameRepo) UpdateInfo(_ context.Context, id uint, info datatypes.JSONMap) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n, ok := r.s.names[id]; ok {
		now := time.Now()
		n.Info, n.InfoCheckedAt = info, &now
		r.s.names[id] = n
	}
	return nil
}

func (r nameRepo) UpdateInfoByDisplayName(_ context.Context, display string, info datatypes.JSONMap) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for id, n := range r.s.names {
		if n.Name == display {
			n.Info, n.InfoCheckedAt = info, &now
			r.s.names[id] = n
		}
	}
	return nil
}

func (r nameRepo) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.names)), nil
}

func (r nameRepo) where(keep func(model.Name) bool) []model.Name {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Name{}
	for _, n := range r.s.names {
		if keep(n) {
			out = append(out, n)
		}
	}
	sortByID(out)
	return out
}

type voteRepo struct{ s *Store }

func (r voteRepo) Create(_ context.Context, vote *model.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.votes {
		if v.UserID == vote.UserID && v.NameID == vote.NameID {
			return gorm.ErrDuplicatedKey
		}
	}
	if _, ok := r.s.names[vote.NameID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	vote.ID = r.s.id()
	vote.CreatedAt = time.Now()
	vote.UpdatedAt = vote.CreatedAt
	r.s.votes[vote.ID] = *vote
	return nil
}

func (r voteRepo) Update(_ context.Context, vote *model.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.votes[vote.ID]
	if !ok {
		return nil
	}
	v.Liked = vote.Liked
	v.UpdatedAt = time.Now()
	r.s.votes[vote.ID] = v
	return nil
}

func (r voteRepo) FindByUserAndName(_ context.Context, userID, nameID uint) (*model.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.votes {
		if v.UserID == userID && v.NameID == nameID {
			return &v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r voteRepo) DeleteByUserAndName(_ context.Context, userID, nameID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, v := range r.s.votes {
		if v.UserID == userID && v.NameID == nameID {
			delete(r.s.votes, id)
			n++
		}
	}
	return n, nil
}

func (r voteRepo) ListByUser(_ context.Context, userID uint, liked *bool, skip, limit int) ([]model.Vote, error) {
	r.s.mu.Lock()
	out := []model.Vote{}
	for _, v := range r.s.votes {
		if v.UserID != userID || (liked != nil && v.Liked != *liked) {
			continue
		}
		n := r.s.names[v.NameID]
		v.Name = &n
		out = append(out, v)
	}
	r.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name.Name != out[j].Name.Name {
			return out[i].Name.Name < out[j].Name.Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, skip, limit), nil
}

func (r voteRepo) TallyByName(_ context.Context, nameID uint) (repository.VoteTally, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var t repository.VoteTally
	for _, v := range r.s.votes {
		if v.NameID == nameID {
			t.Total++
			if v.Liked {
				t.Likes++
			}
		}
	}
	return t, nil
}

func (r voteRepo) LikedNames(_ context.Context, userID uint) ([]model.Name, error) {
	r.s.mu.Lock()
	out := []model.Name{}
	for _, v := range r.s.votes {
		if v.UserID == userID && v.Liked {
			out = append(out, r.s.names[v.NameID])
		}
	}
	r.s.mu.Unlock()
	sortByID(out)
	return out, nil
}

func (s *Store) votedBy(userID uint) map[uint]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	voted := make(map[uint]bool)
	for _, v := range s.votes {
		if v.UserID == userID {
			voted[v.NameID] = true
		}
	}
	return voted
}

// Before reports whether a sorts strictly before b in the keyset order:
// count in the given direction, then ascending id.
func Before(d repository.Direction, a, b model.Name) bool {
	if a.Weight() != b.Weight() {
		if d == repository.DirectionUnpopular {
			return a.Weight() < b.Weight()
		}
		return a.Weight() > b.Weight()
	}
	return a.ID < b.ID
}

func matches(f repository.NameFilter) func(model.Name) bool {
	return func(n model.Name) bool {
		if f.Gender != "" && (n.Gender == nil || *n.Gender != strings.ToLower(f.Gender)) {
			return false
		}
		if f.Source != "" && !strings.Contains(strings.ToLower(n.Source), strings.ToLower(f.Source)) {
			return false
		}
		return true
	}
}

func sameGender(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortByID(names []model.Name) {
	sort.Slice(names, func(i, j int) bool { return names[i].ID < names[j].ID })
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
