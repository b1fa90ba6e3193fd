package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/testutil"
)

func ids(names []model.Name) []uint {
	out := make([]uint, 0, len(names))
	for _, n := range names {
		out = append(out, n.ID)
	}
	return out
}

func TestCompareService_Symmetric(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()
	alice := &model.User{Username: "alice"}
	bob := &model.User{Username: "bob"}
	require.NoError(t, store.Users().Create(ctx, alice))
	require.NoError(t, store.Users().Create(ctx, bob))

	var catalog []model.Name
	for _, display := range []string{"Emma", "Anna", "Liam", "Noah", "Mia"} {
		catalog = append(catalog, store.AddName("Austria", display, "", testutil.IntPtr(100)))
	}
	votes := NewVoteService(store.Votes(), store.Names())
	cast := func(user *model.User, n model.Name, liked bool) {
		_, err := votes.Upsert(ctx, user.ID, n.ID, liked)
		require.NoError(t, err)
	}
	cast(alice, catalog[0], true)
	cast(alice, catalog[1], true)
	cast(alice, catalog[2], false)
	cast(bob, catalog[1], true)
	cast(bob, catalog[2], true)
	cast(bob, catalog[3], true)

	svc := NewCompareService(store.Votes(), store.Users())

	ab, err := svc.Compare(ctx, alice.ID, "bob")
	require.NoError(t, err)
	ba, err := svc.Compare(ctx, bob.ID, "alice")
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint{catalog[1].ID}, ids(ab.Both))
	assert.ElementsMatch(t, []uint{catalog[0].ID}, ids(ab.OnlyA))
	assert.ElementsMatch(t, []uint{catalog[2].ID, catalog[3].ID}, ids(ab.OnlyB))

	assert.ElementsMatch(t, ids(ab.Both), ids(ba.Both))
	assert.ElementsMatch(t, ids(ab.OnlyA), ids(ba.OnlyB))
	assert.ElementsMatch(t, ids(ab.OnlyB), ids(ba.OnlyA))
	assert.Equal(t, "Emma", ab.OnlyA[0].Name)
}

func TestCompareService_UnknownUser(t *testing.T) {
	store := testutil.NewStore()

	_, err := NewCompareService(store.Votes(), store.Users()).Compare(context.Background(), 1, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestPartition_Empty(t *testing.T) {
	got := Partition(nil, nil)
	assert.Empty(t, got.Both)
	assert.NotNil(t, got.OnlyA)
	assert.NotNil(t, got.OnlyB)
}
