package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namo/internal/model"
	"namo/internal/testutil"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func TestParseNamesCSV(t *testing.T) {
	input := "source,name,gender,rank,count\n" +
		"Austria,Emma,f,1,1200\n" +
		"Austria, Liam ,M,,1300\n" +
		"Germany,Kim,,3,\n"

	names, err := parseNamesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, names, 3)

	assert.Equal(t, "Emma", names[0].Name)
	assert.Equal(t, "f", *names[0].Gender)
	assert.Equal(t, 1, *names[0].Rank)
	assert.Equal(t, 1200, *names[0].Count)

	assert.Equal(t, "Liam", names[1].Name)
	assert.Equal(t, "m", *names[1].Gender)
	assert.Nil(t, names[1].Rank)

	assert.Nil(t, names[2].Gender)
	assert.Nil(t, names[2].Count)
}

func TestParseNamesCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong column count", "Austria,Emma,f\n"},
		{"bad gender", "Austria,Emma,x,1,1\n"},
		{"bad rank", "Austria,Emma,f,one,1\n"},
		{"negative count", "Austria,Emma,f,1,-5\n"},
		{"missing name", "Austria,,f,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseNamesCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestSeedNames_Upserts(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()

	seeded, updated, err := seedNames(ctx, store.Names(), sampleNames)
	require.NoError(t, err)
	assert.Equal(t, 12, seeded)
	assert.Equal(t, 0, updated)

	changed := newName("Austria", "Emma", "f", 1, 1500)
	seeded, updated, err = seedNames(ctx, store.Names(), []model.Name{changed})
	require.NoError(t, err)
	assert.Equal(t, 0, seeded)
	assert.Equal(t, 1, updated)

	emma, err := store.Names().FindByKey(ctx, "Austria", "Emma", changed.Gender)
	require.NoError(t, err)
	assert.Equal(t, 1500, *emma.Count)

	count, err := store.Names().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

func TestSeedUsers(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()

	created, err := seedUsers(ctx, store.Users(), plainHasher{})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	admin, err := store.Users().FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hashed:admin123", admin.PasswordHash)

	created, err = seedUsers(ctx, store.Users(), plainHasher{})
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
