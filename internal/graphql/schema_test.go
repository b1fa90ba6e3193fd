package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namo/internal/cache"
	"namo/internal/model"
	"namo/internal/service"
	"namo/internal/testutil"
)

type fixture struct {
	schema graphql.Schema
	store  *testutil.Store
	emma   model.Name
	liam   model.Name
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore()
	emma := store.AddName("Austria", "Emma", "f", testutil.IntPtr(1200))
	liam := store.AddName("Austria", "Liam", "m", testutil.IntPtr(1300))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	names := service.NewNameService(store.Names(), nil, (*cache.Client)(nil), logger)
	votes := service.NewVoteService(store.Votes(), store.Names())

	schema, err := NewSchema(names, votes, logger)
	require.NoError(t, err)
	return fixture{schema: schema, store: store, emma: emma, liam: liam}
}

func run(ctx context.Context, schema graphql.Schema, query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}

func dataJSON(t *testing.T, r *graphql.Result) string {
	t.Helper()
	require.Empty(t, r.Errors)
	raw, err := json.Marshal(r.Data)
	require.NoError(t, err)
	return string(raw)
}

func TestSchema_NamesFilter(t *testing.T) {
	f := newFixture(t)

	r := run(context.Background(), f.schema, `{ names(gender: "f") { name gender count } }`, nil)

	assert.JSONEq(t, `{"names":[{"name":"Emma","gender":"f","count":1200}]}`, dataJSON(t, r))
}

func TestSchema_NameByID(t *testing.T) {
	f := newFixture(t)

	r := run(context.Background(), f.schema, `query($id: Int!) { name(id: $id) { id name source } }`,
		map[string]interface{}{"id": int(f.liam.ID)})

	assert.JSONEq(t, `{"name":{"id":`+jsonInt(f.liam.ID)+`,"name":"Liam","source":"Austria"}}`, dataJSON(t, r))
}

func TestSchema_UnknownName(t *testing.T) {
	f := newFixture(t)

	r := run(context.Background(), f.schema, `{ name(id: 999) { name } }`, nil)

	require.NotEmpty(t, r.Errors)
	assert.Contains(t, r.Errors[0].Message, "not found")
}

func TestSchema_InvalidLimit(t *testing.T) {
	f := newFixture(t)

	r := run(context.Background(), f.schema, `{ names(limit: 0) { name } }`, nil)

	require.NotEmpty(t, r.Errors)
	assert.Contains(t, r.Errors[0].Message, "invalid input")
}

func TestSchema_VoteRequiresUser(t *testing.T) {
	f := newFixture(t)

	r := run(context.Background(), f.schema, `mutation($id: Int!) { vote(nameId: $id, vote: true) { vote } }`,
		map[string]interface{}{"id": int(f.emma.ID)})

	require.NotEmpty(t, r.Errors)
	assert.Equal(t, 0, f.store.VoteRows())
}

func TestSchema_VoteThenStats(t *testing.T) {
	f := newFixture(t)
	ctx := WithUser(context.Background(), &model.User{ID: 1, Username: "alice"})
	vars := map[string]interface{}{"id": int(f.emma.ID)}

	r := run(ctx, f.schema, `mutation($id: Int!) { vote(nameId: $id, vote: true) { nameId vote } }`, vars)
	assert.JSONEq(t, `{"vote":{"nameId":`+jsonInt(f.emma.ID)+`,"vote":true}}`, dataJSON(t, r))

	r = run(ctx, f.schema, `query($id: Int!) { stats(nameId: $id) { totalVotes likes dislikes likePercentage } }`, vars)
	assert.JSONEq(t, `{"stats":{"totalVotes":1,"likes":1,"dislikes":0,"likePercentage":100}}`, dataJSON(t, r))

	r = run(ctx, f.schema, `{ myVotes(vote: true) { vote name { name } } }`, nil)
	assert.JSONEq(t, `{"myVotes":[{"vote":true,"name":{"name":"Emma"}}]}`, dataJSON(t, r))
}

// brokenNames fails every lookup the way an unreachable database would.
type brokenNames struct {
	service.NameService
}

func (brokenNames) Get(context.Context, uint) (*model.Name, error) {
	return nil, errors.New(`find name: dial tcp 10.0.0.5:5432: connection refused`)
}

func TestSchema_InternalFailureIsLoggedAndMasked(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	store := testutil.NewStore()
	schema, err := NewSchema(brokenNames{}, service.NewVoteService(store.Votes(), store.Names()), logger)
	require.NoError(t, err)

	r := run(context.Background(), schema, `{ name(id: 1) { name } }`, nil)

	require.Len(t, r.Errors, 1)
	assert.Equal(t, "internal server error", r.Errors[0].Message)
	assert.Contains(t, logs.String(), "graphql resolver failed")
	assert.Contains(t, logs.String(), "connection refused")
}

func TestSchema_ClientErrorsAreNotLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	store := testutil.NewStore()
	names := service.NewNameService(store.Names(), nil, (*cache.Client)(nil), logger)
	schema, err := NewSchema(names, service.NewVoteService(store.Votes(), store.Names()), logger)
	require.NoError(t, err)

	r := run(context.Background(), schema, `{ name(id: 404) { name } }`, nil)

	require.NotEmpty(t, r.Errors)
	assert.Contains(t, r.Errors[0].Message, "not found")
	assert.NotContains(t, logs.String(), "graphql resolver failed")
}

func TestInfoEntries_SortedByKey(t *testing.T) {
	got := infoEntries(map[string]interface{}{"Herkunft": "hebräisch", "Bedeutung": "Gott ist gnädig"})

	require.Len(t, got, 2)
	assert.Equal(t, "Bedeutung", got[0]["key"])
	assert.Equal(t, "Herkunft", got[1]["key"])
}

func jsonInt(v uint) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
