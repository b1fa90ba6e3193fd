// Package graphql exposes a read-mostly GraphQL view of the catalog and the
// caller's votes.
package graphql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"github.com/labstack/echo/v4"

	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/repository"
	"namo/internal/service"
)

type ctxKey struct{}

// WithUser stores the authenticated user for resolvers.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFrom returns the user stored by WithUser.
func UserFrom(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*model.User)
	return user, ok && user != nil
}

var infoEntryType = graphql.NewObject(
	graphql.ObjectConfig{
		Name: "InfoEntry",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"value": &graphql.Field{Type: graphql.String},
		},
	},
)

var nameType = graphql.NewObject(
	graphql.ObjectConfig{
		Name: "Name",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"source": &graphql.Field{Type: graphql.String},
			"name":   &graphql.Field{Type: graphql.String},
			"gender": &graphql.Field{Type: graphql.String},
			"rank":   &graphql.Field{Type: graphql.Int},
			"count":  &graphql.Field{Type: graphql.Int},
			"info":   &graphql.Field{Type: graphql.NewList(infoEntryType)},
		},
	},
)

var voteType = graphql.NewObject(
	graphql.ObjectConfig{
		Name: "Vote",
		Fields: graphql.Fields{
			"nameId": &graphql.Field{Type: graphql.Int},
			"vote":   &graphql.Field{Type: graphql.Boolean},
			"name":   &graphql.Field{Type: nameType},
		},
	},
)

var statsType = graphql.NewObject(
	graphql.ObjectConfig{
		Name: "VoteStats",
		Fields: graphql.Fields{
			"nameId":         &graphql.Field{Type: graphql.Int},
			"name":           &graphql.Field{Type: graphql.String},
			"totalVotes":     &graphql.Field{Type: graphql.Int},
			"likes":          &graphql.Field{Type: graphql.Int},
			"dislikes":       &graphql.Field{Type: graphql.Int},
			"likePercentage": &graphql.Field{Type: graphql.Float},
		},
	},
)

// NewSchema builds the schema on top of the name and vote services.
// Unexpected resolver failures are logged and reported before being masked.
func NewSchema(names service.NameService, votes service.VoteService, logger *slog.Logger) (graphql.Schema, error) {
	fail := func(ctx context.Context, err error) error {
		public := publicError(err)
		if public == errInternal {
			logger.ErrorContext(ctx, "graphql resolver failed", slog.Any("error", err))
			hub := sentry.GetHubFromContext(ctx)
			if hub == nil {
				hub = sentry.CurrentHub()
			}
			hub.CaptureException(err)
		}
		return public
	}

	query := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"name": &graphql.Field{
					Type: nameType,
					Args: graphql.FieldConfigArgument{
						"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						id, _ := p.Args["id"].(int)
						if id <= 0 {
							return nil, apperrors.Invalid("id must be positive")
						}
						name, err := names.Get(p.Context, uint(id))
						if err != nil {
							return nil, fail(p.Context, err)
						}
						return nameObject(*name), nil
					},
				},
				"names": &graphql.Field{
					Type: graphql.NewList(nameType),
					Args: graphql.FieldConfigArgument{
						"skip":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
						"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
						"gender": &graphql.ArgumentConfig{Type: graphql.String},
						"source": &graphql.ArgumentConfig{Type: graphql.String},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						skip, _ := p.Args["skip"].(int)
						limit, _ := p.Args["limit"].(int)
						gender, _ := p.Args["gender"].(string)
						gender = strings.ToLower(gender)
						source, _ := p.Args["source"].(string)
						if skip < 0 || limit < 1 || limit > 100 {
							return nil, apperrors.Invalid("skip must be >= 0 and limit within 1..100")
						}
						list, err := names.List(p.Context, repository.NameFilter{Gender: gender, Source: source}, skip, limit)
						if err != nil {
							return nil, fail(p.Context, err)
						}
						out := make([]map[string]interface{}, 0, len(list))
						for _, n := range list {
							out = append(out, nameObject(n))
						}
						return out, nil
					},
				},
				"stats": &graphql.Field{
					Type: statsType,
					Args: graphql.FieldConfigArgument{
						"nameId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						id, _ := p.Args["nameId"].(int)
						if id <= 0 {
							return nil, apperrors.Invalid("nameId must be positive")
						}
						stats, err := votes.Stats(p.Context, uint(id))
						if err != nil {
							return nil, fail(p.Context, err)
						}
						return map[string]interface{}{
							"nameId":         stats.NameID,
							"name":           stats.Name,
							"totalVotes":     stats.TotalVotes,
							"likes":          stats.Likes,
							"dislikes":       stats.Dislikes,
							"likePercentage": stats.LikePercentage,
						}, nil
					},
				},
				"myVotes": &graphql.Field{
					Type: graphql.NewList(voteType),
					Args: graphql.FieldConfigArgument{
						"vote": &graphql.ArgumentConfig{Type: graphql.Boolean},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						user, ok := UserFrom(p.Context)
						if !ok {
							return nil, fail(p.Context, apperrors.ErrAuthentication)
						}
						var filter *bool
						if v, ok := p.Args["vote"].(bool); ok {
							filter = &v
						}
						list, err := votes.List(p.Context, user.ID, filter, 0, 100)
						if err != nil {
							return nil, fail(p.Context, err)
						}
						out := make([]map[string]interface{}, 0, len(list))
						for _, v := range list {
							out = append(out, voteObject(v))
						}
						return out, nil
					},
				},
			},
		},
	)

	mutation := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"vote": &graphql.Field{
					Type: voteType,
					Args: graphql.FieldConfigArgument{
						"nameId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
						"vote":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						user, ok := UserFrom(p.Context)
						if !ok {
							return nil, fail(p.Context, apperrors.ErrAuthentication)
						}
						id, _ := p.Args["nameId"].(int)
						liked, _ := p.Args["vote"].(bool)
						if id <= 0 {
							return nil, apperrors.Invalid("nameId must be positive")
						}
						vote, err := votes.Upsert(p.Context, user.ID, uint(id), liked)
						if err != nil {
							return nil, fail(p.Context, err)
						}
						return voteObject(*vote), nil
					},
				},
			},
		},
	)

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// NewHandler serves the schema over HTTP. The echo handler copies the user
// set by the JWT middleware and the request's Sentry hub into the request
// context.
func NewHandler(schema graphql.Schema, userKey string) echo.HandlerFunc {
	h := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: false,
	})

	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if user, ok := c.Get(userKey).(*model.User); ok {
			ctx = WithUser(ctx, user)
		}
		if hub := sentryecho.GetHubFromContext(c); hub != nil {
			ctx = sentry.SetHubOnContext(ctx, hub)
		}
		h.ContextHandler(ctx, c.Response(), c.Request())
		return nil
	}
}

var errInternal = errors.New("internal server error")

// publicError hides internal failures from GraphQL clients. Known failures
// are returned unchanged.
func publicError(err error) error {
	var inputErr *apperrors.InputError
	switch {
	case errors.As(err, &inputErr):
		return inputErr
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrAuthentication),
		errors.Is(err, apperrors.ErrConflict):
		return err
	default:
		return errInternal
	}
}

func nameObject(n model.Name) map[string]interface{} {
	obj := map[string]interface{}{
		"id":     n.ID,
		"source": n.Source,
		"name":   n.Name,
		"info":   infoEntries(n.Info),
	}
	if n.Gender != nil {
		obj["gender"] = *n.Gender
	}
	if n.Rank != nil {
		obj["rank"] = *n.Rank
	}
	if n.Count != nil {
		obj["count"] = *n.Count
	}
	return obj
}

func voteObject(v model.Vote) map[string]interface{} {
	obj := map[string]interface{}{
		"nameId": v.NameID,
		"vote":   v.Liked,
	}
	if v.Name != nil {
		obj["name"] = nameObject(*v.Name)
	}
	return obj
}

// infoEntries flattens the info map into key-sorted pairs.
func infoEntries(info map[string]interface{}) []map[string]interface{} {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]interface{}{
			"key":   k,
			"value": fmt.Sprint(info[k]),
		})
	}
	return out
}
