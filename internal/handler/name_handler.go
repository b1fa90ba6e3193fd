package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"namo/internal/model"
	"namo/internal/repository"
	"namo/internal/service"
)

// NameHandler handles catalog endpoints.
type NameHandler struct {
	nameService service.NameService
}

// NewNameHandler creates a new name handler.
func NewNameHandler(nameService service.NameService) *NameHandler {
	return &NameHandler{nameService: nameService}
}

// RandomNamesQuery are the query parameters of GET /names/random.
type RandomNamesQuery struct {
	N            int    `validate:"min=1,max=100"`
	Gender       string `validate:"omitempty,oneof=m f"`
	ExcludeVoted bool
}

// OrderedNamesQuery are the query parameters of GET /names/ordered.
type OrderedNamesQuery struct {
	Direction string `validate:"required,oneof=popular unpopular"`
	After     *uint
	Limit     int
	Source    string
	Gender    string `validate:"omitempty,oneof=m f"`
}

// ListNamesQuery are the query parameters of GET /names.
type ListNamesQuery struct {
	Skip   int `validate:"min=0"`
	Limit  int
	Gender string
	Source string
}

// CreateNameRequest represents a new catalog entry.
type CreateNameRequest struct {
	Source string  `json:"source" validate:"required,max=100"`
	Name   string  `json:"name" validate:"required,max=255"`
	Gender *string `json:"gender" validate:"omitempty,oneof=m f M F"`
	Rank   *int    `json:"rank" validate:"omitempty,min=0"`
	Count  *int    `json:"count" validate:"omitempty,min=0"`
}

// NameIDParam is the path parameter of GET /names/:id.
type NameIDParam struct {
	ID uint `param:"id"`
}

// Random godoc
// @Summary Weighted random voting candidates
// @Description Draws up to n distinct names, weighted by popularity, skipping names the user already voted on unless excludeVoted=false.
// @Tags names
// @Produce json
// @Security BearerAuth
// @Param n query int false "Number of names (1-100)" default(10)
// @Param gender query string false "m or f"
// @Param excludeVoted query bool false "Skip names already voted on" default(true)
// @Success 200 {array} model.Name
// @Success 204 "No names left"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /names/random [get]
func (h *NameHandler) Random(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	q := RandomNamesQuery{N: 10, ExcludeVoted: true}
	if err := echo.QueryParamsBinder(c).
		Int("n", &q.N).
		String("gender", &q.Gender).
		Bool("excludeVoted", &q.ExcludeVoted).
		BindError(); err != nil {
		return badRequest("invalid query parameters")
	}
	q.N = clampLimit(q.N)
	q.Gender = strings.ToLower(q.Gender)
	if err := c.Validate(&q); err != nil {
		return badRequest(err.Error())
	}

	names, err := h.nameService.Random(c.Request().Context(), service.RandomQuery{
		UserID:       user.ID,
		N:            q.N,
		Gender:       q.Gender,
		ExcludeVoted: q.ExcludeVoted,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, names)
}

// Ordered godoc
// @Summary Keyset-paginated names by popularity
// @Description Pages through names the user has not voted on. Pass the id of the last name of a page as after to get the next one.
// @Tags names
// @Produce json
// @Security BearerAuth
// @Param direction query string true "popular or unpopular"
// @Param after query int false "Id of the last name seen"
// @Param limit query int false "Page size (1-100)" default(20)
// @Param source query string false "Source substring"
// @Param gender query string false "m or f"
// @Success 200 {array} model.Name
// @Success 204 "No more names"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /names/ordered [get]
func (h *NameHandler) Ordered(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	q := OrderedNamesQuery{Direction: string(repository.DirectionPopular), Limit: 20}
	var after uint
	if err := echo.QueryParamsBinder(c).
		String("direction", &q.Direction).
		Uint("after", &after).
		Int("limit", &q.Limit).
		String("source", &q.Source).
		String("gender", &q.Gender).
		BindError(); err != nil {
		return badRequest("invalid query parameters")
	}
	if c.QueryParam("after") != "" {
		q.After = &after
	}
	q.Limit = clampLimit(q.Limit)
	q.Gender = strings.ToLower(q.Gender)
	if err := c.Validate(&q); err != nil {
		return badRequest(err.Error())
	}

	names, err := h.nameService.Ordered(c.Request().Context(), service.OrderedQuery{
		UserID:    user.ID,
		Direction: repository.Direction(q.Direction),
		AfterID:   q.After,
		Limit:     q.Limit,
		Filter:    repository.NameFilter{Gender: q.Gender, Source: q.Source},
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, names)
}

// List godoc
// @Summary Browse the catalog
// @Tags names
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size (1-100)" default(100)
// @Param gender query string false "m or f"
// @Param source query string false "Source substring"
// @Success 200 {array} model.Name
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /names [get]
func (h *NameHandler) List(c echo.Context) error {
	q := ListNamesQuery{Limit: maxPageSize}
	if err := echo.QueryParamsBinder(c).
		Int("skip", &q.Skip).
		Int("limit", &q.Limit).
		String("gender", &q.Gender).
		String("source", &q.Source).
		BindError(); err != nil {
		return badRequest("invalid query parameters")
	}
	q.Limit = clampLimit(q.Limit)
	if err := c.Validate(&q); err != nil {
		return badRequest(err.Error())
	}

	// unknown genders are ignored rather than rejected when browsing
	gender := strings.ToLower(q.Gender)
	if gender != model.GenderMale && gender != model.GenderFemale {
		gender = ""
	}

	names, err := h.nameService.List(c.Request().Context(), repository.NameFilter{Gender: gender, Source: q.Source}, q.Skip, q.Limit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, names)
}

// Create godoc
// @Summary Create a name
// @Tags names
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateNameRequest true "Name data"
// @Success 201 {object} model.Name
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /names [post]
func (h *NameHandler) Create(c echo.Context) error {
	var req CreateNameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	name := &model.Name{
		Source: req.Source,
		Name:   req.Name,
		Gender: req.Gender,
		Rank:   req.Rank,
		Count:  req.Count,
	}
	if err := h.nameService.Create(c.Request().Context(), name); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, name)
}

// Get godoc
// @Summary Get a name
// @Tags names
// @Produce json
// @Security BearerAuth
// @Param id path int true "Name ID"
// @Success 200 {object} model.Name
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /names/{id} [get]
func (h *NameHandler) Get(c echo.Context) error {
	var p NameIDParam
	if err := c.Bind(&p); err != nil || p.ID == 0 {
		return badRequest("invalid name id")
	}

	name, err := h.nameService.Get(c.Request().Context(), p.ID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, name)
}

// Info godoc
// @Summary Enrichment data for a display name
// @Tags names
// @Produce json
// @Security BearerAuth
// @Param name path string true "Display name"
// @Success 200 {object} service.NameInfo
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /names/info/{name} [get]
func (h *NameHandler) Info(c echo.Context) error {
	displayName := strings.TrimSpace(c.Param("name"))
	if displayName == "" {
		return badRequest("name is required")
	}

	info, err := h.nameService.Info(c.Request().Context(), displayName)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, info)
}
