package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"namo/internal/service"
)

// VoteHandler handles voting endpoints.
type VoteHandler struct {
	voteService    service.VoteService
	compareService service.CompareService
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(voteService service.VoteService, compareService service.CompareService) *VoteHandler {
	return &VoteHandler{
		voteService:    voteService,
		compareService: compareService,
	}
}

// VoteRequest records a like (true) or dislike (false).
type VoteRequest struct {
	NameID uint  `json:"name_id" validate:"required"`
	Vote   *bool `json:"vote" validate:"required"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// NameIDPathParam is the path parameter of the per-name vote routes.
type NameIDPathParam struct {
	NameID uint `param:"nameId"`
}

// Cast godoc
// @Summary Vote on a name
// @Description Records a like or dislike. Voting again on the same name overwrites the previous vote.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VoteRequest true "Vote"
// @Success 200 {object} model.Vote
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /votes [post]
func (h *VoteHandler) Cast(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	vote, err := h.voteService.Upsert(c.Request().Context(), user.ID, req.NameID, *req.Vote)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, vote)
}

// List godoc
// @Summary List own votes
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param vote query bool false "Only likes (true) or dislikes (false)"
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size (1-100)" default(100)
// @Success 200 {array} model.Vote
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /votes [get]
func (h *VoteHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	skip, limit := 0, maxPageSize
	var liked bool
	if err := echo.QueryParamsBinder(c).
		Bool("vote", &liked).
		Int("skip", &skip).
		Int("limit", &limit).
		BindError(); err != nil {
		return badRequest("invalid query parameters")
	}
	if skip < 0 {
		return badRequest("skip must not be negative")
	}

	var filter *bool
	if c.QueryParam("vote") != "" {
		filter = &liked
	}

	votes, err := h.voteService.List(c.Request().Context(), user.ID, filter, skip, clampLimit(limit))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, votes)
}

// Remove godoc
// @Summary Withdraw a vote
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param nameId path int true "Name ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /votes/by-name/{nameId} [delete]
func (h *VoteHandler) Remove(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var p NameIDPathParam
	if err := c.Bind(&p); err != nil || p.NameID == 0 {
		return badRequest("invalid name id")
	}

	if err := h.voteService.Remove(c.Request().Context(), user.ID, p.NameID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "vote deleted"})
}

// Stats godoc
// @Summary Vote statistics for a name
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param nameId path int true "Name ID"
// @Success 200 {object} model.VoteStats
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /votes/{nameId}/stats [get]
func (h *VoteHandler) Stats(c echo.Context) error {
	var p NameIDPathParam
	if err := c.Bind(&p); err != nil || p.NameID == 0 {
		return badRequest("invalid name id")
	}

	stats, err := h.voteService.Stats(c.Request().Context(), p.NameID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Compare godoc
// @Summary Compare likes with another user
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param otherUsername query string true "User to compare with"
// @Success 200 {object} model.Comparison
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /votes/compare [get]
func (h *VoteHandler) Compare(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	// usernames are matched exactly, as registered
	other := c.QueryParam("otherUsername")
	if other == "" {
		return badRequest("otherUsername is required")
	}

	cmp, err := h.compareService.Compare(c.Request().Context(), user.ID, other)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, cmp)
}
