package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/joacominatel/pulsefeed/internal/application"
)

// InteractionHandler handles interaction related HTTP requests.
type InteractionHandler struct {
	recordUseCase *application.RecordInteractionUseCase
}

// NewInteractionHandler creates a new InteractionHandler.
func NewInteractionHandler(recordUseCase *application.RecordInteractionUseCase) *InteractionHandler {
	return &InteractionHandler{
		recordUseCase: recordUseCase,
	}
}

// RegisterRoutes registers the interaction routes on the given group.
func (h *InteractionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/interactions", h.RecordInteraction)
}

// RecordInteractionRequest is the request body for recording an interaction.
type RecordInteractionRequest struct {
	PostID   string         `json:"post_id" validate:"required,max=128"`
	Kind     string         `json:"kind" validate:"required,oneof=view like comment save share report"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RecordInteractionResponse is the response for an accepted interaction.
type RecordInteractionResponse struct {
	InteractionID string `json:"interaction_id"`
	PostID        string `json:"post_id"`
	Kind          string `json:"kind"`
	Accepted      bool   `json:"accepted"`
}

// RecordInteraction handles POST /api/v1/interactions
// queues a viewer interaction; counters update asynchronously.
//
// @Summary Record interaction
// @Description Records a like, comment, save, share, report or view on a post
// @Tags interactions
// @Accept json
// @Produce json
// @Param body body RecordInteractionRequest true "Interaction data"
// @Success 202 {object} RecordInteractionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/interactions [post]
func (h *InteractionHandler) RecordInteraction(c echo.Context) error {
	var req RecordInteractionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.recordUseCase.Execute(c.Request().Context(), application.RecordInteractionInput{
		ViewerID: GetViewerID(c),
		PostID:   req.PostID,
		Kind:     req.Kind,
		Metadata: req.Metadata,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusAccepted, RecordInteractionResponse{
		InteractionID: output.InteractionID,
		PostID:        output.PostID,
		Kind:          output.Kind,
		Accepted:      output.Accepted,
	})
}
