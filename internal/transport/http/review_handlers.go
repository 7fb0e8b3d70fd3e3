package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/service/reviews"
	"github.com/tramcham/tramcham-server/internal/store"
)

// ReviewHandlers provides HTTP handlers for the feedback board.
type ReviewHandlers struct {
	service *reviews.Service
	log     *zerolog.Logger
}

// NewReviewHandlers creates a new review handlers instance.
func NewReviewHandlers(service *reviews.Service, logger *zerolog.Logger) *ReviewHandlers {
	return &ReviewHandlers{
		service: service,
		log:     logger,
	}
}

// CreateReviewRequest represents the create review request body.
type CreateReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewResponse represents a review in API responses.
type ReviewResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

// ReviewListResponse wraps the review list.
type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

func toReviewResponse(r *store.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		Name:      r.Name,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// ListReviews handles listing reviews.
// GET /api/reviews
func (h *ReviewHandlers) ListReviews(c *gin.Context) {
	list := h.service.List(c.Request.Context())

	response := make([]ReviewResponse, 0, len(list))
	for _, r := range list {
		response = append(response, toReviewResponse(r))
	}
	c.JSON(http.StatusOK, ReviewListResponse{Reviews: response})
}

// CreateReview handles review submission.
// POST /api/reviews
func (h *ReviewHandlers) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create review request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	review, err := h.service.Create(c.Request.Context(), reviews.CreateInput{
		Name:    req.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_error", Field: "name"})
		case errors.Is(err, reviews.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_error", Field: "rating"})
		case errors.Is(err, reviews.ErrInvalidComment):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_error", Field: "comment"})
		default:
			h.log.Error().Err(err).Msg("failed to create review")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "store_error"})
		}
		return
	}

	c.JSON(http.StatusCreated, toReviewResponse(review))
}
