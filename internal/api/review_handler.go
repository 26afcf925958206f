package api

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"innsight-go/internal/domain"
	"innsight-go/internal/review"
	"innsight-go/internal/validate"
)

// ReviewHandler handles HTTP requests for review operations.
type ReviewHandler struct {
	service *review.Service
	logger  *slog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service *review.Service, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /api/v1/reviews
// Stores the review and queues it for sentiment analysis. The review is
// returned immediately with status pending; analysis completes asynchronously.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse review body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		h.logger.Debug("review validation failed", "error", err)
		return ValidationError(c, err)
	}

	created, err := h.service.CreateReview(c.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			return NotFound(c, "hotel not found")
		}
		h.logger.Error("failed to create review", "error", err)
		return InternalError(c, "failed to create review")
	}

	return Created(c, created)
}

// GetByID handles GET /api/v1/reviews/:id
// Returns a single review, including its analysis state.
func (h *ReviewHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid review id")
	}

	r, err := h.service.GetReview(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return NotFound(c, "review not found")
		}
		h.logger.Error("failed to get review", "id", id, "error", err)
		return InternalError(c, "failed to get review")
	}

	return Success(c, r)
}

// ListByHotel handles GET /api/v1/hotels/:id/reviews
// Returns a page of the hotel's reviews, newest first.
func (h *ReviewHandler) ListByHotel(c *fiber.Ctx) error {
	hotelID, err := parseIDParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid hotel id")
	}

	var filter domain.ReviewFilter

	if status := c.Query("status"); status != "" {
		s := domain.ReviewStatus(status)
		if !s.IsValid() {
			return BadRequest(c, "unknown status filter")
		}
		filter.Status = s
	}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		if ps, err := strconv.Atoi(pageSize); err == nil && ps > 0 {
			filter.PageSize = ps
		}
	}
	filter.Normalize()

	reviews, total, err := h.service.ListByHotel(c.Context(), hotelID, filter)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			return NotFound(c, "hotel not found")
		}
		h.logger.Error("failed to list reviews", "hotel_id", hotelID, "error", err)
		return InternalError(c, "failed to list reviews")
	}

	return Paged(c, reviews, total, filter.Page, filter.PageSize)
}

// parseIDParam reads a positive integer route parameter.
func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id parameter")
	}
	return id, nil
}
