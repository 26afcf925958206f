package api

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"innsight-go/internal/domain"
	"innsight-go/internal/hotel"
	"innsight-go/internal/validate"
)

// HotelHandler handles HTTP requests for hotel operations.
type HotelHandler struct {
	service *hotel.Service
	logger  *slog.Logger
}

// NewHotelHandler creates a new hotel handler.
func NewHotelHandler(service *hotel.Service, logger *slog.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /api/v1/hotels
// Creates a new hotel.
func (h *HotelHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateHotelRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse hotel body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		h.logger.Debug("hotel validation failed", "error", err)
		return ValidationError(c, err)
	}

	created, err := h.service.CreateHotel(c.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create hotel", "error", err)
		return InternalError(c, "failed to create hotel")
	}

	return Created(c, created)
}

// List handles GET /api/v1/hotels
// Returns a page of hotels matching the query parameters.
func (h *HotelHandler) List(c *fiber.Ctx) error {
	filter := domain.HotelFilter{
		City:    c.Query("city"),
		Country: c.Query("country"),
	}

	if minRating := c.Query("min_rating"); minRating != "" {
		r, err := strconv.ParseFloat(minRating, 64)
		if err != nil || r < 1 || r > 5 {
			return BadRequest(c, "min_rating must be a number between 1 and 5")
		}
		filter.MinRating = &r
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

	hotels, total, err := h.service.ListHotels(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list hotels", "error", err)
		return InternalError(c, "failed to list hotels")
	}

	return Paged(c, hotels, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /api/v1/hotels/:id
// Returns a single hotel with its review count.
func (h *HotelHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid hotel id")
	}

	hot, err := h.service.GetHotel(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			return NotFound(c, "hotel not found")
		}
		h.logger.Error("failed to get hotel", "id", id, "error", err)
		return InternalError(c, "failed to get hotel")
	}

	return Success(c, hot)
}

// Update handles PUT /api/v1/hotels/:id
// Applies a partial update; omitted fields are left unchanged.
func (h *HotelHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid hotel id")
	}

	var req domain.UpdateHotelRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse hotel body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		h.logger.Debug("hotel validation failed", "error", err)
		return ValidationError(c, err)
	}

	updated, err := h.service.UpdateHotel(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			return NotFound(c, "hotel not found")
		}
		h.logger.Error("failed to update hotel", "id", id, "error", err)
		return InternalError(c, "failed to update hotel")
	}

	return Success(c, updated)
}

// Delete handles DELETE /api/v1/hotels/:id
// Removes a hotel and all of its reviews.
func (h *HotelHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid hotel id")
	}

	if err := h.service.DeleteHotel(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			return NotFound(c, "hotel not found")
		}
		h.logger.Error("failed to delete hotel", "id", id, "error", err)
		return InternalError(c, "failed to delete hotel")
	}

	return NoContent(c)
}

// Stats handles GET /api/v1/hotels/:id/stats
// Returns aggregate review statistics, served from cache when fresh.
func (h *HotelHandler) Stats(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid hotel id")
	}

	stats, err := h.service.GetStats(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			return NotFound(c, "hotel not found")
		}
		h.logger.Error("failed to compute hotel stats", "id", id, "error", err)
		return InternalError(c, "failed to compute hotel stats")
	}

	return Success(c, stats)
}
