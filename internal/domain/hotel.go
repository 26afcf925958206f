package domain

import (
	"errors"
	"time"
)

// Validation errors for hotels.
var (
	ErrHotelNotFound = errors.New("hotel not found")
)

// Hotel represents a hotel that can receive reviews.
type Hotel struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`

	// Address is the optional street address.
	Address *string `json:"address"`

	// Description is optional free-form text about the property.
	Description *string `json:"description"`

	// StarRating is the official classification, 1 to 5.
	StarRating *float64 `json:"star_rating"`

	// ReviewCount is derived from the reviews table on read.
	ReviewCount int `json:"review_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateHotelRequest represents the input for creating a new hotel.
type CreateHotelRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	City        string   `json:"city" validate:"required,max=100"`
	Country     string   `json:"country" validate:"required,max=100"`
	Address     *string  `json:"address" validate:"omitempty,max=500"`
	Description *string  `json:"description"`
	StarRating  *float64 `json:"star_rating" validate:"omitempty,gte=1,lte=5"`
}

// ToHotel converts the request to a Hotel entity.
func (r *CreateHotelRequest) ToHotel() *Hotel {
	now := time.Now().UTC()
	return &Hotel{
		Name:        r.Name,
		City:        r.City,
		Country:     r.Country,
		Address:     r.Address,
		Description: r.Description,
		StarRating:  r.StarRating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateHotelRequest represents a partial update; nil fields are left alone.
type UpdateHotelRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	City        *string  `json:"city" validate:"omitempty,min=1,max=100"`
	Country     *string  `json:"country" validate:"omitempty,min=1,max=100"`
	Address     *string  `json:"address" validate:"omitempty,max=500"`
	Description *string  `json:"description"`
	StarRating  *float64 `json:"star_rating" validate:"omitempty,gte=1,lte=5"`
}

// ApplyTo updates an existing Hotel with the non-nil request values.
func (r *UpdateHotelRequest) ApplyTo(h *Hotel) {
	if r.Name != nil {
		h.Name = *r.Name
	}
	if r.City != nil {
		h.City = *r.City
	}
	if r.Country != nil {
		h.Country = *r.Country
	}
	if r.Address != nil {
		h.Address = r.Address
	}
	if r.Description != nil {
		h.Description = r.Description
	}
	if r.StarRating != nil {
		h.StarRating = r.StarRating
	}
	h.UpdatedAt = time.Now().UTC()
}

// HotelFilter selects hotels for listing.
type HotelFilter struct {
	// City and Country are case-insensitive partial matches.
	City    string
	Country string

	// MinRating keeps hotels with a star rating at or above this value.
	MinRating *float64

	Page     int
	PageSize int
}

// Normalize clamps pagination values into their allowed ranges.
func (f *HotelFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// SentimentBreakdown counts analyzed reviews per label.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// HotelStats aggregates the review and sentiment picture for one hotel.
type HotelStats struct {
	HotelID       int64   `json:"hotel_id"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`

	// AverageSentimentScore is nil until at least one review completes analysis.
	AverageSentimentScore *float64 `json:"average_sentiment_score"`

	Sentiment SentimentBreakdown `json:"sentiment_breakdown"`

	// PendingCount is the number of reviews still awaiting analysis.
	PendingCount int `json:"pending_count"`
}
