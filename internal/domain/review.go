// Package domain contains the core entities of InnSight: hotels, the reviews
// written about them, and the pipeline messages that carry a review through
// sentiment analysis.
package domain

import (
	"errors"
	"time"
)

// ReviewStatus tracks a review's position in the analysis pipeline.
type ReviewStatus string

const (
	// StatusPending means the review is stored but not yet analyzed.
	StatusPending ReviewStatus = "pending"
	// StatusProcessing is reserved for a worker-side transition that the
	// pipeline does not currently perform; the analysis worker has no
	// storage access, so reviews move straight from pending to a terminal
	// status. Kept so stored data and clients recognize the value.
	StatusProcessing ReviewStatus = "processing"
	// StatusCompleted means analysis results have been applied.
	StatusCompleted ReviewStatus = "completed"
	// StatusFailed means applying the analysis result errored.
	StatusFailed ReviewStatus = "failed"
)

// IsValid returns true if the status is one of the known values.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Sentiment labels assigned by the analysis pipeline.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Validation errors for reviews.
var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidSentiment = errors.New("sentiment score must be between -1 and 1")
)

// Review represents a hotel review with its analysis state.
//
// Content fields are immutable after creation. The status and analysis
// fields are written exclusively by the result consumer; no other component
// mutates a stored review.
type Review struct {
	ID      int64 `json:"id"`
	HotelID int64 `json:"hotel_id"`

	// UserName is the display name of the reviewer.
	UserName string `json:"user_name"`

	// Rating is the star rating, 1 to 5.
	Rating int `json:"rating"`

	// Title is an optional short headline.
	Title *string `json:"title"`

	// Content is the full review text.
	Content string `json:"content"`

	// Status tracks analysis progress.
	Status ReviewStatus `json:"status"`

	// SentimentScore is the blended sentiment in [-1, 1], set on completion.
	SentimentScore *float64 `json:"sentiment_score"`

	// SentimentLabel is positive, negative, or neutral, set on completion.
	SentimentLabel *string `json:"sentiment_label"`

	// Aspects, Topics, and KeyPhrases are reserved analysis extensions.
	// The current engine always leaves them null.
	Aspects    []AspectScore `json:"aspects"`
	Topics     []string      `json:"topics"`
	KeyPhrases []string      `json:"key_phrases"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AspectScore is a per-aspect sentiment judgment (cleanliness, service, ...).
type AspectScore struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Sentiment string  `json:"sentiment"`
}

// AnalysisResult is the outcome of running the sentiment engine on a review.
// Applying it to a review is a full overwrite of the analysis fields, so
// re-applying the same result is harmless.
type AnalysisResult struct {
	SentimentScore float64       `json:"sentiment_score"`
	SentimentLabel string        `json:"sentiment_label"`
	Aspects        []AspectScore `json:"aspects"`
	Topics         []string      `json:"topics"`
	KeyPhrases     []string      `json:"key_phrases"`
}

// Validate checks the result carries a usable score and label.
func (r *AnalysisResult) Validate() error {
	if r.SentimentScore < -1 || r.SentimentScore > 1 {
		return ErrInvalidSentiment
	}
	switch r.SentimentLabel {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return nil
	}
	return errors.New("unknown sentiment label")
}

// CreateReviewRequest represents the input for submitting a new review.
type CreateReviewRequest struct {
	HotelID  int64   `json:"hotel_id" validate:"required,gt=0"`
	UserName string  `json:"user_name" validate:"required,max=100"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Content  string  `json:"content" validate:"required,min=10"`
}

// ToReview converts the request to a pending Review entity.
func (r *CreateReviewRequest) ToReview() *Review {
	now := time.Now().UTC()
	return &Review{
		HotelID:   r.HotelID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ReviewFilter selects reviews for listing.
type ReviewFilter struct {
	// Status restricts to a single status when set.
	Status ReviewStatus

	Page     int
	PageSize int
}

// Pagination bounds shared by list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps pagination values into their allowed ranges.
func (f *ReviewFilter) Normalize() {
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
