package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types carried on the pipeline queues. The set is closed: anything
// else arriving on a queue is either dropped or acknowledged as unknown,
// depending on the consumer's forward-compatibility policy.
const (
	EventTypeReviewCreated     = "ReviewCreated"
	EventTypeAnalysisCompleted = "AnalysisCompleted"
)

// Queue names are part of the pipeline contract and fixed by design;
// only the broker address is configurable.
const (
	QueueReviewCreated     = "review.created"
	QueueAnalysisCompleted = "analysis.completed"
)

// Validation errors for pipeline events.
var (
	ErrUnexpectedEventType = errors.New("unexpected event type")
	ErrInvalidReviewID     = errors.New("review_id must be positive")
	ErrEmptyContent        = errors.New("content is required")
)

// ReviewCreatedEvent is published to the intake queue when a review is
// stored. It carries everything the analysis worker needs so the worker
// never has to read storage.
type ReviewCreatedEvent struct {
	EventType string  `json:"event_type"`
	ReviewID  int64   `json:"review_id"`
	Title     *string `json:"title"`
	Content   string  `json:"content"`
	Rating    int     `json:"rating"`
	HotelID   int64   `json:"hotel_id"`
}

// NewReviewCreatedEvent builds the intake message for a stored review.
func NewReviewCreatedEvent(r *Review) *ReviewCreatedEvent {
	return &ReviewCreatedEvent{
		EventType: EventTypeReviewCreated,
		ReviewID:  r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Rating:    r.Rating,
		HotelID:   r.HotelID,
	}
}

// Validate checks the event against the wire contract.
func (e *ReviewCreatedEvent) Validate() error {
	if e.EventType != EventTypeReviewCreated {
		return ErrUnexpectedEventType
	}
	if e.ReviewID <= 0 {
		return ErrInvalidReviewID
	}
	if e.Content == "" {
		return ErrEmptyContent
	}
	if e.Rating < 1 || e.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// DecodeReviewCreated parses an intake queue payload.
func DecodeReviewCreated(data []byte) (*ReviewCreatedEvent, error) {
	var e ReviewCreatedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode ReviewCreated event: %w", err)
	}
	return &e, nil
}

// AnalysisCompletedEvent is published to the result queue once the sentiment
// engine has produced a result for a review.
type AnalysisCompletedEvent struct {
	EventType string         `json:"event_type"`
	ReviewID  int64          `json:"review_id"`
	Data      AnalysisResult `json:"data"`
}

// NewAnalysisCompletedEvent builds the result message for a review.
func NewAnalysisCompletedEvent(reviewID int64, result AnalysisResult) *AnalysisCompletedEvent {
	return &AnalysisCompletedEvent{
		EventType: EventTypeAnalysisCompleted,
		ReviewID:  reviewID,
		Data:      result,
	}
}

// Validate checks the event against the wire contract. It does not check
// the event type; the result consumer inspects that separately so unknown
// event kinds can be acknowledged rather than dead-lettered.
func (e *AnalysisCompletedEvent) Validate() error {
	if e.ReviewID <= 0 {
		return ErrInvalidReviewID
	}
	return e.Data.Validate()
}

// DecodeAnalysisCompleted parses a result queue payload.
func DecodeAnalysisCompleted(data []byte) (*AnalysisCompletedEvent, error) {
	var e AnalysisCompletedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode AnalysisCompleted event: %w", err)
	}
	return &e, nil
}
