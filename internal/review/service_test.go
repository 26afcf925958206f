package review

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"innsight-go/internal/domain"
	"innsight-go/internal/queue"
	"innsight-go/internal/queue/memory"
	storemem "innsight-go/internal/store/memory"
)

func TestService_CreateReview(t *testing.T) {
	// Setup
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	broker := memory.NewBroker(100)
	reviews := storemem.NewReviewRepository()
	hotels := storemem.NewHotelRepository(reviews)
	cache := storemem.NewStatsCache()

	service := NewService(reviews, hotels, broker, cache, logger)

	ctx := context.Background()

	hotel := &domain.Hotel{Name: "Harbor Inn", City: "Lisbon", Country: "Portugal"}
	_ = hotels.Create(ctx, hotel)

	// Test successful intake
	req := &domain.CreateReviewRequest{
		HotelID:  hotel.ID,
		UserName: "ana",
		Rating:   4,
		Content:  "Great location and friendly staff",
	}

	review, err := service.CreateReview(ctx, req)
	if err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}
	if review.ID == 0 {
		t.Error("review should have an ID assigned")
	}
	if review.Status != domain.StatusPending {
		t.Errorf("Status = %v, want %v", review.Status, domain.StatusPending)
	}

	// Verify the event was published
	if broker.Len(domain.QueueReviewCreated) != 1 {
		t.Errorf("Queue should have 1 message, got %d", broker.Len(domain.QueueReviewCreated))
	}
}

func TestService_CreateReview_HotelNotFound(t *testing.T) {
	// Setup
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	broker := memory.NewBroker(100)
	reviews := storemem.NewReviewRepository()
	hotels := storemem.NewHotelRepository(reviews)
	cache := storemem.NewStatsCache()

	service := NewService(reviews, hotels, broker, cache, logger)

	req := &domain.CreateReviewRequest{
		HotelID:  42,
		UserName: "ana",
		Rating:   4,
		Content:  "Great location and friendly staff",
	}

	_, err := service.CreateReview(context.Background(), req)
	if !errors.Is(err, domain.ErrHotelNotFound) {
		t.Errorf("Expected ErrHotelNotFound, got %v", err)
	}

	// Nothing should have been published
	if broker.Len(domain.QueueReviewCreated) != 0 {
		t.Errorf("Queue should be empty, got %d messages", broker.Len(domain.QueueReviewCreated))
	}
}

func TestService_CreateReview_MessageFormat(t *testing.T) {
	// Setup
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	broker := memory.NewBroker(100)
	reviews := storemem.NewReviewRepository()
	hotels := storemem.NewHotelRepository(reviews)
	cache := storemem.NewStatsCache()

	service := NewService(reviews, hotels, broker, cache, logger)

	ctx := context.Background()

	hotel := &domain.Hotel{Name: "Harbor Inn", City: "Lisbon", Country: "Portugal"}
	_ = hotels.Create(ctx, hotel)

	title := "Lovely stay"
	req := &domain.CreateReviewRequest{
		HotelID:  hotel.ID,
		UserName: "ana",
		Rating:   4,
		Title:    &title,
		Content:  "Great location and friendly staff",
	}

	review, err := service.CreateReview(ctx, req)
	if err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	// Start a consumer to read the message
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var received domain.ReviewCreatedEvent
	var gotKey string
	var gotHeaders map[string]string
	consumer := broker.Consumer(domain.QueueReviewCreated)
	_ = consumer.Start(ctx, func(ctx context.Context, msg *queue.Message) queue.Disposition {
		gotKey = string(msg.Key)
		gotHeaders = msg.Headers
		_ = json.Unmarshal(msg.Value, &received)
		return queue.Ack
	})

	// Verify event format
	if received.EventType != domain.EventTypeReviewCreated {
		t.Errorf("EventType = %v, want %v", received.EventType, domain.EventTypeReviewCreated)
	}
	if received.ReviewID != review.ID {
		t.Errorf("ReviewID = %v, want %v", received.ReviewID, review.ID)
	}
	if received.HotelID != hotel.ID {
		t.Errorf("HotelID = %v, want %v", received.HotelID, hotel.ID)
	}
	if received.Rating != 4 {
		t.Errorf("Rating = %v, want 4", received.Rating)
	}
	if received.Content != req.Content {
		t.Errorf("Content = %v, want %v", received.Content, req.Content)
	}
	if received.Title == nil || *received.Title != title {
		t.Errorf("Title = %v, want %v", received.Title, title)
	}
	if gotKey != "1" {
		t.Errorf("Key = %q, want the review ID", gotKey)
	}
	if gotHeaders["event_type"] != domain.EventTypeReviewCreated {
		t.Errorf("event_type header = %q, want %q", gotHeaders["event_type"], domain.EventTypeReviewCreated)
	}
	if gotHeaders["message_id"] == "" {
		t.Error("message_id header is empty")
	}
}

func TestService_CreateReview_PublishFailureKeepsReview(t *testing.T) {
	// Setup
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	broker := memory.NewBroker(100)
	reviews := storemem.NewReviewRepository()
	hotels := storemem.NewHotelRepository(reviews)
	cache := storemem.NewStatsCache()

	service := NewService(reviews, hotels, broker, cache, logger)

	ctx := context.Background()

	hotel := &domain.Hotel{Name: "Harbor Inn", City: "Lisbon", Country: "Portugal"}
	_ = hotels.Create(ctx, hotel)

	// Closing the broker makes every publish fail
	_ = broker.Close()

	req := &domain.CreateReviewRequest{
		HotelID:  hotel.ID,
		UserName: "ana",
		Rating:   4,
		Content:  "Great location and friendly staff",
	}

	review, err := service.CreateReview(ctx, req)
	if err != nil {
		t.Fatalf("CreateReview() error = %v, want publish failures absorbed", err)
	}

	// The review must still be stored and pending
	stored, err := reviews.GetByID(ctx, review.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("Status = %v, want %v", stored.Status, domain.StatusPending)
	}
}

func TestService_ListByHotel(t *testing.T) {
	// Setup
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	broker := memory.NewBroker(100)
	reviews := storemem.NewReviewRepository()
	hotels := storemem.NewHotelRepository(reviews)
	cache := storemem.NewStatsCache()

	service := NewService(reviews, hotels, broker, cache, logger)

	ctx := context.Background()

	hotel := &domain.Hotel{Name: "Harbor Inn", City: "Lisbon", Country: "Portugal"}
	_ = hotels.Create(ctx, hotel)

	for i := 0; i < 3; i++ {
		req := &domain.CreateReviewRequest{
			HotelID:  hotel.ID,
			UserName: "ana",
			Rating:   4,
			Content:  "Great location and friendly staff",
		}
		if _, err := service.CreateReview(ctx, req); err != nil {
			t.Fatalf("CreateReview() error = %v", err)
		}
	}

	listed, total, err := service.ListByHotel(ctx, hotel.ID, domain.ReviewFilter{})
	if err != nil {
		t.Fatalf("ListByHotel() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(listed) != 3 {
		t.Errorf("got %d reviews, want 3", len(listed))
	}

	// Unknown hotel
	if _, _, err := service.ListByHotel(ctx, 42, domain.ReviewFilter{}); !errors.Is(err, domain.ErrHotelNotFound) {
		t.Errorf("Expected ErrHotelNotFound, got %v", err)
	}
}
