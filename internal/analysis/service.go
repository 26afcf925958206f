// Package analysis runs the sentiment analysis worker.
// It consumes ReviewCreated events, scores them with the sentiment engine,
// and publishes AnalysisCompleted events for the result consumer. The
// worker holds no storage access: everything it needs rides in the event,
// so instances scale out without sharing anything but the broker.
package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"innsight-go/internal/domain"
	"innsight-go/internal/metrics"
	"innsight-go/internal/queue"
	"innsight-go/internal/sentiment"
)

// Service consumes review events and produces analysis results.
type Service struct {
	consumer queue.Consumer
	producer queue.Producer
	analyzer *sentiment.Analyzer
	logger   *slog.Logger
}

// NewService creates a new analysis service.
func NewService(
	consumer queue.Consumer,
	producer queue.Producer,
	analyzer *sentiment.Analyzer,
	logger *slog.Logger,
) *Service {
	return &Service{
		consumer: consumer,
		producer: producer,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Start begins consuming review events and analyzing them.
// This is a blocking call that runs until the context is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting analysis service")
	return s.consumer.Start(ctx, s.handleMessage)
}

// handleMessage scores one review and publishes the result.
//
// Malformed or invalid events are dropped: redelivering them cannot help,
// and leaving them on the queue would wedge the pipeline. A failed publish
// of the result is requeued; the analysis itself never fails, because the
// engine falls back to rating-only scoring when the text model errors.
func (s *Service) handleMessage(ctx context.Context, msg *queue.Message) queue.Disposition {
	event, err := domain.DecodeReviewCreated(msg.Value)
	if err != nil {
		s.logger.Error("failed to decode review event", "error", err)
		return queue.Drop
	}

	if err := event.Validate(); err != nil {
		s.logger.Error("invalid review event", "error", err, "review_id", event.ReviewID)
		return queue.Drop
	}

	analysisStart := time.Now()
	result := s.analyzer.Analyze(event.Content, event.Rating)
	metrics.AnalysisLatency.Observe(time.Since(analysisStart).Seconds())
	metrics.AnalysesTotal.WithLabelValues(result.Mode).Inc()

	completed := domain.NewAnalysisCompletedEvent(event.ReviewID, domain.AnalysisResult{
		SentimentScore: result.Score,
		SentimentLabel: result.Label,
	})
	payload, err := json.Marshal(completed)
	if err != nil {
		s.logger.Error("failed to serialize analysis result", "error", err, "review_id", event.ReviewID)
		return queue.Drop
	}

	out := &queue.Message{
		Key:   []byte(strconv.FormatInt(event.ReviewID, 10)),
		Value: payload,
		Headers: map[string]string{
			"event_type": domain.EventTypeAnalysisCompleted,
			"message_id": uuid.New().String(),
		},
	}
	if err := s.producer.Publish(ctx, domain.QueueAnalysisCompleted, out); err != nil {
		s.logger.Error("failed to publish analysis result", "error", err, "review_id", event.ReviewID)
		return queue.Requeue
	}

	s.logger.Debug("analysis completed",
		"review_id", event.ReviewID,
		"score", result.Score,
		"label", result.Label,
		"mode", result.Mode,
	)

	return queue.Ack
}

// Stop gracefully stops the analysis service.
func (s *Service) Stop() error {
	s.logger.Info("stopping analysis service")
	return s.consumer.Close()
}
