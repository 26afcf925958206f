package integration

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"innsight-go/internal/analysis"
	"innsight-go/internal/domain"
	hotelsvc "innsight-go/internal/hotel"
	"innsight-go/internal/queue"
	"innsight-go/internal/queue/memory"
	"innsight-go/internal/results"
	"innsight-go/internal/review"
	"innsight-go/internal/sentiment"
	storemem "innsight-go/internal/store/memory"
)

var _ = Describe("Review Pipeline Lifecycle", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc

		broker  *memory.Broker
		reviews *storemem.ReviewRepository
		cache   *storemem.StatsCache

		reviewSvc   *review.Service
		hotelSvc    *hotelsvc.Service
		analysisSvc *analysis.Service
		resultsSvc  *results.Service

		hotelID int64
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		broker = memory.NewBroker(100)
		reviews = storemem.NewReviewRepository()
		hotels := storemem.NewHotelRepository(reviews)
		cache = storemem.NewStatsCache()

		analyzer := sentiment.NewAnalyzer(sentiment.NewLexiconModel(), logger)
		reviewSvc = review.NewService(reviews, hotels, broker, cache, logger)
		hotelSvc = hotelsvc.NewService(hotels, cache, logger)
		analysisSvc = analysis.NewService(broker.Consumer(domain.QueueReviewCreated), broker, analyzer, logger)
		resultsSvc = results.NewService(broker.Consumer(domain.QueueAnalysisCompleted), reviews, cache, logger)

		hotel := &domain.Hotel{Name: "Harborview Inn", City: "Lisbon", Country: "Portugal"}
		Expect(hotels.Create(ctx, hotel)).To(Succeed())
		hotelID = hotel.ID
	})

	AfterEach(func() {
		cancel()
		broker.Close()
	})

	Context("When a review is submitted through the intake service", func() {
		It("should analyze it asynchronously and store the blended sentiment", func() {
			startWorkers(ctx, analysisSvc, resultsSvc)

			// 1. Submit a glowing review
			created, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
				HotelID:  hotelID,
				UserName: "alice",
				Rating:   5,
				Content:  "Amazing stay, wonderful staff, perfect location",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Status).To(Equal(domain.StatusPending))
			Expect(created.SentimentScore).To(BeNil())

			// 2. Wait for the analysis worker and result consumer to finish
			completed := waitForCompletion(ctx, reviews, created.ID)

			// 3. Verify the blended sentiment landed on the review
			Expect(completed.SentimentScore).NotTo(BeNil())
			Expect(*completed.SentimentScore).To(BeNumerically("~", 1.0, 0.0001))
			Expect(completed.SentimentLabel).NotTo(BeNil())
			Expect(*completed.SentimentLabel).To(Equal(domain.SentimentPositive))

			// 4. Verify the hotel stats reflect the completed review
			stats, err := hotelSvc.GetStats(ctx, hotelID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.ReviewCount).To(Equal(1))
			Expect(stats.PendingCount).To(Equal(0))
			Expect(stats.Sentiment.Positive).To(Equal(1))
			Expect(stats.AverageSentimentScore).NotTo(BeNil())
			Expect(*stats.AverageSentimentScore).To(BeNumerically("~", 1.0, 0.0001))
		})

		It("should deliver a neutral verdict when the text and rating disagree", func() {
			startWorkers(ctx, analysisSvc, resultsSvc)

			// Positive text, low rating: the blend lands between them
			created, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
				HotelID:  hotelID,
				UserName: "bob",
				Rating:   2,
				Content:  "Great location near the station",
			})
			Expect(err).NotTo(HaveOccurred())

			completed := waitForCompletion(ctx, reviews, created.ID)
			Expect(*completed.SentimentScore).To(BeNumerically("~", 0.1, 0.0001))
			Expect(*completed.SentimentLabel).To(Equal(domain.SentimentNeutral))
		})

		It("should fall back to the rating when the text cannot be scored", func() {
			startWorkers(ctx, analysisSvc, resultsSvc)

			created, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
				HotelID:  hotelID,
				UserName: "carol",
				Rating:   1,
				Content:  "!!! ... ??? ...",
			})
			Expect(err).NotTo(HaveOccurred())

			completed := waitForCompletion(ctx, reviews, created.ID)
			Expect(*completed.SentimentScore).To(BeNumerically("~", -1.0, 0.0001))
			Expect(*completed.SentimentLabel).To(Equal(domain.SentimentNegative))
		})
	})

	Context("When several reviews arrive for the same hotel", func() {
		It("should aggregate their sentiment into the hotel stats", func() {
			startWorkers(ctx, analysisSvc, resultsSvc)

			// One review per sentiment bucket
			submissions := []struct {
				rating  int
				content string
			}{
				{5, "Amazing stay, wonderful staff, perfect location"},
				{1, "Terrible experience, the room was dirty"},
				{3, "The room had a bed and a window"},
			}

			var ids []int64
			for _, s := range submissions {
				created, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
					HotelID:  hotelID,
					UserName: "guest",
					Rating:   s.rating,
					Content:  s.content,
				})
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, created.ID)
			}

			for _, id := range ids {
				waitForCompletion(ctx, reviews, id)
			}

			stats, err := hotelSvc.GetStats(ctx, hotelID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.ReviewCount).To(Equal(3))
			Expect(stats.PendingCount).To(Equal(0))
			Expect(stats.Sentiment.Positive).To(Equal(1))
			Expect(stats.Sentiment.Negative).To(Equal(1))
			Expect(stats.Sentiment.Neutral).To(Equal(1))
			Expect(stats.AverageRating).To(BeNumerically("~", 3.0, 0.0001))
			// (1.0 - 1.0 + 0.0) / 3
			Expect(*stats.AverageSentimentScore).To(BeNumerically("~", 0.0, 0.0001))
		})
	})

	Context("When a malformed message lands on the review queue", func() {
		It("should be dead-lettered rather than retried", func() {
			startWorkers(ctx, analysisSvc, resultsSvc)

			Expect(broker.Publish(ctx, domain.QueueReviewCreated, &queue.Message{
				Value: []byte("not json"),
			})).To(Succeed())

			Eventually(func() int {
				return len(broker.DeadLetters(domain.QueueReviewCreated))
			}, 5*time.Second, 50*time.Millisecond).Should(Equal(1))

			dead := broker.DeadLetters(domain.QueueReviewCreated)[0]
			Expect(dead.Headers[queue.HeaderDLQOriginalQueue]).To(Equal(domain.QueueReviewCreated))
			Expect(dead.Headers[queue.HeaderDLQReason]).To(Equal("dropped by handler"))
			Expect(dead.Headers[queue.HeaderDLQDroppedAt]).NotTo(BeEmpty())
		})
	})

	Context("When an unknown event type reaches the result consumer", func() {
		It("should acknowledge it without touching the review", func() {
			// No analysis worker here, so reviews stay pending unless a
			// result message completes them.
			startWorkers(ctx, resultsSvc)

			target, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
				HotelID:  hotelID,
				UserName: "dave",
				Rating:   4,
				Content:  "Great room and a lovely view",
			})
			Expect(err).NotTo(HaveOccurred())

			sentinel, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
				HotelID:  hotelID,
				UserName: "erin",
				Rating:   4,
				Content:  "Great breakfast and friendly staff",
			})
			Expect(err).NotTo(HaveOccurred())

			// 1. Publish a result with an event type this consumer does not handle
			unknown, err := json.Marshal(map[string]interface{}{
				"event_type": "AspectAnalysisCompleted",
				"review_id":  target.ID,
				"data": map[string]interface{}{
					"sentiment_score": 0.9,
					"sentiment_label": "positive",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(broker.Publish(ctx, domain.QueueAnalysisCompleted, &queue.Message{Value: unknown})).To(Succeed())

			// 2. Follow it with a valid result for the sentinel review. The
			// consumer handles one message at a time, so once the sentinel
			// completes, the unknown message has been settled.
			valid, err := json.Marshal(domain.NewAnalysisCompletedEvent(sentinel.ID, domain.AnalysisResult{
				SentimentScore: 0.5,
				SentimentLabel: domain.SentimentPositive,
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(broker.Publish(ctx, domain.QueueAnalysisCompleted, &queue.Message{Value: valid})).To(Succeed())

			waitForCompletion(ctx, reviews, sentinel.ID)

			// 3. The unknown message was acked, not dead-lettered, and the
			// target review is untouched
			Expect(broker.DeadLetters(domain.QueueAnalysisCompleted)).To(BeEmpty())
			got, err := reviews.GetByID(ctx, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(domain.StatusPending))
			Expect(got.SentimentScore).To(BeNil())
		})
	})

	Context("When the same result is delivered twice", func() {
		It("should apply it idempotently", func() {
			startWorkers(ctx, resultsSvc)

			created, err := reviewSvc.CreateReview(ctx, &domain.CreateReviewRequest{
				HotelID:  hotelID,
				UserName: "frank",
				Rating:   2,
				Content:  "The carpet was dirty and the street noisy",
			})
			Expect(err).NotTo(HaveOccurred())

			payload, err := json.Marshal(domain.NewAnalysisCompletedEvent(created.ID, domain.AnalysisResult{
				SentimentScore: -0.5,
				SentimentLabel: domain.SentimentNegative,
			}))
			Expect(err).NotTo(HaveOccurred())

			// At-least-once delivery: the same message can arrive more than once
			Expect(broker.Publish(ctx, domain.QueueAnalysisCompleted, &queue.Message{Value: payload})).To(Succeed())
			Expect(broker.Publish(ctx, domain.QueueAnalysisCompleted, &queue.Message{Value: payload})).To(Succeed())

			completed := waitForCompletion(ctx, reviews, created.ID)
			Expect(*completed.SentimentScore).To(BeNumerically("~", -0.5, 0.0001))
			Expect(*completed.SentimentLabel).To(Equal(domain.SentimentNegative))

			Eventually(func() int {
				return broker.Len(domain.QueueAnalysisCompleted)
			}, 5*time.Second, 50*time.Millisecond).Should(Equal(0))
			Expect(broker.DeadLetters(domain.QueueAnalysisCompleted)).To(BeEmpty())
		})
	})
})

// --- Helper Functions ---

// worker is the common surface of the pipeline services.
type worker interface {
	Start(ctx context.Context) error
}

// startWorkers runs each service's consume loop in the background. The loops
// exit when the suite context is canceled.
func startWorkers(ctx context.Context, workers ...worker) {
	for _, w := range workers {
		w := w
		go func() {
			_ = w.Start(ctx)
		}()
	}
}

// waitForCompletion polls the repository until the review reaches the
// completed status, then returns the final state.
func waitForCompletion(ctx context.Context, reviews *storemem.ReviewRepository, id int64) *domain.Review {
	var got *domain.Review
	Eventually(func() domain.ReviewStatus {
		r, err := reviews.GetByID(ctx, id)
		if err != nil {
			return ""
		}
		got = r
		return r.Status
	}, 5*time.Second, 50*time.Millisecond).Should(Equal(domain.StatusCompleted))
	return got
}
