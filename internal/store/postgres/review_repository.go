package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"innsight-go/internal/domain"
)

// ReviewRepository implements store.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a new review and fills in its database-assigned ID.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (
			hotel_id, user_name, rating, title, content, status,
			sentiment_score, sentiment_label, aspects, topics, key_phrases,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := r.db.pool.QueryRow(ctx, query,
		review.HotelID,
		review.UserName,
		review.Rating,
		review.Title,
		review.Content,
		review.Status,
		review.SentimentScore,
		review.SentimentLabel,
		review.Aspects,
		review.Topics,
		review.KeyPhrases,
		review.CreatedAt,
		review.UpdatedAt,
	).Scan(&review.ID)

	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := `
		SELECT id, hotel_id, user_name, rating, title, content, status,
			   sentiment_score, sentiment_label, aspects, topics, key_phrases,
			   created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	row := r.db.pool.QueryRow(ctx, query, id)

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// ListByHotel retrieves a page of reviews for a hotel, newest first.
func (r *ReviewRepository) ListByHotel(ctx context.Context, hotelID int64, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	where := "hotel_id = $1"
	args := []interface{}{hotelID}
	argNum := 2

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}

	var total int
	if err := r.db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reviews WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, hotel_id, user_name, rating, title, content, status,
			   sentiment_score, sentiment_label, aspects, topics, key_phrases,
			   created_at, updated_at
		FROM reviews
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, argNum, argNum+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// ApplyAnalysis stores an analysis result and marks the review completed in
// a single statement, so a redelivered result simply overwrites the first.
func (r *ReviewRepository) ApplyAnalysis(ctx context.Context, id int64, result *domain.AnalysisResult) error {
	query := `
		UPDATE reviews SET
			status = $2,
			sentiment_score = $3,
			sentiment_label = $4,
			aspects = $5,
			topics = $6,
			key_phrases = $7,
			updated_at = $8
		WHERE id = $1
	`

	tag, err := r.db.pool.Exec(ctx, query,
		id,
		domain.StatusCompleted,
		result.SentimentScore,
		result.SentimentLabel,
		result.Aspects,
		result.Topics,
		result.KeyPhrases,
		time.Now().UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to apply analysis: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// MarkFailed transitions a review to the failed status.
func (r *ReviewRepository) MarkFailed(ctx context.Context, id int64) error {
	query := `
		UPDATE reviews SET
			status = $2,
			updated_at = $3
		WHERE id = $1
	`

	tag, err := r.db.pool.Exec(ctx, query, id, domain.StatusFailed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark review failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// scanReview scans a single row into a Review.
func scanReview(row pgx.Row) (*domain.Review, error) {
	var review domain.Review

	err := row.Scan(
		&review.ID,
		&review.HotelID,
		&review.UserName,
		&review.Rating,
		&review.Title,
		&review.Content,
		&review.Status,
		&review.SentimentScore,
		&review.SentimentLabel,
		&review.Aspects,
		&review.Topics,
		&review.KeyPhrases,
		&review.CreatedAt,
		&review.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &review, nil
}

// scanReviews scans multiple rows into a slice of Reviews.
func scanReviews(rows pgx.Rows) ([]*domain.Review, error) {
	var reviews []*domain.Review

	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
