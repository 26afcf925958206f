package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"innsight-go/internal/domain"
)

// HotelRepository implements store.HotelRepository using PostgreSQL.
type HotelRepository struct {
	db *DB
}

// NewHotelRepository creates a new PostgreSQL-backed hotel repository.
func NewHotelRepository(db *DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// Create stores a new hotel and fills in its database-assigned ID.
func (r *HotelRepository) Create(ctx context.Context, hotel *domain.Hotel) error {
	query := `
		INSERT INTO hotels (
			name, city, country, address, description, star_rating,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.pool.QueryRow(ctx, query,
		hotel.Name,
		hotel.City,
		hotel.Country,
		hotel.Address,
		hotel.Description,
		hotel.StarRating,
		hotel.CreatedAt,
		hotel.UpdatedAt,
	).Scan(&hotel.ID)

	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}

	return nil
}

// GetByID retrieves a hotel by its ID, including its review count.
func (r *HotelRepository) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	query := `
		SELECT id, name, city, country, address, description, star_rating,
			   (SELECT COUNT(*) FROM reviews WHERE hotel_id = hotels.id) AS review_count,
			   created_at, updated_at
		FROM hotels
		WHERE id = $1
	`

	row := r.db.pool.QueryRow(ctx, query, id)

	hotel, err := scanHotel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHotelNotFound
		}
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}

	return hotel, nil
}

// List retrieves a page of hotels matching the filter criteria, ordered by
// name.
func (r *HotelRepository) List(ctx context.Context, filter domain.HotelFilter) ([]*domain.Hotel, int, error) {
	where := "1=1"
	args := []interface{}{}
	argNum := 1

	if filter.City != "" {
		where += fmt.Sprintf(" AND city ILIKE $%d", argNum)
		args = append(args, "%"+filter.City+"%")
		argNum++
	}

	if filter.Country != "" {
		where += fmt.Sprintf(" AND country ILIKE $%d", argNum)
		args = append(args, "%"+filter.Country+"%")
		argNum++
	}

	if filter.MinRating != nil {
		where += fmt.Sprintf(" AND star_rating >= $%d", argNum)
		args = append(args, *filter.MinRating)
		argNum++
	}

	var total int
	if err := r.db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM hotels WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count hotels: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, city, country, address, description, star_rating,
			   (SELECT COUNT(*) FROM reviews WHERE hotel_id = hotels.id) AS review_count,
			   created_at, updated_at
		FROM hotels
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, where, argNum, argNum+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list hotels: %w", err)
	}
	defer rows.Close()

	hotels, err := scanHotels(rows)
	if err != nil {
		return nil, 0, err
	}

	return hotels, total, nil
}

// Update modifies an existing hotel.
func (r *HotelRepository) Update(ctx context.Context, hotel *domain.Hotel) error {
	query := `
		UPDATE hotels SET
			name = $2,
			city = $3,
			country = $4,
			address = $5,
			description = $6,
			star_rating = $7,
			updated_at = $8
		WHERE id = $1
	`

	tag, err := r.db.pool.Exec(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.City,
		hotel.Country,
		hotel.Address,
		hotel.Description,
		hotel.StarRating,
		hotel.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update hotel: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrHotelNotFound
	}

	return nil
}

// Delete removes a hotel; its reviews go with it via ON DELETE CASCADE.
func (r *HotelRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, "DELETE FROM hotels WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrHotelNotFound
	}

	return nil
}

// Exists reports whether a hotel with the given ID exists.
func (r *HotelRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM hotels WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hotel existence: %w", err)
	}

	return exists, nil
}

// Stats computes aggregate review statistics for a hotel in one query.
func (r *HotelRepository) Stats(ctx context.Context, id int64) (*domain.HotelStats, error) {
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrHotelNotFound
	}

	query := `
		SELECT
			COUNT(*) AS review_count,
			COALESCE(AVG(rating), 0)::float AS average_rating,
			AVG(sentiment_score) AS average_sentiment,
			COUNT(*) FILTER (WHERE sentiment_label = 'positive') AS positive,
			COUNT(*) FILTER (WHERE sentiment_label = 'negative') AS negative,
			COUNT(*) FILTER (WHERE sentiment_label = 'neutral') AS neutral,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending
		FROM reviews
		WHERE hotel_id = $1
	`

	stats := &domain.HotelStats{HotelID: id}
	err = r.db.pool.QueryRow(ctx, query, id).Scan(
		&stats.ReviewCount,
		&stats.AverageRating,
		&stats.AverageSentimentScore,
		&stats.Sentiment.Positive,
		&stats.Sentiment.Negative,
		&stats.Sentiment.Neutral,
		&stats.PendingCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hotel stats: %w", err)
	}

	stats.AverageRating = math.Round(stats.AverageRating*100) / 100
	if stats.AverageSentimentScore != nil {
		rounded := math.Round(*stats.AverageSentimentScore*1000) / 1000
		stats.AverageSentimentScore = &rounded
	}

	return stats, nil
}

// scanHotel scans a single row into a Hotel.
func scanHotel(row pgx.Row) (*domain.Hotel, error) {
	var hotel domain.Hotel

	err := row.Scan(
		&hotel.ID,
		&hotel.Name,
		&hotel.City,
		&hotel.Country,
		&hotel.Address,
		&hotel.Description,
		&hotel.StarRating,
		&hotel.ReviewCount,
		&hotel.CreatedAt,
		&hotel.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &hotel, nil
}

// scanHotels scans multiple rows into a slice of Hotels.
func scanHotels(rows pgx.Rows) ([]*domain.Hotel, error) {
	var hotels []*domain.Hotel

	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, hotel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hotels: %w", err)
	}

	return hotels, nil
}
