// Package sentiment scores review text and star ratings into a single
// sentiment judgment. The text signal comes from a pluggable model; the
// rating signal is derived arithmetically, so a rating is always enough to
// produce a score even when the model fails.
package sentiment

import (
	"log/slog"
	"math"

	"innsight-go/internal/domain"
)

// maxContentLength caps how many characters of review text the model sees.
const maxContentLength = 512

// Weights for blending the text and rating signals.
const (
	textWeight   = 0.6
	ratingWeight = 0.4
)

// Label thresholds on the blended score. Scores in [-0.3, 0.3] read as
// neutral.
const (
	positiveThreshold = 0.3
	negativeThreshold = -0.3
)

// Modes describing how a score was derived, used as metric labels.
const (
	ModeTextAndRating = "text_and_rating"
	ModeRatingOnly    = "rating_only"
)

// Result is the outcome of scoring one review.
type Result struct {
	// Score is the blended sentiment in [-1, 1], rounded to 3 decimals.
	Score float64

	// Label is positive, negative, or neutral.
	Label string

	// Mode records whether the text signal contributed or the engine fell
	// back to the rating alone.
	Mode string
}

// TextModel classifies review text into a 1 to 5 star judgment.
type TextModel interface {
	Classify(text string) (int, error)
}

// Analyzer blends a text model's judgment with the submitted star rating.
type Analyzer struct {
	model  TextModel
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer around the given text model.
func NewAnalyzer(model TextModel, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		model:  model,
		logger: logger,
	}
}

// Analyze scores a review. The text contributes 60% of the score and the
// star rating 40%; when the text model errors, the rating alone decides and
// the failure never propagates.
func (a *Analyzer) Analyze(content string, rating int) Result {
	ratingScore := float64(rating-3) / 2

	stars, err := a.model.Classify(truncate(content, maxContentLength))
	if err != nil {
		a.logger.Warn("text model failed, scoring on rating alone", "error", err)
		return newResult(ratingScore, ModeRatingOnly)
	}

	blended := textWeight*starScore(stars) + ratingWeight*ratingScore
	return newResult(blended, ModeTextAndRating)
}

// starScore maps a 1 to 5 star judgment onto [-1, 1].
func starScore(stars int) float64 {
	if stars < 1 {
		stars = 1
	}
	if stars > 5 {
		stars = 5
	}
	return float64(stars-3) / 2
}

// newResult rounds the score and derives the label from the rounded value,
// so the stored score and label always agree.
func newResult(score float64, mode string) Result {
	rounded := math.Round(score*1000) / 1000

	label := domain.SentimentNeutral
	switch {
	case rounded > positiveThreshold:
		label = domain.SentimentPositive
	case rounded < negativeThreshold:
		label = domain.SentimentNegative
	}

	return Result{Score: rounded, Label: label, Mode: mode}
}

// truncate limits text to the given number of characters without splitting
// a multi-byte character.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
