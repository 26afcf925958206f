package sentiment

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"innsight-go/internal/domain"
)

// stubModel returns a fixed judgment and records what it was asked.
type stubModel struct {
	stars   int
	err     error
	gotText string
}

func (m *stubModel) Classify(text string) (int, error) {
	m.gotText = text
	if m.err != nil {
		return 0, m.err
	}
	return m.stars, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAnalyzer_Blend(t *testing.T) {
	tests := []struct {
		name      string
		stars     int
		rating    int
		wantScore float64
		wantLabel string
	}{
		{
			name:      "glowing text and rating agree",
			stars:     5,
			rating:    5,
			wantScore: 1.0,
			wantLabel: domain.SentimentPositive,
		},
		{
			name:      "scathing text and rating agree",
			stars:     1,
			rating:    1,
			wantScore: -1.0,
			wantLabel: domain.SentimentNegative,
		},
		{
			name:      "middling on both axes",
			stars:     3,
			rating:    3,
			wantScore: 0.0,
			wantLabel: domain.SentimentNeutral,
		},
		{
			// The text weight dominates but the contradicting rating drags
			// the blend back inside the neutral band.
			name:      "glowing text with a one star rating",
			stars:     5,
			rating:    1,
			wantScore: 0.2,
			wantLabel: domain.SentimentNeutral,
		},
		{
			name:      "mildly positive text with a poor rating rounds cleanly",
			stars:     4,
			rating:    2,
			wantScore: 0.1,
			wantLabel: domain.SentimentNeutral,
		},
		{
			name:      "positive text with a good rating",
			stars:     4,
			rating:    4,
			wantScore: 0.5,
			wantLabel: domain.SentimentPositive,
		},
		{
			name:      "negative text with a bad rating",
			stars:     2,
			rating:    2,
			wantScore: -0.5,
			wantLabel: domain.SentimentNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(&stubModel{stars: tt.stars}, testLogger())

			result := a.Analyze("stubbed content", tt.rating)
			if result.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", result.Score, tt.wantScore)
			}
			if result.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", result.Label, tt.wantLabel)
			}
			if result.Mode != ModeTextAndRating {
				t.Errorf("Mode = %q, want %q", result.Mode, ModeTextAndRating)
			}
		})
	}
}

func TestAnalyzer_LabelThresholds(t *testing.T) {
	// stars 5 gives text score 1.0; choosing ratings moves the blend around
	// the 0.3 boundary: rating 2 blends to 0.4, rating 1 to 0.2.
	a := NewAnalyzer(&stubModel{stars: 5}, testLogger())

	if got := a.Analyze("x", 2); got.Score != 0.4 || got.Label != domain.SentimentPositive {
		t.Errorf("Analyze(stars=5, rating=2) = %+v, want score 0.4 positive", got)
	}
	if got := a.Analyze("x", 1); got.Score != 0.2 || got.Label != domain.SentimentNeutral {
		t.Errorf("Analyze(stars=5, rating=1) = %+v, want score 0.2 neutral", got)
	}

	// Mirror image on the negative side.
	a = NewAnalyzer(&stubModel{stars: 1}, testLogger())
	if got := a.Analyze("x", 4); got.Score != -0.4 || got.Label != domain.SentimentNegative {
		t.Errorf("Analyze(stars=1, rating=4) = %+v, want score -0.4 negative", got)
	}
	if got := a.Analyze("x", 5); got.Score != -0.2 || got.Label != domain.SentimentNeutral {
		t.Errorf("Analyze(stars=1, rating=5) = %+v, want score -0.2 neutral", got)
	}
}

func TestAnalyzer_RatingOnlyFallback(t *testing.T) {
	tests := []struct {
		rating    int
		wantScore float64
		wantLabel string
	}{
		{rating: 1, wantScore: -1.0, wantLabel: domain.SentimentNegative},
		{rating: 2, wantScore: -0.5, wantLabel: domain.SentimentNegative},
		{rating: 3, wantScore: 0.0, wantLabel: domain.SentimentNeutral},
		{rating: 4, wantScore: 0.5, wantLabel: domain.SentimentPositive},
		{rating: 5, wantScore: 1.0, wantLabel: domain.SentimentPositive},
	}

	for _, tt := range tests {
		a := NewAnalyzer(&stubModel{err: errors.New("model unavailable")}, testLogger())

		result := a.Analyze("any content", tt.rating)
		if result.Score != tt.wantScore {
			t.Errorf("rating %d: Score = %v, want %v", tt.rating, result.Score, tt.wantScore)
		}
		if result.Label != tt.wantLabel {
			t.Errorf("rating %d: Label = %q, want %q", tt.rating, result.Label, tt.wantLabel)
		}
		if result.Mode != ModeRatingOnly {
			t.Errorf("rating %d: Mode = %q, want %q", tt.rating, result.Mode, ModeRatingOnly)
		}
	}
}

func TestAnalyzer_TruncatesContent(t *testing.T) {
	model := &stubModel{stars: 3}
	a := NewAnalyzer(model, testLogger())

	long := strings.Repeat("a", 2000)
	a.Analyze(long, 3)

	if len(model.gotText) != maxContentLength {
		t.Errorf("model saw %d characters, want %d", len(model.gotText), maxContentLength)
	}

	// Short content passes through untouched
	a.Analyze("short review text", 3)
	if model.gotText != "short review text" {
		t.Errorf("model saw %q, want the original text", model.gotText)
	}
}

func TestStarScore_ClampsOutOfRange(t *testing.T) {
	if got := starScore(0); got != -1.0 {
		t.Errorf("starScore(0) = %v, want -1.0", got)
	}
	if got := starScore(9); got != 1.0 {
		t.Errorf("starScore(9) = %v, want 1.0", got)
	}
}
