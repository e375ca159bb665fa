// Package news labels article text with sentiment and credit-risk
// signals and converts them into per-article score adjustments. The
// labeling is rule-based: a fixed keyword and phrase vocabulary curated
// for credit events, matched case-insensitively.
package news

import (
	"math"
	"strings"
)

// Sentiment and risk label values.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var creditKeywords = map[string][]string{
	"negative": {"debt", "bankruptcy", "default", "downgrade", "decline", "loss", "cyberattack", "fraud", "probe"},
	"positive": {"funding", "growth", "profit", "upgrade"},
}

var creditPhrases = map[string][]string{
	"high_risk": {
		"debt restructuring", "credit downgrade", "financial loss",
		"legal investigation", "cyberattack breach",
	},
	"medium_risk": {
		"declining sales", "market share loss", "data breach", "regulatory probe",
		"stock sale", "insider selling", "breach reported", "sold", "breach", "breaches",
	},
	"positive_event": {"successful funding", "profit growth"},
}

// LabelSentiment maps a numeric provider sentiment score to a label.
func LabelSentiment(score float64) string {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// DetectRisk scans text for credit-risk phrases and returns low, medium
// or high. A clean text with clearly negative sentiment is still bumped
// to medium.
func DetectRisk(text string, sentiment float64) string {
	lower := strings.ToLower(text)
	risk := RiskLow
	for _, phrase := range creditPhrases["high_risk"] {
		if strings.Contains(lower, phrase) {
			return RiskHigh
		}
	}
	for _, phrase := range creditPhrases["medium_risk"] {
		if strings.Contains(lower, phrase) {
			risk = RiskMedium
			break
		}
	}
	if risk == RiskLow && sentiment < -0.01 {
		risk = RiskMedium
	}
	return risk
}

// Keyword pairs a matched vocabulary word with its polarity category.
type Keyword struct {
	Word     string `json:"word"`
	Category string `json:"category"`
}

// ExtractKeywords returns the credit vocabulary words present in text.
func ExtractKeywords(text string) []Keyword {
	lower := strings.ToLower(text)
	var out []Keyword
	for _, category := range []string{"negative", "positive"} {
		for _, word := range creditKeywords[category] {
			if strings.Contains(lower, word) {
				out = append(out, Keyword{Word: word, Category: category})
			}
		}
	}
	return out
}

// ScoreAdjustment converts matched keywords and the numeric sentiment
// into a small signed credit-score adjustment, rounded to 3 decimals.
func ScoreAdjustment(keywords []Keyword, sentiment float64) float64 {
	adj := 0.0
	for _, kw := range keywords {
		switch kw.Category {
		case "negative":
			adj -= 0.1
		case "positive":
			adj += 0.1
		}
	}
	adj += 0.05 * sentiment
	return math.Round(adj*1000) / 1000
}

// Article is one processed news item.
type Article struct {
	Title          string  `json:"title"`
	Summary        string  `json:"summary"`
	Sentiment      float64 `json:"sentiment"`
	SentimentLabel string  `json:"sentiment_label"`
	RiskFactor     string  `json:"risk_factor"`
	Adjustment     float64 `json:"score_adjustment"`
	TimePublished  string  `json:"time_published"`
}

// Process labels one raw article.
func Process(title, summary string, sentiment float64, published string) Article {
	text := title + " " + summary
	keywords := ExtractKeywords(text)
	return Article{
		Title:          title,
		Summary:        summary,
		Sentiment:      sentiment,
		SentimentLabel: LabelSentiment(sentiment),
		RiskFactor:     DetectRisk(text, sentiment),
		Adjustment:     ScoreAdjustment(keywords, sentiment),
		TimePublished:  published,
	}
}
