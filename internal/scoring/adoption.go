package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AdoptionItem is one tool's usage and sentiment pair.
type AdoptionItem struct {
	ToolName    string  `json:"tool_name" yaml:"tool_name"`
	Utilization float64 `json:"utilization" yaml:"utilization"`
	Sentiment   float64 `json:"sentiment" yaml:"sentiment"`
}

// ScoredItem is an AdoptionItem with its clamped inputs and derived score.
type ScoredItem struct {
	ToolName        string  `json:"tool_name"`
	Utilization     float64 `json:"utilization_metric"`
	Sentiment       float64 `json:"sentiment_score"`
	CalculatedScore int     `json:"calculated_score"`
	Band            Band    `json:"band"`
}

// AdoptionResult is the outcome of scoring one audit's items.
type AdoptionResult struct {
	Items        []ScoredItem `json:"items"`
	OverallScore int          `json:"overall_score"`
	Band         Band         `json:"band"`
}

// ComputeAdoptionScore blends utilization (0-100) and sentiment (0-10, normalised
// to 0-100) with the default 0.6/0.4 mix and rounds the result.
func ComputeAdoptionScore(item AdoptionItem) int {
	return adoptionScore(item, DefaultThresholds())
}

// ScoreAdoption scores items with the default mix.
func ScoreAdoption(items []AdoptionItem) AdoptionResult {
	return scoreAdoption(items, DefaultThresholds())
}

// ScoreAdoption scores items with the scorer's configured mix.
func (s *FitScorer) ScoreAdoption(items []AdoptionItem) AdoptionResult {
	return scoreAdoption(items, s.thresholds)
}

func adoptionScore(item AdoptionItem, th Thresholds) int {
	utilization := clamp(item.Utilization, 0, MaxScore)
	sentiment := clamp(item.Sentiment, 0, MaxSentiment) / MaxSentiment * MaxScore
	return roundScore(utilization*th.UtilizationMix + sentiment*th.SentimentMix)
}

// scoreAdoption scores each item and averages the per-item scores.
// The overall score is the mean of the already-rounded item scores, rounded once more.
// An empty item list scores 0.
func scoreAdoption(items []AdoptionItem, th Thresholds) AdoptionResult {
	result := AdoptionResult{Items: make([]ScoredItem, 0, len(items))}

	var sum int
	for _, item := range items {
		score := adoptionScore(item, th)
		sum += score
		result.Items = append(result.Items, ScoredItem{
			ToolName:        item.ToolName,
			Utilization:     clamp(item.Utilization, 0, MaxScore),
			Sentiment:       clamp(item.Sentiment, 0, MaxSentiment),
			CalculatedScore: score,
			Band:            BandFor(score),
		})
	}

	if len(items) > 0 {
		result.OverallScore = roundScore(float64(sum) / float64(len(items)))
	}
	result.Band = BandFor(result.OverallScore)
	return result
}

// SanitizeToolName strips control characters, collapses whitespace and
// truncates the name to MaxToolName runes.
func SanitizeToolName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if utf8.RuneCountInString(cleaned) > MaxToolName {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:MaxToolName]))
	}
	return cleaned
}
