package scoring

import (
	"math"
	"strings"
)

const (
	unknownTool = "Unknown Tool"

	// Monthly logins and minutes per session treated as full utilization.
	optimalLogins         = 20.0
	optimalSessionMinutes = 60.0

	loginMix   = 0.6
	sessionMix = 0.4

	// neutralSentiment applies to tools with no sentiment ratings.
	neutralSentiment = 5.0
)

// UsageRow is one raw usage record from an uploaded adoption export.
// Nil numeric fields were absent in the source row.
type UsageRow struct {
	ToolName               string   `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	UserID                 string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	LoginCount             *float64 `json:"login_count,omitempty" yaml:"login_count,omitempty"`
	LastLogin              string   `json:"last_login,omitempty" yaml:"last_login,omitempty"`
	SessionDurationMinutes *float64 `json:"session_duration_minutes,omitempty" yaml:"session_duration_minutes,omitempty"`
	SentimentRating        *float64 `json:"sentiment_rating,omitempty" yaml:"sentiment_rating,omitempty"`
}

// ToolUsage is the per-tool aggregate of usage rows.
type ToolUsage struct {
	ToolName         string  `json:"tool_name"`
	TotalUsers       int     `json:"total_users"`
	ActiveUsers      int     `json:"active_users"`
	AvgSessions      int     `json:"avg_sessions"`
	AvgSentiment     float64 `json:"avg_sentiment"`
	UtilizationScore int     `json:"utilization_score"`
}

// AdoptionItem converts the aggregate into an item for ScoreAdoption. Exports
// carry whatever ratings users typed, so both inputs are clamped here rather
// than rejected.
func (t ToolUsage) AdoptionItem() AdoptionItem {
	name := SanitizeToolName(t.ToolName)
	if name == "" {
		name = unknownTool
	}
	return AdoptionItem{
		ToolName:    name,
		Utilization: clamp(float64(t.UtilizationScore), 0, MaxScore),
		Sentiment:   clamp(math.Round(t.AvgSentiment), 0, MaxSentiment),
	}
}

type toolAccumulator struct {
	users      map[string]struct{}
	logins     []float64
	sessions   []float64
	sentiments []float64
}

// AggregateUsage groups rows by tool in order of first appearance and derives
// a utilization score from login frequency and session length.
func AggregateUsage(rows []UsageRow) []ToolUsage {
	var order []string
	acc := make(map[string]*toolAccumulator)

	for _, row := range rows {
		name := strings.TrimSpace(row.ToolName)
		if name == "" {
			name = unknownTool
		}
		a, ok := acc[name]
		if !ok {
			a = &toolAccumulator{users: make(map[string]struct{})}
			acc[name] = a
			order = append(order, name)
		}
		if row.UserID != "" {
			a.users[row.UserID] = struct{}{}
		}
		if row.LoginCount != nil {
			a.logins = append(a.logins, *row.LoginCount)
		}
		if row.SessionDurationMinutes != nil {
			a.sessions = append(a.sessions, *row.SessionDurationMinutes)
		}
		if row.SentimentRating != nil && !math.IsNaN(*row.SentimentRating) {
			a.sentiments = append(a.sentiments, *row.SentimentRating)
		}
	}

	tools := make([]ToolUsage, 0, len(order))
	for _, name := range order {
		a := acc[name]

		avgLogins := mean(a.logins, 0)
		avgSessions := mean(a.sessions, 0)
		avgSentiment := mean(a.sentiments, neutralSentiment)

		loginScore := clamp(avgLogins/optimalLogins*MaxScore, 0, MaxScore)
		sessionScore := clamp(avgSessions/optimalSessionMinutes*MaxScore, 0, MaxScore)

		active := 0
		for _, l := range a.logins {
			if l > 0 {
				active++
			}
		}

		tools = append(tools, ToolUsage{
			ToolName:         name,
			TotalUsers:       len(a.users),
			ActiveUsers:      active,
			AvgSessions:      roundScore(avgSessions),
			AvgSentiment:     math.Round(avgSentiment*10) / 10,
			UtilizationScore: roundScore(loginScore*loginMix + sessionScore*sessionMix),
		})
	}
	return tools
}

func mean(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
