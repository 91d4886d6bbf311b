package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

const narratorSystemPrompt = "You are an aviation technology consultant analyzing digital tool adoption for an airline. Respond only with JSON."

// Recommendation is the advice attached to one audited tool.
type Recommendation struct {
	ToolName       string `json:"tool_name"`
	Score          int    `json:"score"`
	Recommendation string `json:"recommendation"`
}

// Narration is the prose accompanying an adoption audit.
type Narration struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Generated       bool             `json:"generated"`
}

// Narrator writes the executive summary for an adoption audit. It never fails:
// without a completer, or when the model misbehaves, the static band texts are used.
type Narrator struct {
	completer Completer
	logger    *slog.Logger
}

func NewNarrator(completer Completer, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{completer: completer, logger: logger}
}

func (n *Narrator) Narrate(ctx context.Context, result scoring.AdoptionResult) Narration {
	if n == nil || n.completer == nil || len(result.Items) == 0 {
		return staticNarration(result)
	}

	raw, err := n.completer.Complete(ctx, narratorSystemPrompt, buildNarrationPrompt(result))
	if err != nil {
		n.logger.Warn("adoption narrative failed, using defaults", "error", err, "kind", Kind(err))
		return staticNarration(result)
	}

	var reply struct {
		Summary         string `json:"summary"`
		Recommendations []struct {
			ToolName       string `json:"tool_name"`
			Recommendation string `json:"recommendation"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &reply); err != nil {
		n.logger.Warn("adoption narrative unparseable, using defaults", "error", err)
		return staticNarration(result)
	}

	byTool := make(map[string]string, len(reply.Recommendations))
	for _, r := range reply.Recommendations {
		key := strings.ToLower(strings.TrimSpace(r.ToolName))
		if _, seen := byTool[key]; !seen && strings.TrimSpace(r.Recommendation) != "" {
			byTool[key] = strings.TrimSpace(r.Recommendation)
		}
	}

	out := Narration{
		Summary:         strings.TrimSpace(reply.Summary),
		Recommendations: make([]Recommendation, 0, len(result.Items)),
		Generated:       true,
	}
	if out.Summary == "" {
		out.Summary = scoring.DefaultSummary(result.OverallScore)
	}
	for _, item := range result.Items {
		rec, ok := byTool[strings.ToLower(item.ToolName)]
		if !ok {
			rec = scoring.DefaultRecommendation(item.CalculatedScore)
		}
		out.Recommendations = append(out.Recommendations, Recommendation{
			ToolName:       item.ToolName,
			Score:          item.CalculatedScore,
			Recommendation: rec,
		})
	}
	return out
}

func staticNarration(result scoring.AdoptionResult) Narration {
	out := Narration{
		Summary:         scoring.DefaultSummary(result.OverallScore),
		Recommendations: make([]Recommendation, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		out.Recommendations = append(out.Recommendations, Recommendation{
			ToolName:       item.ToolName,
			Score:          item.CalculatedScore,
			Recommendation: scoring.DefaultRecommendation(item.CalculatedScore),
		})
	}
	return out
}

func buildNarrationPrompt(result scoring.AdoptionResult) string {
	var b strings.Builder
	b.WriteString("Here is the audit data:\n")
	for _, item := range result.Items {
		fmt.Fprintf(&b, "- %s: Utilization %g%%, User Sentiment %g/10, Score: %d/100\n",
			SanitizePromptInput(item.ToolName), item.Utilization, item.Sentiment, item.CalculatedScore)
	}
	fmt.Fprintf(&b, "\nOverall Score: %d/100\n\n", result.OverallScore)
	b.WriteString(`Provide:
1. A brief executive summary (2-3 sentences) of the airline's digital adoption health.
2. For each tool, provide a specific, actionable recommendation.

Respond in JSON format:
{
  "summary": "...",
  "recommendations": [
    { "tool_name": "...", "recommendation": "..." }
  ]
}`)
	return b.String()
}
