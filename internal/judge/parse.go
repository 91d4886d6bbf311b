package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

type rawEvaluation struct {
	RequirementScores []map[string]any `json:"requirement_scores"`
	OverallAssessment any              `json:"overall_assessment"`
}

// ParseEvaluation decodes a judge reply and maps each entry onto a requirement.
// Entries are matched by requirement_id first, then by 1-based requirement_index.
// Entries that match neither are dropped and counted; the scorer treats the
// affected requirements as unjudged.
func ParseEvaluation(raw string, reqs []scoring.Requirement) (*Evaluation, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, ErrNoContent
	}

	var data rawEvaluation
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if data.RequirementScores == nil {
		return nil, fmt.Errorf("%w: missing requirement_scores", ErrMalformed)
	}

	known := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		known[r.ID] = struct{}{}
	}

	eval := &Evaluation{
		Judgments:         make([]scoring.Judgment, 0, len(data.RequirementScores)),
		OverallAssessment: coerceString(data.OverallAssessment),
		Raw:               raw,
	}
	for _, entry := range data.RequirementScores {
		id, ok := resolveRequirement(entry, reqs, known)
		if !ok {
			eval.Dropped++
			continue
		}
		score := coerceFloat(entry["score"])
		if math.IsNaN(score) {
			score = 0
		}
		eval.Judgments = append(eval.Judgments, scoring.Judgment{
			RequirementID: id,
			Score:         score,
			Matched:       coerceBool(entry["matched"]),
			Reasoning:     coerceString(entry["reasoning"]),
		})
	}
	return eval, nil
}

func resolveRequirement(entry map[string]any, reqs []scoring.Requirement, known map[string]struct{}) (string, bool) {
	if id := coerceString(entry["requirement_id"]); id != "" {
		if _, ok := known[id]; ok {
			return id, true
		}
	}
	idx := coerceFloat(entry["requirement_index"])
	if math.IsNaN(idx) || idx != math.Trunc(idx) {
		return "", false
	}
	if idx < 1 || idx > float64(len(reqs)) {
		return "", false
	}
	return reqs[int(idx)-1].ID, true
}

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))
	if strings.HasPrefix(raw, "{") {
		return raw
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
