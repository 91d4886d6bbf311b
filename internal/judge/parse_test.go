package judge

import (
	"errors"
	"testing"

	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

func testRequirements() []scoring.Requirement {
	return []scoring.Requirement{
		{ID: "r-sso", Text: "Single sign-on", IsMandatory: true},
		{ID: "r-api", Text: "REST API"},
		{ID: "r-24x7", Text: "24/7 support"},
	}
}

func TestParseEvaluationByID(t *testing.T) {
	raw := `{"requirement_scores":[
		{"requirement_id":"r-api","score":70,"matched":true,"reasoning":"documented"},
		{"requirement_id":"r-sso","score":"40","matched":"false","reasoning":"not mentioned"}
	],"overall_assessment":"mixed"}`

	eval, err := ParseEvaluation(raw, testRequirements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.Judgments) != 2 || eval.Dropped != 0 {
		t.Fatalf("expected 2 judgments, got %+v", eval)
	}
	if eval.Judgments[0].RequirementID != "r-api" || eval.Judgments[0].Score != 70 {
		t.Errorf("unexpected first judgment: %+v", eval.Judgments[0])
	}
	if eval.Judgments[1].Score != 40 || eval.Judgments[1].Matched {
		t.Errorf("string fields were not coerced: %+v", eval.Judgments[1])
	}
	if eval.OverallAssessment != "mixed" {
		t.Errorf("unexpected assessment %q", eval.OverallAssessment)
	}
}

func TestParseEvaluationByIndex(t *testing.T) {
	raw := `{"requirement_scores":[
		{"requirement_index":3,"score":90},
		{"requirement_index":1,"score":65},
		{"requirement_index":4,"score":100},
		{"requirement_index":0,"score":100},
		{"requirement_index":1.5,"score":100},
		{"score":100}
	]}`

	eval, err := ParseEvaluation(raw, testRequirements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.Judgments) != 2 {
		t.Fatalf("expected 2 judgments, got %d", len(eval.Judgments))
	}
	if eval.Judgments[0].RequirementID != "r-24x7" || eval.Judgments[1].RequirementID != "r-sso" {
		t.Errorf("indices mapped wrongly: %+v", eval.Judgments)
	}
	if eval.Dropped != 4 {
		t.Errorf("expected 4 dropped entries, got %d", eval.Dropped)
	}
}

func TestParseEvaluationUnknownIDFallsBackToIndex(t *testing.T) {
	raw := `{"requirement_scores":[{"requirement_id":"made-up","requirement_index":2,"score":50}]}`
	eval, err := ParseEvaluation(raw, testRequirements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.Judgments) != 1 || eval.Judgments[0].RequirementID != "r-api" {
		t.Errorf("expected fallback to index 2, got %+v", eval.Judgments)
	}
}

func TestParseEvaluationFencedAndWrapped(t *testing.T) {
	tests := []string{
		"```json\n{\"requirement_scores\":[{\"requirement_index\":1,\"score\":80}]}\n```",
		"Here is my evaluation:\n{\"requirement_scores\":[{\"requirement_index\":1,\"score\":80}]}\nThanks.",
	}
	for _, raw := range tests {
		eval, err := ParseEvaluation(raw, testRequirements())
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if len(eval.Judgments) != 1 || eval.Judgments[0].Score != 80 {
			t.Errorf("unexpected judgments: %+v", eval.Judgments)
		}
	}
}

func TestParseEvaluationMissingScoreIsZero(t *testing.T) {
	eval, err := ParseEvaluation(`{"requirement_scores":[{"requirement_index":1,"score":"n/a"}]}`, testRequirements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Judgments[0].Score != 0 {
		t.Errorf("expected 0, got %f", eval.Judgments[0].Score)
	}
}

func TestParseEvaluationErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "   ", ErrNoContent},
		{"not json", "I cannot evaluate this proposal.", ErrMalformed},
		{"truncated", `{"requirement_scores":[{"requirement_index":1,`, ErrMalformed},
		{"missing scores", `{"overall_assessment":"fine"}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvaluation(tt.raw, testRequirements())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseEvaluationEmptyListIsValid(t *testing.T) {
	eval, err := ParseEvaluation(`{"requirement_scores":[],"overall_assessment":"nothing addressed"}`, testRequirements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.Judgments) != 0 {
		t.Errorf("expected no judgments, got %d", len(eval.Judgments))
	}
}
