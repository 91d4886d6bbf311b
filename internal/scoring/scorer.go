package scoring

// ResponseStatus is the categorical outcome of a fit scoring run.
type ResponseStatus string

const (
	StatusFail    ResponseStatus = "fail"
	StatusPartial ResponseStatus = "partial"
	StatusPass    ResponseStatus = "pass"
)

// Requirement is one buyer-defined evaluation criterion of an RFP.
// A nil Weight means the buyer left it unset and defaults to 1.
type Requirement struct {
	ID          string   `json:"id" yaml:"id"`
	Text        string   `json:"text" yaml:"text"`
	Weight      *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	IsMandatory bool     `json:"is_mandatory" yaml:"is_mandatory"`
}

// EffectiveWeight returns the weight the weighted average uses:
// default 1 when unset, 0 when non-positive or NaN, at most MaxRequirementWeight.
func (r Requirement) EffectiveWeight() float64 {
	if r.Weight == nil {
		return DefaultRequirementWeight
	}
	return clamp(*r.Weight, 0, MaxRequirementWeight)
}

// Judgment is the external judge's verdict for one requirement.
// Matched is advisory only; scoring recomputes it from Score.
type Judgment struct {
	RequirementID string  `json:"requirement_id" yaml:"requirement_id"`
	Score         float64 `json:"score" yaml:"score"`
	Matched       bool    `json:"matched" yaml:"matched"`
	Reasoning     string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// RequirementResult captures one requirement's contribution to the fit score.
type RequirementResult struct {
	RequirementID string  `json:"requirement_id"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
	Weight        float64 `json:"weight"`
	Weighted      float64 `json:"weighted"`
	Mandatory     bool    `json:"mandatory"`
	Matched       bool    `json:"matched"`
	Judged        bool    `json:"judged"`
	Reason        string  `json:"reason,omitempty"`
}

// FitScoreResult is the aggregate output of one scoring run.
type FitScoreResult struct {
	FitScore         int                 `json:"fit_score"`
	DealBreakerFlags []string            `json:"deal_breaker_flags"`
	WeightedScores   map[string]float64  `json:"weighted_scores"`
	ResponseStatus   ResponseStatus      `json:"response_status"`
	Breakdown        []RequirementResult `json:"breakdown"`
}

// HasDealBreakers reports whether any mandatory requirement failed.
func (r FitScoreResult) HasDealBreakers() bool {
	return len(r.DealBreakerFlags) > 0
}

// FitScorer combines per-requirement judge scores into a bounded compliance score
// and blends adoption inputs with its configured mix. It holds no mutable state
// and is safe for concurrent use.
type FitScorer struct {
	thresholds Thresholds
}

// NewFitScorer creates a FitScorer with the given thresholds.
func NewFitScorer(thresholds Thresholds) *FitScorer {
	return &FitScorer{thresholds: thresholds}
}

// ComputeFitScore scores requirements against judgments with the default thresholds.
func ComputeFitScore(requirements []Requirement, judgments []Judgment) FitScoreResult {
	return NewFitScorer(DefaultThresholds()).Score(requirements, judgments)
}

// Score computes the weighted fit score. It never fails: missing judgments
// count as 0, out-of-range values are clamped and non-positive weights are
// excluded from the average while still subject to the mandatory check.
func (s *FitScorer) Score(requirements []Requirement, judgments []Judgment) FitScoreResult {
	result := FitScoreResult{
		DealBreakerFlags: []string{},
		WeightedScores:   make(map[string]float64, len(requirements)),
		Breakdown:        make([]RequirementResult, 0, len(requirements)),
	}

	// Vacuous pass: nothing to fail.
	if len(requirements) == 0 {
		result.FitScore = int(MaxScore)
		result.ResponseStatus = StatusPass
		return result
	}

	byID := indexJudgments(judgments)

	var totalWeight, weightedSum float64
	for _, req := range requirements {
		rr := RequirementResult{
			RequirementID: req.ID,
			Text:          req.Text,
			Mandatory:     req.IsMandatory,
			Reason:        "not addressed",
		}
		if j, ok := byID[req.ID]; ok {
			rr.Score = clamp(j.Score, 0, MaxScore)
			rr.Judged = true
			rr.Reason = j.Reasoning
		}

		rr.Weight = req.EffectiveWeight()
		rr.Weighted = rr.Score * rr.Weight
		rr.Matched = rr.Score >= s.thresholds.Match

		result.WeightedScores[req.ID] = rr.Score
		totalWeight += rr.Weight
		weightedSum += rr.Weighted

		if req.IsMandatory && !rr.Matched {
			result.DealBreakerFlags = append(result.DealBreakerFlags, req.Text)
		}
		result.Breakdown = append(result.Breakdown, rr)
	}

	raw := 0
	if totalWeight > 0 {
		raw = roundScore(weightedSum / totalWeight)
	}

	result.FitScore = raw
	if result.HasDealBreakers() && raw > s.thresholds.DealBreakerCap {
		result.FitScore = s.thresholds.DealBreakerCap
	}
	result.ResponseStatus = s.status(result)
	return result
}

func (s *FitScorer) status(r FitScoreResult) ResponseStatus {
	switch {
	case r.HasDealBreakers():
		return StatusFail
	case r.FitScore >= s.thresholds.Pass:
		return StatusPass
	default:
		return StatusPartial
	}
}

// indexJudgments maps requirement id to judgment; the first judgment for an id wins.
func indexJudgments(judgments []Judgment) map[string]Judgment {
	byID := make(map[string]Judgment, len(judgments))
	for _, j := range judgments {
		if _, seen := byID[j.RequirementID]; seen {
			continue
		}
		byID[j.RequirementID] = j
	}
	return byID
}
