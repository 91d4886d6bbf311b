package scoring

import (
	"fmt"
	"math"
)

const (
	// MatchThreshold is the inclusive per-requirement score at which a requirement counts as matched.
	MatchThreshold = 60.0
	// PassThreshold is the minimum fit score for a pass status.
	PassThreshold = 80
	// DealBreakerCap is the highest fit score a submission with a failed mandatory requirement can have.
	DealBreakerCap = 59

	// UtilizationMix and SentimentMix blend the two adoption inputs.
	UtilizationMix = 0.6
	SentimentMix   = 0.4

	// MaxRequirementWeight bounds a single requirement's weight at ingestion.
	MaxRequirementWeight = 100.0
	// DefaultRequirementWeight applies when a requirement carries no weight.
	DefaultRequirementWeight = 1.0

	MaxScore      = 100.0
	MaxSentiment  = 10.0
	MaxToolName   = 100
	MaxAuditItems = 50
)

// Thresholds bundles the fixed constants the fit and adoption scorers branch on.
type Thresholds struct {
	Match          float64
	Pass           int
	DealBreakerCap int
	UtilizationMix float64
	SentimentMix   float64
}

// DefaultThresholds returns the constants every production scoring run uses.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Match:          MatchThreshold,
		Pass:           PassThreshold,
		DealBreakerCap: DealBreakerCap,
		UtilizationMix: UtilizationMix,
		SentimentMix:   SentimentMix,
	}
}

// Validate rejects any departure from the fixed constants. A deal breaker must
// always cap the fit score at DealBreakerCap, whatever the caller passes in.
func (t Thresholds) Validate() error {
	if t.Match != MatchThreshold {
		return fmt.Errorf("match threshold is fixed at %.0f, got %.1f", MatchThreshold, t.Match)
	}
	if t.Pass != PassThreshold {
		return fmt.Errorf("pass threshold is fixed at %d, got %d", PassThreshold, t.Pass)
	}
	if t.DealBreakerCap != DealBreakerCap {
		return fmt.Errorf("deal-breaker cap is fixed at %d, got %d", DealBreakerCap, t.DealBreakerCap)
	}
	if t.UtilizationMix != UtilizationMix || t.SentimentMix != SentimentMix {
		return fmt.Errorf("adoption mix is fixed at %.1f/%.1f, got %.2f/%.2f", UtilizationMix, SentimentMix, t.UtilizationMix, t.SentimentMix)
	}
	return nil
}

// clamp bounds v to [min, max]. NaN maps to min.
func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) || v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// roundScore rounds half away from zero, which for the non-negative values
// scoring produces is round-half-up.
func roundScore(v float64) int {
	return int(math.Round(v))
}
