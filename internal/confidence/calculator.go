// Package confidence computes the Confidence Calculator (C10): a weighted
// sum of four normalized components (vector, tool, evidence, query) with a
// human-readable bucket and per-component explanation.
package confidence

import "fmt"

// Bucket is a coarse confidence label surfaced to callers.
type Bucket string

const (
	BucketVeryHigh Bucket = "Very High"
	BucketHigh     Bucket = "High"
	BucketMedium   Bucket = "Medium"
	BucketLow      Bucket = "Low"
	BucketVeryLow  Bucket = "Very Low"
)

// Weights configures the relative contribution of each component. Calculate
// rejects weights that do not sum to 1.0 (see Validate).
type Weights struct {
	Vector   float64
	Tool     float64
	Evidence float64
	Query    float64
}

// DefaultWeights returns the default component weights.
func DefaultWeights() Weights {
	return Weights{Vector: 0.40, Tool: 0.30, Evidence: 0.20, Query: 0.10}
}

// Validate reports an error if the weights don't sum to 1.0 (within
// floating-point tolerance).
func (w Weights) Validate() error {
	sum := w.Vector + w.Tool + w.Evidence + w.Query
	const epsilon = 1e-6
	if sum < 1-epsilon || sum > 1+epsilon {
		return fmt.Errorf("confidence: weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// Metrics is the raw signal the four components are derived from.
type Metrics struct {
	// SnippetRelevances holds the relevance score (0..1) of each retrieved
	// top snippet; the vector component is their mean.
	SnippetRelevances []float64

	// SuccessfulToolExecutions and ToolExecutionCount drive the tool
	// component: successful/total, or 0.5 neutral when count is 0.
	SuccessfulToolExecutions int
	ToolExecutionCount       int

	// EvidenceRelevanceRate and EvidenceAverageQuality drive the evidence
	// component: 0.6*rate + 0.4*quality, or 0.3 when HasEvidence is false.
	EvidenceRelevanceRate  float64
	EvidenceAverageQuality float64
	HasEvidence            bool

	// QueryClarity is a caller-supplied clarity heuristic in [0.1, 1.0].
	QueryClarity float64
}

// ComponentExplanation reports one weighted component's contribution.
type ComponentExplanation struct {
	Name        string
	RawScore    float64
	Weight      float64
	Contributes float64 // Weight * RawScore
	PercentOf   float64 // Contributes as a percentage of the total score
}

// Result is the full output of Calculate.
type Result struct {
	Score        float64
	Bucket       Bucket
	Components   []ComponentExplanation
}

// Calculate computes the weighted confidence score, bucket and
// per-component explanation for m under w.
func Calculate(m Metrics, w Weights) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	vector := vectorComponent(m.SnippetRelevances)
	tool := toolComponent(m.SuccessfulToolExecutions, m.ToolExecutionCount)
	evidence := evidenceComponent(m)
	query := queryComponent(m.QueryClarity)

	total := w.Vector*vector + w.Tool*tool + w.Evidence*evidence + w.Query*query

	result := &Result{Score: total, Bucket: bucketize(total)}
	result.Components = []ComponentExplanation{
		explain("vector", vector, w.Vector, total),
		explain("tool", tool, w.Tool, total),
		explain("evidence", evidence, w.Evidence, total),
		explain("query", query, w.Query, total),
	}
	return result, nil
}

func vectorComponent(relevances []float64) float64 {
	if len(relevances) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range relevances {
		sum += r
	}
	return sum / float64(len(relevances))
}

func toolComponent(successful, total int) float64 {
	if total == 0 {
		return 0.5
	}
	return float64(successful) / float64(total)
}

func evidenceComponent(m Metrics) float64 {
	if !m.HasEvidence {
		return 0.3
	}
	return 0.6*m.EvidenceRelevanceRate + 0.4*m.EvidenceAverageQuality
}

func queryComponent(clarity float64) float64 {
	if clarity < 0.1 {
		return 0.1
	}
	if clarity > 1.0 {
		return 1.0
	}
	return clarity
}

func bucketize(score float64) Bucket {
	switch {
	case score >= 0.90:
		return BucketVeryHigh
	case score >= 0.75:
		return BucketHigh
	case score >= 0.50:
		return BucketMedium
	case score >= 0.25:
		return BucketLow
	default:
		return BucketVeryLow
	}
}

func explain(name string, raw, weight, total float64) ComponentExplanation {
	contributes := weight * raw
	var percent float64
	if total != 0 {
		percent = contributes / total * 100
	}
	return ComponentExplanation{Name: name, RawScore: raw, Weight: weight, Contributes: contributes, PercentOf: percent}
}
