package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Fitting constants.
const (
	minFitSamples = 20
	fitIterations = 400
	fitRate       = 0.15
)

// Sample is one historical game: the pre-game score difference and whether the home team won.
type Sample struct {
	ScoreDiff float64 `json:"score_diff"`
	HomeWon   bool    `json:"home_won"`
}

// FittedProjector is a logistic regression p = σ(b0 + b1·diff/scale) trained on
// past predictions. With too few samples it behaves like the fixed logistic curve.
type FittedProjector struct {
	coef     []float64
	fallback LogisticProjector
	fitted   bool
}

// Fit trains a projector by batch gradient descent on log-loss.
func Fit(samples []Sample) *FittedProjector {
	p := &FittedProjector{fallback: LogisticProjector{Scale: DefaultLogisticScale}}
	if len(samples) < minFitSamples {
		return p
	}

	xs := make([][]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = []float64{1, s.ScoreDiff / DefaultLogisticScale}
		if s.HomeWon {
			ys[i] = 1
		}
	}

	w := []float64{0, 1}
	grad := make([]float64, len(w))
	n := float64(len(samples))
	for iter := 0; iter < fitIterations; iter++ {
		for k := range grad {
			grad[k] = 0
		}
		for i, x := range xs {
			e := sigmoid(floats.Dot(w, x)) - ys[i]
			floats.AddScaled(grad, e/n, x)
		}
		floats.AddScaled(w, -fitRate, grad)
	}

	p.coef = w
	p.fitted = true
	return p
}

// Fitted reports whether enough samples were available to train.
func (p *FittedProjector) Fitted() bool { return p.fitted }

// Coefficients returns a copy of the intercept and slope.
func (p *FittedProjector) Coefficients() []float64 {
	return append([]float64(nil), p.coef...)
}

// Probability implements Projector.
func (p *FittedProjector) Probability(scoreDiff float64) float64 {
	if !p.fitted {
		return p.fallback.Probability(scoreDiff)
	}
	return sigmoid(floats.Dot(p.coef, []float64{1, scoreDiff / DefaultLogisticScale}))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
