package risk

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// softmaxClassifier is a multinomial logistic regression over standardized
// features: one weight vector and bias per label.
type softmaxClassifier struct {
	Weights [numLabels][numFeatures]float64 `json:"weights" yaml:"weights"`
	Bias    [numLabels]float64              `json:"bias" yaml:"bias"`
}

func (c *softmaxClassifier) logits(x [numFeatures]float64) [numLabels]float64 {
	var z [numLabels]float64
	for k := range z {
		z[k] = c.Bias[k]
		for j := range x {
			z[k] += c.Weights[k][j] * x[j]
		}
	}
	return z
}

func (c *softmaxClassifier) probabilities(x [numFeatures]float64) [numLabels]float64 {
	z := c.logits(x)
	lse := floats.LogSumExp(z[:])

	var p [numLabels]float64
	for k := range z {
		p[k] = math.Exp(z[k] - lse)
	}
	return p
}

// predict returns the arg-max label; ties go to the lower label.
func (c *softmaxClassifier) predict(x [numFeatures]float64) Label {
	z := c.logits(x)
	return Label(floats.MaxIdx(z[:]))
}

const (
	numParams         = numLabels * (numFeatures + 1)
	gradientThreshold = 1e-6
)

// trainSoftmax minimizes the mean cross-entropy plus an L2 penalty of
// |W|^2/(2*C*n) with L-BFGS, starting from zero weights. Biases are not
// penalized. The result depends only on the inputs and options.
func trainSoftmax(x [][numFeatures]float64, y []Label, opts FitOptions) (*softmaxClassifier, error) {
	if len(x) == 0 {
		return &softmaxClassifier{}, nil
	}

	obj := &softmaxObjective{x: x, y: y, l2: 1 / (opts.C * float64(len(x)))}
	p := optimize.Problem{
		Func: func(w []float64) float64 { return obj.eval(w, nil) },
		Grad: func(grad, w []float64) { obj.eval(w, grad) },
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIterations,
		GradientThreshold: gradientThreshold,
	}

	res, err := optimize.Minimize(p, make([]float64, numParams), settings, &optimize.LBFGS{})
	if res == nil {
		return nil, fmt.Errorf("minimizing softmax loss: %w", err)
	}
	if err != nil {
		// keep the last location unless it diverged
		if !finite(res.X) {
			return nil, fmt.Errorf("minimizing softmax loss: %w", err)
		}
		slog.Debug("optimizer stopped early", "status", res.Status, "error", err)
	}

	slog.Debug("softmax fitted", "status", res.Status, "iterations", res.MajorIterations, "loss", res.F)
	return unpack(res.X), nil
}

// softmaxObjective holds the training data for the loss function.
type softmaxObjective struct {
	x  [][numFeatures]float64
	y  []Label
	l2 float64
}

// eval returns the loss at w and writes the gradient into grad when it
// is not nil.
func (o *softmaxObjective) eval(w, grad []float64) float64 {
	c := unpack(w)
	n := float64(len(o.x))

	if grad != nil {
		for i := range grad {
			grad[i] = 0
		}
	}

	loss := 0.0
	for i, v := range o.x {
		p := c.probabilities(v)
		loss -= math.Log(math.Max(p[o.y[i]], math.SmallestNonzeroFloat64))
		if grad == nil {
			continue
		}
		for k := range p {
			d := p[k]
			if Label(k) == o.y[i] {
				d--
			}
			for j := range v {
				grad[param(k, j)] += d * v[j]
			}
			grad[param(k, numFeatures)] += d
		}
	}
	loss /= n

	for k := range c.Weights {
		for j, wk := range c.Weights[k] {
			loss += 0.5 * o.l2 * wk * wk
			if grad != nil {
				grad[param(k, j)] = grad[param(k, j)]/n + o.l2*wk
			}
		}
		if grad != nil {
			grad[param(k, numFeatures)] /= n
		}
	}
	return loss
}

// param is the index of weight j of label k in the flat parameter vector;
// j == numFeatures addresses the bias.
func param(k, j int) int {
	return k*(numFeatures+1) + j
}

func unpack(w []float64) *softmaxClassifier {
	c := &softmaxClassifier{}
	for k := range c.Weights {
		for j := range c.Weights[k] {
			c.Weights[k][j] = w[param(k, j)]
		}
		c.Bias[k] = w[param(k, numFeatures)]
	}
	return c
}

func finite(w []float64) bool {
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
