package risk

import (
	"fmt"
	"time"
)

const (
	defaultTestRatio     = 0.2
	defaultMaxIterations = 100
	defaultC             = 1.0
)

// FitOptions controls the train/test split and the optimizer.
type FitOptions struct {
	SplitSeed     uint64  `json:"split_seed" yaml:"splitSeed"`
	TestRatio     float64 `json:"test_ratio" yaml:"testRatio"`
	MaxIterations int     `json:"max_iterations" yaml:"maxIterations"`
	C             float64 `json:"c" yaml:"c"`
}

// DefaultFitOptions returns an 80/20 split seeded with DefaultSeed and
// an L2 penalty with inverse strength 1.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		SplitSeed:     DefaultSeed,
		TestRatio:     defaultTestRatio,
		MaxIterations: defaultMaxIterations,
		C:             defaultC,
	}
}

func (o FitOptions) withDefaults() FitOptions {
	d := DefaultFitOptions()
	if o.TestRatio <= 0 || o.TestRatio >= 1 {
		o.TestRatio = d.TestRatio
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.C <= 0 {
		o.C = d.C
	}
	return o
}

// Model is the fitted state: standardization plus classifier weights.
// It is immutable and safe for concurrent use.
type Model struct {
	Scaler     Standardizer      `json:"scaler" yaml:"scaler"`
	Classifier softmaxClassifier `json:"classifier" yaml:"classifier"`
}

// Predict standardizes the observation and returns the most likely label.
func (m *Model) Predict(o Observation) Label {
	return m.Classifier.predict(m.Scaler.Transform(o.features()))
}

// Probabilities returns the per-label class probabilities, indexed by Label.
func (m *Model) Probabilities(o Observation) [numLabels]float64 {
	return m.Classifier.probabilities(m.Scaler.Transform(o.features()))
}

// Fit splits the dataset, standardizes on the training partition and
// trains the classifier. The held-out evaluation is returned as a report
// and has no effect on the model.
func Fit(ds Dataset, opts FitOptions) (*Model, *Report, error) {
	start := time.Now()
	opts = opts.withDefaults()

	if len(ds) == 0 {
		return nil, nil, &TrainingError{Reason: "empty training set"}
	}
	for i, row := range ds {
		if !row.Label.valid() {
			return nil, nil, &TrainingError{Reason: fmt.Sprintf("invalid label %d at row %d", int(row.Label), i), Rows: len(ds), Labels: ds.Classes()}
		}
	}
	if c := ds.Classes(); c < 2 {
		return nil, nil, &TrainingError{Reason: "fewer than 2 distinct labels", Rows: len(ds), Labels: c}
	}

	trainIdx, testIdx := splitIndices(len(ds), opts.TestRatio, opts.SplitSeed)
	train := pick(ds, trainIdx)
	test := pick(ds, testIdx)

	if len(train) == 0 {
		return nil, nil, &TrainingError{Reason: "empty training partition", Rows: len(ds), Labels: ds.Classes()}
	}
	if c := train.Classes(); c < 2 {
		return nil, nil, &TrainingError{Reason: "fewer than 2 distinct labels in training partition", Rows: len(train), Labels: c}
	}

	xTrain, yTrain := matrix(train)
	scaler := fitStandardizer(xTrain)
	for i := range xTrain {
		xTrain[i] = scaler.Transform(xTrain[i])
	}

	clf, err := trainSoftmax(xTrain, yTrain, opts)
	if err != nil {
		return nil, nil, &TrainingError{Reason: err.Error(), Rows: len(train), Labels: train.Classes()}
	}

	m := &Model{
		Scaler:     scaler,
		Classifier: *clf,
	}

	rep := evaluate(m, test)
	rep.Samples = len(ds)
	rep.TrainSize = len(train)
	rep.Options = opts
	rep.Duration = time.Since(start)

	return m, rep, nil
}

func pick(ds Dataset, idx []int) Dataset {
	out := make(Dataset, len(idx))
	for i, j := range idx {
		out[i] = ds[j]
	}
	return out
}

func matrix(ds Dataset) ([][numFeatures]float64, []Label) {
	x := make([][numFeatures]float64, len(ds))
	y := make([]Label, len(ds))
	for i, row := range ds {
		x[i] = row.features()
		y[i] = row.Label
	}
	return x, y
}
