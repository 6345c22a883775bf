package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit_Empty(t *testing.T) {
	m, rep, err := Fit(Dataset{}, DefaultFitOptions())
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Nil(t, rep)

	var te *TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.Rows)
}

func TestFit_SingleClass(t *testing.T) {
	ds := Dataset{
		{Observation: Observation{HeartRate: 70, SpO2: 99, ActivityLevel: 10}, Label: Normal},
		{Observation: Observation{HeartRate: 72, SpO2: 98, ActivityLevel: 40}, Label: Normal},
		{Observation: Observation{HeartRate: 68, SpO2: 97, ActivityLevel: 90}, Label: Normal},
	}
	m, _, err := Fit(ds, DefaultFitOptions())
	assert.Nil(t, m)

	var te *TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 1, te.Labels)
}

func TestFit_EmptyTrainingPartition(t *testing.T) {
	ds := Dataset{
		{Observation: Observation{HeartRate: 70, SpO2: 99}, Label: Normal},
		{Observation: Observation{HeartRate: 130, SpO2: 90}, Label: Critical},
	}
	_, _, err := Fit(ds, FitOptions{TestRatio: 0.9})
	var te *TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "empty training partition", te.Reason)
}

func TestFit_SingleClassTrainingPartition(t *testing.T) {
	ds := Dataset{
		{Observation: Observation{HeartRate: 70, SpO2: 99}, Label: Normal},
		{Observation: Observation{HeartRate: 130, SpO2: 90}, Label: Critical},
	}
	_, _, err := Fit(ds, DefaultFitOptions())
	var te *TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 1, te.Labels)
	assert.Equal(t, 1, te.Rows)
}

func TestFit_InvalidLabel(t *testing.T) {
	ds := GenerateDataset(DefaultSeed, 200)
	for i := 0; i < len(ds); i += 7 {
		ds[i].Label = Label(5)
	}

	var (
		m   *Model
		err error
	)
	require.NotPanics(t, func() {
		m, _, err = Fit(ds, FitOptions{MaxIterations: 5})
	})
	assert.Nil(t, m)

	var te *TrainingError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Reason, "invalid label 5")
	assert.Equal(t, 200, te.Rows)
}

func TestFit_NegativeLabel(t *testing.T) {
	ds := Dataset{
		{Observation: Observation{HeartRate: 70, SpO2: 99}, Label: Normal},
		{Observation: Observation{HeartRate: 130, SpO2: 90}, Label: Critical},
		{Observation: Observation{HeartRate: 95, SpO2: 97}, Label: Label(-1)},
	}
	_, _, err := Fit(ds, DefaultFitOptions())
	var te *TrainingError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Reason, "invalid label -1 at row 2")
}

func TestFit_Default(t *testing.T) {
	ds := GenerateDataset(DefaultSeed, DefaultSamples)
	m, rep, err := Fit(ds, DefaultFitOptions())
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, rep)

	assert.Equal(t, DefaultSamples, rep.Samples)
	assert.Equal(t, 8000, rep.TrainSize)
	assert.Equal(t, 2000, rep.TestSize)
	assert.Greater(t, rep.Accuracy, 0.85)
	assert.LessOrEqual(t, rep.Accuracy, 1.0)

	require.Len(t, rep.Classes, 3)
	support := 0
	for i, c := range rep.Classes {
		assert.Equal(t, Label(i), c.Label)
		assert.GreaterOrEqual(t, c.Precision, 0.0)
		assert.LessOrEqual(t, c.Recall, 1.0)
		support += c.Support
	}
	assert.Equal(t, rep.TestSize, support)

	assert.Equal(t, Critical, m.Predict(Observation{HeartRate: 180, SpO2: 85, ActivityLevel: 50}))
	assert.Equal(t, Normal, m.Predict(Observation{HeartRate: 70, SpO2: 99, ActivityLevel: 50}))
}

func TestFit_Deterministic(t *testing.T) {
	ds := GenerateDataset(11, 1000)
	opts := FitOptions{MaxIterations: 50}

	m1, r1, err := Fit(ds, opts)
	require.NoError(t, err)
	m2, r2, err := Fit(ds, opts)
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Equal(t, r1.Accuracy, r2.Accuracy)
}

func TestFit_ScalerUsesTrainingPartition(t *testing.T) {
	ds := GenerateDataset(DefaultSeed, 200)
	opts := DefaultFitOptions()
	opts.MaxIterations = 10

	m, _, err := Fit(ds, opts)
	require.NoError(t, err)

	trainIdx, _ := splitIndices(len(ds), opts.TestRatio, opts.SplitSeed)
	x, _ := matrix(pick(ds, trainIdx))
	assert.Equal(t, fitStandardizer(x), m.Scaler)
}

func TestModelProbabilities(t *testing.T) {
	m, _, err := Fit(GenerateDataset(DefaultSeed, 2000), FitOptions{MaxIterations: 50})
	require.NoError(t, err)

	o := Observation{HeartRate: 180, SpO2: 85, ActivityLevel: 0}
	p := m.Probabilities(o)
	sum := 0.0
	for _, v := range p {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, p[Critical], p[Normal])
}

func TestFitOptions_WithDefaults(t *testing.T) {
	o := FitOptions{SplitSeed: 7}.withDefaults()
	assert.Equal(t, uint64(7), o.SplitSeed)
	assert.Equal(t, defaultTestRatio, o.TestRatio)
	assert.Equal(t, defaultMaxIterations, o.MaxIterations)
	assert.Equal(t, defaultC, o.C)
}
