package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePrediction(t *testing.T) {
	db := setupTestDB(t)

	p := &Prediction{HeartRate: 105, SpO2: 97, ActivityLevel: 20, Risk: "Critical", Source: SourceCLI}
	require.NoError(t, SavePrediction(db, p))
	assert.Positive(t, p.ID)
	assert.NotEmpty(t, p.CreatedAt)

	list, err := GetPredictions(db, nil, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p, list[0])
}

func TestSavePrediction_Invalid(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SavePrediction(db, nil))
	assert.Error(t, SavePrediction(db, &Prediction{Risk: "Normal"}))
	assert.Error(t, SavePrediction(nil, &Prediction{Risk: "Normal", Source: SourceCLI}))
}

func TestSavePredictions(t *testing.T) {
	db := setupTestDB(t)

	list := []*Prediction{
		{HeartRate: 80, SpO2: 99, ActivityLevel: 10, Risk: "Normal", Source: SourceAPI},
		{HeartRate: 95, SpO2: 97, ActivityLevel: 30, Risk: "Warning", Source: SourceAPI},
		{HeartRate: 80, SpO2: 91, ActivityLevel: 70, Risk: "Critical", Source: SourceAPI},
	}
	require.NoError(t, SavePredictions(db, list))
	for _, p := range list {
		assert.Positive(t, p.ID)
	}

	got, err := GetPredictions(db, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// newest first
	assert.Equal(t, "Critical", got[0].Risk)
	assert.Equal(t, "Normal", got[2].Risk)
}

func TestSavePredictions_RejectsInvalid(t *testing.T) {
	db := setupTestDB(t)

	list := []*Prediction{
		{HeartRate: 80, SpO2: 99, Risk: "Normal", Source: SourceAPI},
		{HeartRate: 80, SpO2: 99},
	}
	assert.Error(t, SavePredictions(db, list))

	got, err := GetPredictions(db, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetPredictions_Filter(t *testing.T) {
	db := setupTestDB(t)

	for _, risk := range []string{"Normal", "Critical", "Normal", "Warning"} {
		require.NoError(t, SavePrediction(db, &Prediction{Risk: risk, Source: SourceCLI}))
	}

	risk := "Normal"
	got, err := GetPredictions(db, &risk, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = GetPredictions(db, nil, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Warning", got[0].Risk)
}

func TestGetPredictions_NilDB(t *testing.T) {
	_, err := GetPredictions(nil, nil, 10)
	assert.Error(t, err)
}
