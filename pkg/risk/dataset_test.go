package risk

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelFor(t *testing.T) {
	tests := []struct {
		name      string
		heartRate float64
		spo2      float64
		want      Label
	}{
		{"tachycardia", 105, 97, Critical},
		{"elevated heart rate", 95, 97, Warning},
		{"resting", 80, 99, Normal},
		{"hypoxia dominates", 80, 91, Critical},
		{"low spo2", 80, 94, Warning},
		{"heart rate at critical bound", 100, 97, Warning},
		{"spo2 at critical bound", 80, 92, Warning},
		{"heart rate at warning bound", 90, 97, Normal},
		{"spo2 at warning bound", 80, 95, Normal},
		{"both warning", 95, 94, Warning},
		{"critical heart rate with warning spo2", 120, 94, Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelFor(tt.heartRate, tt.spo2))
		})
	}
}

func TestGenerateDataset_Deterministic(t *testing.T) {
	a := GenerateDataset(DefaultSeed, 500)
	b := GenerateDataset(DefaultSeed, 500)
	require.Len(t, a, 500)
	assert.Equal(t, a, b)
}

func TestGenerateDataset_SeedChangesRows(t *testing.T) {
	a := GenerateDataset(1, 100)
	b := GenerateDataset(2, 100)
	assert.NotEqual(t, a, b)
}

func TestGenerateDataset_Empty(t *testing.T) {
	assert.Empty(t, GenerateDataset(DefaultSeed, 0))
	assert.Empty(t, GenerateDataset(DefaultSeed, -5))
}

func TestGenerateDataset_LabelsFollowRule(t *testing.T) {
	ds := GenerateDataset(DefaultSeed, DefaultSamples)
	for i, row := range ds {
		require.Equal(t, LabelFor(row.HeartRate, row.SpO2), row.Label, "row %d", i)
		require.GreaterOrEqual(t, row.ActivityLevel, 0.0)
		require.Less(t, row.ActivityLevel, activityMax)
	}
}

func TestGenerateDataset_Distribution(t *testing.T) {
	ds := GenerateDataset(DefaultSeed, DefaultSamples)

	var hr, spo2 float64
	for _, row := range ds {
		hr += row.HeartRate
		spo2 += row.SpO2
	}
	n := float64(len(ds))
	assert.InDelta(t, heartRateMean, hr/n, 1.0)
	assert.InDelta(t, spo2Mean, spo2/n, 0.2)

	counts := ds.Counts()
	assert.Equal(t, 3, ds.Classes())
	assert.Greater(t, counts[Normal], counts[Warning])
	assert.Greater(t, counts[Warning], counts[Critical])
}

func TestLabel_IgnoresActivity(t *testing.T) {
	ds := GenerateDataset(7, 1000)
	for _, row := range ds {
		for _, activity := range []float64{0, 50, 100, 250} {
			o := row.Observation
			o.ActivityLevel = activity
			assert.Equal(t, row.Label, LabelFor(o.HeartRate, o.SpO2))
		}
	}
}

func TestDatasetSample(t *testing.T) {
	ds := GenerateDataset(DefaultSeed, 100)
	r := rand.New(rand.NewPCG(1, 2))

	s := ds.Sample(r, 10)
	require.Len(t, s, 10)
	for _, row := range s {
		assert.Contains(t, ds, row)
	}

	assert.Len(t, ds.Sample(r, 500), 100)
	assert.Empty(t, ds.Sample(r, 0))
	assert.Empty(t, Dataset{}.Sample(r, 3))
}
