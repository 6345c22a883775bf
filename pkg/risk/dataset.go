package risk

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultSeed seeds both dataset generation and the train/test split.
	DefaultSeed uint64 = 42

	// DefaultSamples is the size of the generated training set.
	DefaultSamples = 10000

	heartRateMean = 75.0
	heartRateSD   = 15.0
	spo2Mean      = 98.0
	spo2SD        = 2.0
	activityMax   = 100.0

	criticalHeartRate = 100.0
	criticalSpO2      = 92.0
	warningHeartRate  = 90.0
	warningSpO2       = 95.0
)

// Row is a labeled observation.
type Row struct {
	Observation `yaml:",inline"`
	Label       Label `json:"risk" yaml:"risk"`
}

// Dataset is an ordered collection of labeled observations.
type Dataset []Row

// LabelFor applies the threshold rule. The critical condition is checked
// first; activity level never takes part.
func LabelFor(heartRate, spo2 float64) Label {
	switch {
	case heartRate > criticalHeartRate || spo2 < criticalSpO2:
		return Critical
	case heartRate > warningHeartRate || spo2 < warningSpO2:
		return Warning
	default:
		return Normal
	}
}

// GenerateDataset draws n synthetic observations and labels them.
// The same seed and n always produce the same rows.
func GenerateDataset(seed uint64, n int) Dataset {
	if n <= 0 {
		return Dataset{}
	}

	src := rand.NewPCG(seed, seed)

	// each column is drawn in full before the next one
	hr := draw(distuv.Normal{Mu: heartRateMean, Sigma: heartRateSD, Src: src}, n)
	spo2 := draw(distuv.Normal{Mu: spo2Mean, Sigma: spo2SD, Src: src}, n)
	activity := draw(distuv.Uniform{Min: 0, Max: activityMax, Src: src}, n)

	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = Row{
			Observation: Observation{
				HeartRate:     hr[i],
				SpO2:          spo2[i],
				ActivityLevel: activity[i],
			},
			Label: LabelFor(hr[i], spo2[i]),
		}
	}
	return ds
}

func draw(d distuv.Rander, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Classes returns the number of distinct labels present.
func (d Dataset) Classes() int {
	var seen [numLabels]bool
	count := 0
	for _, row := range d {
		if !row.Label.valid() || seen[row.Label] {
			continue
		}
		seen[row.Label] = true
		count++
	}
	return count
}

// Counts returns the number of rows per label.
func (d Dataset) Counts() map[Label]int {
	counts := make(map[Label]int, numLabels)
	for _, row := range d {
		counts[row.Label]++
	}
	return counts
}

// Sample picks n rows at random without replacement. When n exceeds the
// dataset size the whole dataset is returned in random order.
func (d Dataset) Sample(r *rand.Rand, n int) Dataset {
	if n <= 0 || len(d) == 0 {
		return Dataset{}
	}
	if n > len(d) {
		n = len(d)
	}
	idx := r.Perm(len(d))[:n]
	out := make(Dataset, n)
	for i, j := range idx {
		out[i] = d[j]
	}
	return out
}
