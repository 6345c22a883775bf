package risk

import "gonum.org/v1/gonum/stat"

// Standardizer centers and scales features with statistics taken from
// the training partition.
type Standardizer struct {
	Mean  [numFeatures]float64 `json:"mean" yaml:"mean"`
	Scale [numFeatures]float64 `json:"scale" yaml:"scale"`
}

// fitStandardizer uses the population standard deviation. Constant
// features get a scale of 1 so they transform to zero.
func fitStandardizer(x [][numFeatures]float64) Standardizer {
	var s Standardizer
	for j := range s.Scale {
		s.Scale[j] = 1
	}
	if len(x) == 0 {
		return s
	}

	col := make([]float64, len(x))
	for j := range s.Mean {
		for i, v := range x {
			col[i] = v[j]
		}
		mean, sd := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if sd > 0 {
			s.Scale[j] = sd
		}
	}
	return s
}

// Transform returns the standardized feature vector.
func (s Standardizer) Transform(v [numFeatures]float64) [numFeatures]float64 {
	var out [numFeatures]float64
	for j := range v {
		out[j] = (v[j] - s.Mean[j]) / s.Scale[j]
	}
	return out
}
