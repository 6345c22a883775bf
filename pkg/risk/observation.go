package risk

const numFeatures = 3

// Observation is a single vitals reading. Values are accepted as-is,
// out-of-range readings are scored like any other.
type Observation struct {
	HeartRate     float64 `json:"heart_rate" yaml:"heartRate"`
	SpO2          float64 `json:"spo2" yaml:"spo2"`
	ActivityLevel float64 `json:"activity_level" yaml:"activityLevel"`
}

func (o Observation) features() [numFeatures]float64 {
	return [numFeatures]float64{o.HeartRate, o.SpO2, o.ActivityLevel}
}
