package risk

import (
	"time"
)

// Report summarizes one training run and its held-out evaluation. Seed is
// zero when the dataset was supplied by the caller.
type Report struct {
	Seed      uint64         `json:"seed" yaml:"seed"`
	Samples   int            `json:"samples" yaml:"samples"`
	TrainSize int            `json:"train_size" yaml:"trainSize"`
	TestSize  int            `json:"test_size" yaml:"testSize"`
	Accuracy  float64        `json:"accuracy" yaml:"accuracy"`
	Classes   []ClassMetrics `json:"classes" yaml:"classes"`
	Options   FitOptions     `json:"options" yaml:"options"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
}

// ClassMetrics holds the per-label scores on the test partition.
type ClassMetrics struct {
	Label     Label   `json:"label" yaml:"label"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// evaluate scores the model on the test rows. Undefined ratios
// (no predictions or no support for a label) are reported as 0.
func evaluate(m *Model, test Dataset) *Report {
	rep := &Report{TestSize: len(test)}

	var tp, predicted, support [numLabels]int
	correct := 0
	for _, row := range test {
		got := m.Predict(row.Observation)
		predicted[got]++
		support[row.Label]++
		if got == row.Label {
			tp[got]++
			correct++
		}
	}

	if len(test) > 0 {
		rep.Accuracy = float64(correct) / float64(len(test))
	}

	rep.Classes = make([]ClassMetrics, 0, numLabels)
	for _, l := range Labels {
		cm := ClassMetrics{Label: l, Support: support[l]}
		if predicted[l] > 0 {
			cm.Precision = float64(tp[l]) / float64(predicted[l])
		}
		if support[l] > 0 {
			cm.Recall = float64(tp[l]) / float64(support[l])
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		rep.Classes = append(rep.Classes, cm)
	}
	return rep
}
