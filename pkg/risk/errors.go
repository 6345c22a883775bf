package risk

import (
	"errors"
	"fmt"
)

// ErrAlreadyTrained is returned when fitting a scorer that already holds a model.
var ErrAlreadyTrained = errors.New("scorer already trained")

// TrainingError reports a training set the classifier cannot be fitted on.
type TrainingError struct {
	Reason string
	Rows   int
	Labels int
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed: %s (rows: %d, labels: %d)", e.Reason, e.Rows, e.Labels)
}
