package risk

import (
	"fmt"
	"strings"
)

// Label is the ordinal risk category assigned to an observation.
type Label int

const (
	Normal Label = iota
	Warning
	Critical

	numLabels = 3
)

var labelNames = [numLabels]string{"Normal", "Warning", "Critical"}

// Labels lists every label in ascending order of severity.
var Labels = []Label{Normal, Warning, Critical}

func (l Label) valid() bool {
	return l >= Normal && l <= Critical
}

func (l Label) String() string {
	if !l.valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// Alert reports whether the label warrants an alert.
func (l Label) Alert() bool {
	return l == Critical
}

// ParseLabel converts a label name (case-insensitive) into a Label.
func ParseLabel(s string) (Label, error) {
	for i, name := range labelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Label(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown risk label: %q", s)
}

func (l Label) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, fmt.Errorf("invalid risk label: %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(b []byte) error {
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
