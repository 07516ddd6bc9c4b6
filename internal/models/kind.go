package models

import "fmt"

// Kind identifies one of the oceanographic measurements the pipeline tracks.
type Kind string

const (
	KindTideHeight       Kind = "tide_height"
	KindCurrentVector    Kind = "current_vector"
	KindWaterTemperature Kind = "water_temperature"
)

// AllKinds returns every supported kind in a stable order.
func AllKinds() []Kind {
	return []Kind{KindTideHeight, KindCurrentVector, KindWaterTemperature}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTideHeight, KindCurrentVector, KindWaterTemperature:
		return true
	}
	return false
}

// ParseKind converts a string into a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown measurement kind: %q", s)
	}
	return k, nil
}
