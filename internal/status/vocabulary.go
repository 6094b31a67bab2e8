package status

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the closed value sets for every track. The secondary
// label sets and the CHECK options are display strings agreed with the
// product owner, so they are configuration data rather than code; the
// defaults can be overridden from a YAML file.
type Vocabulary struct {
	// OrderSecondary lists the processing-stage labels permitted when the
	// ORDER track is at its "Ordered" sentinel.
	OrderSecondary []string `yaml:"order_secondary"`

	// PickupSecondary lists the pickup sub-status labels permitted when the
	// PICKUP track is at its "Picked up" sentinel.
	PickupSecondary []string `yaml:"pickup_secondary"`

	// CheckOptions lists the exactly-three completion options for CHECK.
	CheckOptions []string `yaml:"check_options"`
}

// DefaultVocabulary returns the vocabulary shipped with the application.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		OrderSecondary: []string{
			"Processing",
			"Waiting for pick",
			"Ready for shipment",
		},
		PickupSecondary: []string{
			"Picked (B.T.W)",
			"Picked (D.T.S)",
		},
		CheckOptions: []string{
			"Check and sign(C.B/PM)",
			"(C.B)",
			"WH)",
		},
	}
}

// LoadVocabulary reads a vocabulary override file. Fields left empty in the
// file keep their defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var overrides Vocabulary
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	v := DefaultVocabulary()
	if len(overrides.OrderSecondary) > 0 {
		v.OrderSecondary = overrides.OrderSecondary
	}
	if len(overrides.PickupSecondary) > 0 {
		v.PickupSecondary = overrides.PickupSecondary
	}
	if len(overrides.CheckOptions) > 0 {
		v.CheckOptions = overrides.CheckOptions
	}

	if len(v.CheckOptions) != 3 {
		return nil, fmt.Errorf("check_options must contain exactly 3 entries, got %d", len(v.CheckOptions))
	}

	return v, nil
}

// secondaryFor returns the secondary vocabulary and sentinel for a two-level track.
func (v *Vocabulary) secondaryFor(track Track) (sentinel string, secondary []string) {
	switch track {
	case TrackOrder:
		return OrderSentinel, v.OrderSecondary
	case TrackPickup:
		return PickupSentinel, v.PickupSecondary
	default:
		panic(fmt.Sprintf("track %s has no secondary vocabulary", track))
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
