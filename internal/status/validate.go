package status

import "fmt"

// Result is the outcome of validating a proposed transition. A nil or empty
// FieldErrors map means the transition is well-formed. Validation collects
// every field error instead of stopping at the first.
type Result struct {
	FieldErrors map[string]string
}

// Valid reports whether the proposed transition passed all rules.
func (r Result) Valid() bool {
	return len(r.FieldErrors) == 0
}

func (r *Result) addError(field, message string) {
	if r.FieldErrors == nil {
		r.FieldErrors = map[string]string{}
	}
	r.FieldErrors[field] = message
}

// Proposed is one candidate transition for a single track.
type Proposed struct {
	Primary   string
	Secondary string
	Auxiliary *DeliveryDetails
}

// ValidateTransition checks a proposed value against the track's rules.
// It is a total function: any in-domain input produces a Result, never an
// error. An unrecognized track is a programmer error and panics.
func (v *Vocabulary) ValidateTransition(track Track, p Proposed) Result {
	switch track {
	case TrackOrder, TrackPickup:
		return v.validateTwoLevel(track, p)
	case TrackDelivery:
		return v.validateDelivery(p)
	case TrackCheck:
		return v.validateCheck(p)
	default:
		panic(fmt.Sprintf("unknown status track: %q", track))
	}
}

// validateTwoLevel handles the ORDER and PICKUP tracks: primary is either
// unset or the sentinel, and the secondary label is required exactly when
// the sentinel is selected. Clearing the primary force-clears the secondary.
func (v *Vocabulary) validateTwoLevel(track Track, p Proposed) Result {
	var res Result
	sentinel, secondary := v.secondaryFor(track)

	if p.Auxiliary != nil {
		res.addError("auxiliary", fmt.Sprintf("%s track does not accept auxiliary fields", track))
	}

	switch p.Primary {
	case Unset:
		// Secondary is force-cleared on reset; a stale secondary is not an
		// error, Normalize discards it.
	case sentinel:
		if p.Secondary == "" {
			res.addError("secondaryValue", fmt.Sprintf("secondary status is required when %s is %q", track, sentinel))
		} else if !contains(secondary, p.Secondary) {
			res.addError("secondaryValue", fmt.Sprintf("%q is not a valid %s secondary status", p.Secondary, track))
		}
	default:
		res.addError("value", fmt.Sprintf("%s status must be empty or %q", track, sentinel))
	}

	return res
}

// validateDelivery requires all four auxiliary fields together when the
// value is "Delivered". Every missing field is reported separately.
func (v *Vocabulary) validateDelivery(p Proposed) Result {
	var res Result

	if p.Secondary != "" {
		res.addError("secondaryValue", "DELIVERY track has no secondary status")
	}

	switch p.Primary {
	case Unset:
		if p.Auxiliary != nil {
			res.addError("auxiliary", "auxiliary fields are only accepted when status is Delivered")
		}
	case DeliverySentinel:
		aux := p.Auxiliary
		if aux == nil {
			aux = &DeliveryDetails{}
		}
		if aux.Time == "" {
			res.addError("time", "time is required")
		} else if _, err := ParseDeliveryTime(aux.Time); err != nil {
			res.addError("time", "time must be a valid datetime")
		}
		if aux.Address == "" {
			res.addError("address", "address is required")
		}
		if aux.PO == "" {
			res.addError("po", "po is required")
		}
		if aux.DeliveredBy == "" {
			res.addError("deliveredBy", "deliveredBy is required")
		}
	default:
		res.addError("value", fmt.Sprintf("DELIVERY status must be empty or %q", DeliverySentinel))
	}

	return res
}

// validateCheck allows the empty value or one of the three completion options.
func (v *Vocabulary) validateCheck(p Proposed) Result {
	var res Result

	if p.Secondary != "" {
		res.addError("secondaryValue", "CHECK track has no secondary status")
	}
	if p.Auxiliary != nil {
		res.addError("auxiliary", "CHECK track does not accept auxiliary fields")
	}
	if p.Primary != Unset && !contains(v.CheckOptions, p.Primary) {
		res.addError("value", fmt.Sprintf("CHECK status must be empty or one of %v", v.CheckOptions))
	}

	return res
}

// Normalize returns the proposed transition with derived resets applied:
// clearing a primary clears its secondary, and auxiliary payloads are
// dropped unless the track's sentinel is selected. Callers must only
// normalize a transition that validated successfully.
func Normalize(track Track, p Proposed) Proposed {
	switch track {
	case TrackOrder, TrackPickup:
		if p.Primary == Unset {
			p.Secondary = ""
		}
		p.Auxiliary = nil
	case TrackDelivery:
		p.Secondary = ""
		if p.Primary == Unset {
			p.Auxiliary = nil
		}
	case TrackCheck:
		p.Secondary = ""
		p.Auxiliary = nil
	default:
		panic(fmt.Sprintf("unknown status track: %q", track))
	}
	return p
}
