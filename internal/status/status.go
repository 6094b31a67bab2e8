// Package status defines the status workflow vocabulary and transition
// validation rules. It is the single source of truth for which values a
// project's logistics tracks may take and is free of side effects.
package status

import (
	"fmt"
	"time"
)

// Track identifies one of the four independent status dimensions of a project.
type Track string

const (
	TrackOrder    Track = "ORDER"
	TrackPickup   Track = "PICKUP"
	TrackDelivery Track = "DELIVERY"
	TrackCheck    Track = "CHECK"
)

// Tracks lists all tracks in workflow order.
var Tracks = []Track{TrackOrder, TrackPickup, TrackDelivery, TrackCheck}

// IsValid checks if the track is a known value.
func (t Track) IsValid() bool {
	switch t {
	case TrackOrder, TrackPickup, TrackDelivery, TrackCheck:
		return true
	}
	return false
}

// String returns the string representation.
func (t Track) String() string {
	return string(t)
}

// Sentinel primary values. Selecting the sentinel unlocks the track's
// secondary vocabulary (ORDER, PICKUP) or auxiliary fields (DELIVERY).
const (
	Unset            = ""
	OrderSentinel    = "Ordered"
	PickupSentinel   = "Picked up"
	DeliverySentinel = "Delivered"
)

// DeliveryDetails carries the auxiliary payload for the DELIVERY track.
// All four fields are required together when the track value is "Delivered".
type DeliveryDetails struct {
	Time        string `json:"time" db:"delivery_time"`
	Address     string `json:"address" db:"delivery_address"`
	PO          string `json:"po" db:"delivery_po"`
	DeliveredBy string `json:"deliveredBy" db:"delivered_by"`
}

// DeliveryTimeLayouts are the accepted formats for DeliveryDetails.Time.
var DeliveryTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// ParseDeliveryTime parses the delivery timestamp against the accepted layouts.
func ParseDeliveryTime(value string) (time.Time, error) {
	for _, layout := range DeliveryTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable delivery time: %q", value)
}
