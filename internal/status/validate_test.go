package status

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateTwoLevelTracks(t *testing.T) {
	vocab := DefaultVocabulary()

	tests := []struct {
		name       string
		track      Track
		proposed   Proposed
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "order unset",
			track:     TrackOrder,
			proposed:  Proposed{Primary: ""},
			wantValid: true,
		},
		{
			name:      "order sentinel with valid secondary",
			track:     TrackOrder,
			proposed:  Proposed{Primary: "Ordered", Secondary: "Processing"},
			wantValid: true,
		},
		{
			name:       "order sentinel without secondary",
			track:      TrackOrder,
			proposed:   Proposed{Primary: "Ordered"},
			wantFields: []string{"secondaryValue"},
		},
		{
			name:       "order sentinel with unknown secondary",
			track:      TrackOrder,
			proposed:   Proposed{Primary: "Ordered", Secondary: "Shipped"},
			wantFields: []string{"secondaryValue"},
		},
		{
			name:       "order unknown primary",
			track:      TrackOrder,
			proposed:   Proposed{Primary: "Done"},
			wantFields: []string{"value"},
		},
		{
			name:      "order reset with stale secondary is accepted",
			track:     TrackOrder,
			proposed:  Proposed{Primary: "", Secondary: "Processing"},
			wantValid: true,
		},
		{
			name:       "order rejects auxiliary payload",
			track:      TrackOrder,
			proposed:   Proposed{Primary: "Ordered", Secondary: "Processing", Auxiliary: &DeliveryDetails{}},
			wantFields: []string{"auxiliary"},
		},
		{
			name:      "pickup sentinel with valid secondary",
			track:     TrackPickup,
			proposed:  Proposed{Primary: "Picked up", Secondary: "Picked (B.T.W)"},
			wantValid: true,
		},
		{
			name:       "pickup rejects order secondary",
			track:      TrackPickup,
			proposed:   Proposed{Primary: "Picked up", Secondary: "Processing"},
			wantFields: []string{"secondaryValue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := vocab.ValidateTransition(tt.track, tt.proposed)
			if res.Valid() != tt.wantValid {
				t.Fatalf("Valid() = %v, want %v (errors: %v)", res.Valid(), tt.wantValid, res.FieldErrors)
			}
			for _, field := range tt.wantFields {
				if _, ok := res.FieldErrors[field]; !ok {
					t.Errorf("expected field error for %q, got %v", field, res.FieldErrors)
				}
			}
		})
	}
}

func TestValidateDeliveryRequiresAllFields(t *testing.T) {
	vocab := DefaultVocabulary()

	// Every missing auxiliary field is reported separately.
	res := vocab.ValidateTransition(TrackDelivery, Proposed{Primary: "Delivered"})
	if res.Valid() {
		t.Fatal("expected validation failure for missing auxiliary fields")
	}
	for _, field := range []string{"time", "address", "po", "deliveredBy"} {
		if _, ok := res.FieldErrors[field]; !ok {
			t.Errorf("expected field error for %q, got %v", field, res.FieldErrors)
		}
	}
	if len(res.FieldErrors) != 4 {
		t.Errorf("expected exactly 4 field errors, got %d: %v", len(res.FieldErrors), res.FieldErrors)
	}

	// Two missing fields produce exactly two errors.
	res = vocab.ValidateTransition(TrackDelivery, Proposed{
		Primary:   "Delivered",
		Auxiliary: &DeliveryDetails{Time: "2026-03-01T10:00:00Z", Address: "Dock 4"},
	})
	if len(res.FieldErrors) != 2 {
		t.Errorf("expected 2 field errors, got %v", res.FieldErrors)
	}

	// Complete payload is valid.
	res = vocab.ValidateTransition(TrackDelivery, Proposed{
		Primary: "Delivered",
		Auxiliary: &DeliveryDetails{
			Time:        "2026-03-01T10:00:00Z",
			Address:     "Dock 4",
			PO:          "PO-1881",
			DeliveredBy: "R. Vos",
		},
	})
	if !res.Valid() {
		t.Errorf("expected valid delivery, got %v", res.FieldErrors)
	}
}

func TestValidateDeliveryTimeFormats(t *testing.T) {
	vocab := DefaultVocabulary()

	aux := func(ts string) *DeliveryDetails {
		return &DeliveryDetails{Time: ts, Address: "Dock 4", PO: "PO-1881", DeliveredBy: "R. Vos"}
	}

	for _, ts := range []string{"2026-03-01T10:00:00Z", "2026-03-01T10:00", "2026-03-01 10:00:05", "2026-03-01 10:00"} {
		res := vocab.ValidateTransition(TrackDelivery, Proposed{Primary: "Delivered", Auxiliary: aux(ts)})
		if !res.Valid() {
			t.Errorf("time %q should be accepted, got %v", ts, res.FieldErrors)
		}
	}

	res := vocab.ValidateTransition(TrackDelivery, Proposed{Primary: "Delivered", Auxiliary: aux("yesterday")})
	if _, ok := res.FieldErrors["time"]; !ok {
		t.Errorf("expected time field error for unparseable time, got %v", res.FieldErrors)
	}
}

func TestValidateDeliveryReset(t *testing.T) {
	vocab := DefaultVocabulary()

	if res := vocab.ValidateTransition(TrackDelivery, Proposed{Primary: ""}); !res.Valid() {
		t.Errorf("reset should be valid, got %v", res.FieldErrors)
	}
	res := vocab.ValidateTransition(TrackDelivery, Proposed{Primary: "", Auxiliary: &DeliveryDetails{Time: "2026-03-01T10:00"}})
	if _, ok := res.FieldErrors["auxiliary"]; !ok {
		t.Errorf("auxiliary on reset should be rejected, got %v", res.FieldErrors)
	}
	res = vocab.ValidateTransition(TrackDelivery, Proposed{Primary: "On the way"})
	if _, ok := res.FieldErrors["value"]; !ok {
		t.Errorf("unknown delivery value should be rejected, got %v", res.FieldErrors)
	}
}

func TestValidateCheck(t *testing.T) {
	vocab := DefaultVocabulary()

	for _, option := range vocab.CheckOptions {
		if res := vocab.ValidateTransition(TrackCheck, Proposed{Primary: option}); !res.Valid() {
			t.Errorf("check option %q should be valid, got %v", option, res.FieldErrors)
		}
	}
	if res := vocab.ValidateTransition(TrackCheck, Proposed{Primary: ""}); !res.Valid() {
		t.Errorf("empty check should be valid, got %v", res.FieldErrors)
	}
	if res := vocab.ValidateTransition(TrackCheck, Proposed{Primary: "Looks good"}); res.Valid() {
		t.Error("unknown check option should be rejected")
	}
	if res := vocab.ValidateTransition(TrackCheck, Proposed{Primary: "(C.B)", Secondary: "extra"}); res.Valid() {
		t.Error("check with secondary should be rejected")
	}
}

func TestNormalize(t *testing.T) {
	// Clearing a two-level primary clears the secondary.
	p := Normalize(TrackOrder, Proposed{Primary: "", Secondary: "Processing"})
	if p.Secondary != "" {
		t.Errorf("expected secondary cleared on reset, got %q", p.Secondary)
	}

	// The sentinel keeps its secondary.
	p = Normalize(TrackPickup, Proposed{Primary: "Picked up", Secondary: "Picked (D.T.S)"})
	if p.Secondary != "Picked (D.T.S)" {
		t.Errorf("expected secondary kept, got %q", p.Secondary)
	}

	// Delivery reset drops the auxiliary payload.
	p = Normalize(TrackDelivery, Proposed{Primary: "", Auxiliary: &DeliveryDetails{Time: "2026-03-01T10:00"}})
	if p.Auxiliary != nil {
		t.Error("expected auxiliary dropped on delivery reset")
	}
}

func TestLoadVocabularyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := []byte("order_secondary:\n  - Queued\n  - Staged\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	vocab, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}

	if len(vocab.OrderSecondary) != 2 || vocab.OrderSecondary[0] != "Queued" {
		t.Errorf("expected overridden order secondary, got %v", vocab.OrderSecondary)
	}
	// Untouched sections keep their defaults.
	if len(vocab.PickupSecondary) != 2 {
		t.Errorf("expected default pickup secondary, got %v", vocab.PickupSecondary)
	}
	if len(vocab.CheckOptions) != 3 {
		t.Errorf("expected default check options, got %v", vocab.CheckOptions)
	}
}

func TestLoadVocabularyRejectsWrongCheckCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := []byte("check_options:\n  - One\n  - Two\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadVocabulary(path); err == nil {
		t.Fatal("expected error for two check options")
	}
}
