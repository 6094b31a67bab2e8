// Package models contains the data models for the Depotrack API.
package models

import (
	"time"

	"github.com/depotrack/depotrack/internal/status"
)

// Project represents a customer order/project that owns the four status tracks
type Project struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Reference  string     `db:"reference" json:"reference"` // customer order reference
	Address    string     `db:"address" json:"address"`
	CreatedBy  int64      `db:"created_by" json:"created_by"`
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`

	// Complete is derived from the CHECK track; never persisted directly
	Complete bool `db:"-" json:"complete"`
}

// Material represents one line of ordered material belonging to a project
type Material struct {
	ID        int64     `db:"id" json:"id"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	Name      string    `db:"name" json:"name"`
	SKU       string    `db:"sku" json:"sku"`
	Unit      string    `db:"unit" json:"unit"` // pcs, m, kg, ...
	Quantity  float64   `db:"quantity" json:"quantity"`
	Supplier  string    `db:"supplier" json:"supplier"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TrackStatus is the current value of one (project, track) pair.
// Version is the optimistic-concurrency token used by the record store.
type TrackStatus struct {
	ProjectID      int64                   `db:"project_id" json:"project_id"`
	Track          status.Track            `db:"track" json:"track"`
	Value          string                  `db:"value" json:"currentValue"`
	SecondaryValue string                  `db:"secondary_value" json:"secondaryValue,omitempty"`
	Auxiliary      *status.DeliveryDetails `db:"-" json:"auxiliary,omitempty"`
	Version        int64                   `db:"version" json:"-"`
	UpdatedAt      time.Time               `db:"updated_at" json:"updatedAt"`
}

// Actor identifies who performed a status transition.
type Actor struct {
	UserID int64  `db:"actor_user_id" json:"userId"`
	Role   string `db:"actor_role" json:"role"`
}

// StatusHistoryEntry is an immutable record of one committed transition.
// Entries are created exactly once and never mutated or deleted.
type StatusHistoryEntry struct {
	ID           string                  `db:"id" json:"id"`
	ProjectID    int64                   `db:"project_id" json:"projectId"`
	Track        status.Track            `db:"track" json:"track"`
	OldValue     string                  `db:"old_value" json:"oldValue"`
	NewValue     string                  `db:"new_value" json:"newValue"`
	NewSecondary string                  `db:"new_secondary" json:"newSecondary,omitempty"`
	Auxiliary    *status.DeliveryDetails `db:"-" json:"auxiliaryPayload,omitempty"`
	Actor        Actor                   `db:"-" json:"actor"`
	Timestamp    time.Time               `db:"created_at" json:"timestamp"`
}

// User represents a system user for authentication and access control
type User struct {
	ID                int64      `db:"id" json:"id"`
	Username          string     `db:"username" json:"username"`
	FullName          string     `db:"full_name" json:"full_name"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	Email             *string    `db:"email" json:"email"`
	Role              string     `db:"role" json:"role"` // admin, manager, logistics, viewer
	SuspendedAt       *time.Time `db:"suspended_at" json:"suspended_at,omitempty"`
	LastLoginAt       *time.Time `db:"last_login_at" json:"last_login_at"`
	LoginCount        int        `db:"login_count" json:"login_count"`
	PasswordChangedAt time.Time  `db:"password_changed_at" json:"password_changed_at"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Role constants define the access levels within the system.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleLogistics = "logistics"
	RoleViewer    = "viewer"
)

// ValidRole checks if the role is one of the defined access levels.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleLogistics, RoleViewer:
		return true
	}
	return false
}
