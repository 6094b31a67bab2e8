package auth

import "github.com/depotrack/depotrack/internal/status"

// Resource represents a protected resource type
type Resource string

const (
	ResourceProjects  Resource = "projects"
	ResourceMaterials Resource = "materials"
	ResourceUsers     Resource = "users"
	ResourceEvents    Resource = "events"
	// ResourceStatusAll matches every status track via keyMatch
	ResourceStatusAll Resource = "status/*"
)

// Action represents an operation on a resource
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// StatusResource returns the per-track resource object, e.g. "status/DELIVERY".
// Write access is granted track by track so logistics staff can record pickups
// and deliveries without being able to touch ordering or the final check.
func StatusResource(track status.Track) Resource {
	return Resource("status/" + string(track))
}
