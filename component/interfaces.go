package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed unit of the connector.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a one-line self report logged at startup.
type Description struct {
	// Type categorizes the component: "requester", "listener", "telemetry".
	Type string
	// Details is e.g. "https://api.example.com:443 timeout=10s".
	Details string
}

// Describable is optionally implemented by components that want a startup
// summary line.
type Describable interface {
	Describe() Description
}
