package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/httpconnector/component"
)

// Summary renders the startup report: one line per component with its
// description and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a summary for a service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Write prints the summary for the components of registry.
func (s *Summary) Write(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	components := registry.All()
	if len(components) == 0 {
		fmt.Fprintf(w, "   └── no components registered\n\n")
		return
	}

	healthy := 0
	for i, c := range components {
		prefix := "├──"
		if i == len(components)-1 {
			prefix = "└──"
		}
		h := c.Health(context.Background())
		if h.Status == component.StatusHealthy {
			healthy++
		}
		line := c.Name()
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			line = fmt.Sprintf("[%s] %s: %s", desc.Type, c.Name(), desc.Details)
		}
		msg := ""
		if h.Message != "" {
			msg = " (" + h.Message + ")"
		}
		fmt.Fprintf(w, "   %s %s %s%s\n", prefix, statusIcon(h.Status), line, msg)
	}

	if healthy == len(components) {
		fmt.Fprintf(w, "all components healthy (%d/%d)\n\n", healthy, len(components))
	} else {
		fmt.Fprintf(w, "some components have issues (%d/%d healthy)\n\n", healthy, len(components))
	}
}

func statusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
