package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kbukum/fluxkit/component"
)

// Summary prints what an App started: components, routes and health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary writing to out, or stdout when out is nil.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	if out == nil {
		out = os.Stdout
	}
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display writes the summary for the components in registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	w := s.out
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, version, s.startupDuration.Seconds())
	if registry == nil {
		fmt.Fprintln(w)
		return
	}

	components := registry.All()
	if len(components) == 0 {
		fmt.Fprintf(w, "   %s no components registered\n\n", treePrefix(0, 1))
		return
	}

	fmt.Fprintln(w, "\nComponents")
	var routes []component.Route
	for i, c := range components {
		d := component.Description{Name: c.Name()}
		if desc, ok := c.(component.Describable); ok {
			d = desc.Describe()
			if d.Name == "" {
				d.Name = c.Name()
			}
		}
		line := d.Name
		if d.Type != "" {
			line += " [" + d.Type + "]"
		}
		if d.Details != "" {
			line += " " + d.Details
		}
		if d.Port > 0 {
			line += fmt.Sprintf(" (:%d)", d.Port)
		}
		fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(components)), line)

		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := registry.HealthAll(ctx)
	fmt.Fprintln(w, "\nHealth")
	healthy := 0
	for i, h := range health {
		msg := ""
		if h.Message != "" {
			msg = ": " + h.Message
		}
		fmt.Fprintf(w, "   %s %s %s%s\n", treePrefix(i, len(health)), h.Name, h.Status, msg)
		if h.Status == component.StatusHealthy {
			healthy++
		}
	}
	fmt.Fprintf(w, "\n%d/%d components healthy\n\n", healthy, len(health))
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
