package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kbukum/ranchkit/component"
)

// RouteInfo represents a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	routes          []RouteInfo
	out             io.Writer
}

// NewSummary creates a new bootstrap summary tracker writing to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// Routes returns the tracked routes.
func (s *Summary) Routes() []RouteInfo {
	return append([]RouteInfo(nil), s.routes...)
}

// Display prints the summary: the component descriptions, tracked routes
// and live health from the registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	w := s.out
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s v%s started in %.2fs\n\n",
		color.New(color.Bold).Sprint(s.serviceName), version, s.startupDuration.Seconds())

	if registry == nil {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	descs := registry.Descriptions()
	if len(descs) > 0 {
		fmt.Fprintf(w, "Components\n")
		for i, d := range descs {
			line := fmt.Sprintf("%s [%s]", d.Name, d.Type)
			if d.Details != "" {
				line += ": " + d.Details
			}
			fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(descs)), line)
		}
		fmt.Fprintf(w, "\n")
	}

	results := registry.HealthAll(ctx)
	if len(results) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n")
	} else {
		fmt.Fprintf(w, "Health Check\n")
		healthy := 0
		for i, h := range results {
			if h.Status == component.StatusHealthy {
				healthy++
			}
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s %s %s%s\n", treePrefix(i, len(results)), healthStatusIcon(h.Status), h.Name, msg)
		}
		fmt.Fprintf(w, "\n")
		if healthy == len(results) {
			fmt.Fprintf(w, "%s (%d/%d)\n", color.GreenString("All components healthy"), healthy, len(results))
		} else {
			fmt.Fprintf(w, "%s (%d/%d healthy)\n", color.YellowString("Some components have issues"), healthy, len(results))
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %s %s -> %s\n", treePrefix(i, len(s.routes)), methodColor(r.Method), r.Path, r.Handler)
		}
	}
	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return color.GreenString("ok")
	case component.StatusDegraded:
		return color.YellowString("degraded")
	case component.StatusUnhealthy:
		return color.RedString("down")
	default:
		return "?"
	}
}

func methodColor(method string) string {
	padded := fmt.Sprintf("%-7s", strings.ToUpper(method))
	switch strings.ToUpper(method) {
	case "GET":
		return color.BlueString(padded)
	case "POST":
		return color.GreenString(padded)
	case "PUT", "PATCH":
		return color.YellowString(padded)
	case "DELETE":
		return color.RedString(padded)
	default:
		return padded
	}
}
