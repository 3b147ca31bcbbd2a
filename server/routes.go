package server

import (
	"context"
	"sort"
	"strings"

	"github.com/kbukum/fluxkit/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Server)(nil)
	_ component.Describable   = (*Server)(nil)
	_ component.RouteProvider = (*Server)(nil)
)

// systemPaths are the built-in routes, listed after the stream routes.
var systemPaths = map[string]bool{
	"/health":  true,
	"/info":    true,
	"/streams": true,
}

// Name implements component.Component.
func (s *Server) Name() string { return componentName }

// Health is healthy while the listener is bound.
func (s *Server) Health(context.Context) component.Health {
	if s.running() {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
}

// Describe implements component.Describable.
func (s *Server) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: s.Addr(),
		Port:    s.config.Port,
	}
}

// Routes lists the engine routes plus one entry per registered stream.
func (s *Server) Routes() []component.Route {
	var routes []component.Route
	for _, r := range s.engine.Routes() {
		if r.Path == "/streams/:name" {
			continue
		}
		handler := formatHandlerName(r.Handler)
		if systemPaths[r.Path] {
			handler += " (system)"
		}
		routes = append(routes, component.Route{Method: r.Method, Path: r.Path, Handler: handler})
	}
	for _, st := range s.Streams() {
		routes = append(routes, component.Route{Method: "GET", Path: st.Path, Handler: "sse " + st.Name})
	}

	sort.SliceStable(routes, func(i, j int) bool {
		iSys, jSys := systemPaths[routes[i].Path], systemPaths[routes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return methodOrder(routes[i].Method) < methodOrder(routes[j].Method)
	})
	return routes
}

// formatHandlerName shortens Gin's handler names, e.g.
// "github.com/kbukum/fluxkit/server.(*Server).listStreams-fm" to
// "Server.listStreams" and "...endpoint.Health.func1" to "health".
func formatHandlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if strings.Contains(name, ".func") {
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}
	if len(parts) > 1 && strings.ToLower(parts[0]) == parts[0] {
		return strings.Join(parts[1:], ".")
	}
	return name
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
