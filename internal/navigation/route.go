// Package navigation maps page paths to named views and dispatches
// requests and in-process navigation to them.
//
// A Table is built once at startup from an ordered list of Routes and is
// read-only afterwards. A Dispatcher wraps the table with a History mode
// and a back/forward stack, and serves the matched view over HTTP.
//
// The back/forward stack belongs to the dispatcher, not to an HTTP client:
// it serves in-process navigation (Navigate, Back, Forward), while requests
// go through Resolve and ServeHTTP and never touch it.
package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidRoute is wrapped by every route table validation failure.
var ErrInvalidRoute = errors.New("invalid route")

// Route binds a path and a unique name to a view.
type Route struct {
	Path      string
	Name      string
	Component http.Handler
}

// Table is an immutable, ordered set of routes.
type Table struct {
	routes []Route
	byPath map[string]int
	byName map[string]int
}

// NewTable validates routes and builds a table from a copy of them.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byPath: make(map[string]int, len(routes)),
		byName: make(map[string]int, len(routes)),
	}

	for i, r := range routes {
		switch {
		case !strings.HasPrefix(r.Path, "/"):
			return nil, fmt.Errorf("route %d: path %q must start with /: %w", i, r.Path, ErrInvalidRoute)
		case strings.TrimSpace(r.Name) == "":
			return nil, fmt.Errorf("route %d (%s): empty name: %w", i, r.Path, ErrInvalidRoute)
		case r.Component == nil:
			return nil, fmt.Errorf("route %d (%s): nil component: %w", i, r.Name, ErrInvalidRoute)
		}

		p := cleanPath(r.Path)
		if j, dup := t.byPath[p]; dup {
			return nil, fmt.Errorf("route %d: path %q already bound to %s: %w", i, r.Path, t.routes[j].Name, ErrInvalidRoute)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("route %d: duplicate name %q: %w", i, r.Name, ErrInvalidRoute)
		}

		r.Path = p
		t.byPath[p] = len(t.routes)
		t.byName[r.Name] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	return t, nil
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// ByPath returns the route bound to path.
func (t *Table) ByPath(path string) (Route, bool) {
	i, ok := t.byPath[cleanPath(path)]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// ByName returns the route called name.
func (t *Table) ByName(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// cleanPath drops a trailing slash so "/ficha-medica/" and "/ficha-medica"
// are the same route. The root stays "/".
func cleanPath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}
