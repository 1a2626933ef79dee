package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// ErrNoMatch is matched by every *NavigationError.
var ErrNoMatch = errors.New("no matching route")

// NavigationError reports a target that no route matches.
type NavigationError struct {
	Target string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation: no route matches %q", e.Target)
}

func (e *NavigationError) Is(target error) bool {
	return target == ErrNoMatch
}

// Dispatcher resolves targets against a route table and keeps a
// back/forward stack of visited routes.
//
// Resolve and ServeHTTP are read-only and safe for concurrent requests.
// Navigate, Back and Forward mutate the stack under a mutex.
type Dispatcher struct {
	table    *Table
	history  History
	notFound http.Handler

	mu      sync.Mutex
	entries []Route
	pos     int // index of the current entry, -1 before the first navigation
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotFound sets the view rendered for unmatched requests.
// The view is expected to answer with status 404.
func WithNotFound(h http.Handler) Option {
	return func(d *Dispatcher) { d.notFound = h }
}

// New builds the route table and returns a dispatcher over it.
func New(routes []Route, history History, opts ...Option) (*Dispatcher, error) {
	if history == nil {
		return nil, errors.New("navigation: nil history")
	}

	table, err := NewTable(routes)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		table:    table,
		history:  history,
		notFound: http.NotFoundHandler(),
		pos:      -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Routes returns the route table in declaration order.
func (d *Dispatcher) Routes() []Route {
	return d.table.Routes()
}

// History returns the history the dispatcher was built with.
func (d *Dispatcher) History() History {
	return d.history
}

// Resolve matches target without changing the history. A target starting
// with "/" is a location; anything else is a route name.
func (d *Dispatcher) Resolve(target string) (Route, error) {
	if strings.HasPrefix(target, "/") {
		if path, ok := d.history.RoutePath(target); ok {
			if r, ok := d.table.ByPath(path); ok {
				return r, nil
			}
		}
		return Route{}, &NavigationError{Target: target}
	}

	if r, ok := d.table.ByName(target); ok {
		return r, nil
	}
	return Route{}, &NavigationError{Target: target}
}

// Href returns the location of the route called name.
func (d *Dispatcher) Href(name string) (string, error) {
	r, ok := d.table.ByName(name)
	if !ok {
		return "", &NavigationError{Target: name}
	}
	return d.history.Href(r.Path), nil
}

// Navigate makes target the current route. Forward entries are dropped.
// Navigating to the current route leaves the history as it is.
// On failure the history is unchanged.
func (d *Dispatcher) Navigate(target string) (Route, error) {
	r, err := d.Resolve(target)
	if err != nil {
		return Route{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pos >= 0 && d.entries[d.pos].Name == r.Name {
		return r, nil
	}

	d.entries = append(d.entries[:d.pos+1], r)
	d.pos = len(d.entries) - 1
	return r, nil
}

// Current returns the current route, or false before the first navigation.
func (d *Dispatcher) Current() (Route, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pos < 0 {
		return Route{}, false
	}
	return d.entries[d.pos], true
}

// Back moves one entry back. It reports false when already at the oldest.
func (d *Dispatcher) Back() (Route, bool) {
	return d.step(-1)
}

// Forward moves one entry forward. It reports false when already at the newest.
func (d *Dispatcher) Forward() (Route, bool) {
	return d.step(1)
}

func (d *Dispatcher) step(delta int) (Route, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.pos + delta
	if d.pos < 0 || next < 0 || next >= len(d.entries) {
		return Route{}, false
	}
	d.pos = next
	return d.entries[d.pos], true
}

// ServeHTTP renders the view matching the request path. Unmatched paths
// get the not-found view with status 404. The dispatcher is reachable from
// the view through FromContext.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(NewContext(r.Context(), d))

	route, err := d.Resolve(r.URL.Path)
	if err != nil {
		slog.Debug("no page for request", slog.String("path", r.URL.Path))
		d.notFound.ServeHTTP(w, r)
		return
	}

	route.Component.ServeHTTP(w, r)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying d.
func NewContext(ctx context.Context, d *Dispatcher) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext returns the dispatcher serving the current request.
func FromContext(ctx context.Context) (*Dispatcher, bool) {
	d, ok := ctx.Value(ctxKey{}).(*Dispatcher)
	return d, ok
}
