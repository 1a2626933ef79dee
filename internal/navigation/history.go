package navigation

import (
	"fmt"
	"strings"
)

// HistoryMode selects how route paths map to external locations.
type HistoryMode string

const (
	// WebHistory uses plain URL paths under a base, like the HTML5 history API.
	WebHistory HistoryMode = "web"
	// MemoryHistory keeps locations equal to route paths and never touches a URL.
	MemoryHistory HistoryMode = "memory"
)

// ParseHistoryMode maps a config value to a HistoryMode. Empty means web.
func ParseHistoryMode(s string) (HistoryMode, error) {
	switch HistoryMode(strings.ToLower(strings.TrimSpace(s))) {
	case WebHistory, "":
		return WebHistory, nil
	case MemoryHistory:
		return MemoryHistory, nil
	default:
		return "", fmt.Errorf("unknown history mode %q", s)
	}
}

// History converts between route paths and the locations a client sees.
type History interface {
	Mode() HistoryMode
	// Href returns the location of a route path.
	Href(path string) string
	// RoutePath returns the route path of a location, or false when the
	// location is outside this history.
	RoutePath(location string) (string, bool)
}

// NewHistory builds the History for mode. base only applies to WebHistory.
func NewHistory(mode HistoryMode, base string) (History, error) {
	switch mode {
	case WebHistory:
		return newWebHistory(base), nil
	case MemoryHistory:
		return memoryHistory{}, nil
	default:
		return nil, fmt.Errorf("unknown history mode %q", mode)
	}
}

type webHistory struct {
	base string // "" for root, otherwise "/prefix" without trailing slash
}

func newWebHistory(base string) webHistory {
	base = strings.TrimSpace(base)
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return webHistory{base: strings.TrimRight(base, "/")}
}

func (h webHistory) Mode() HistoryMode { return WebHistory }

func (h webHistory) Href(path string) string {
	if h.base == "" {
		return path
	}
	if path == "/" {
		return h.base + "/"
	}
	return h.base + path
}

func (h webHistory) RoutePath(location string) (string, bool) {
	location = stripQuery(location)
	if h.base == "" {
		return location, strings.HasPrefix(location, "/")
	}
	if location == h.base {
		return "/", true
	}
	rest, ok := strings.CutPrefix(location, h.base+"/")
	if !ok {
		return "", false
	}
	return "/" + rest, true
}

type memoryHistory struct{}

func (memoryHistory) Mode() HistoryMode { return MemoryHistory }

func (memoryHistory) Href(path string) string { return path }

func (memoryHistory) RoutePath(location string) (string, bool) {
	location = stripQuery(location)
	return location, strings.HasPrefix(location, "/")
}

func stripQuery(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}
