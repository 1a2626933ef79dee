// Package app assembles the camp server: the page route table, the JSON
// API and the middleware around both.
package app

import (
	"fmt"

	"github.com/aanand-mishra/camp-control/internal/navigation"
	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/views"
)

// Routes returns the page route table in declaration order.
func Routes(store storage.Storage) []navigation.Route {
	return []navigation.Route{
		{Path: "/", Name: views.CampControlName, Component: views.CampControl(store)},
		{Path: "/ficha-medica", Name: views.HealthFormName, Component: views.HealthForm(store)},
	}
}

// NewDispatcher builds the page dispatcher for the configured history
// mode and base.
func NewDispatcher(store storage.Storage, mode, base string) (*navigation.Dispatcher, error) {
	m, err := navigation.ParseHistoryMode(mode)
	if err != nil {
		return nil, fmt.Errorf("app.NewDispatcher: %w", err)
	}

	h, err := navigation.NewHistory(m, base)
	if err != nil {
		return nil, fmt.Errorf("app.NewDispatcher: %w", err)
	}

	d, err := navigation.New(Routes(store), h, navigation.WithNotFound(views.NotFound()))
	if err != nil {
		return nil, fmt.Errorf("app.NewDispatcher: %w", err)
	}
	return d, nil
}
