// Package storage defines the Storage interface, the contract any backend
// must satisfy to hold student records for this application.
//
// Handlers and views depend only on this interface. Backends live in
// sub-packages: memory (tests, throwaway runs), sqlite (default) and
// postgres, the last two sharing the sqlstore implementation.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/camp-control/internal/types"
)

var (
	// ErrNotFound is returned when no student has the requested id.
	ErrNotFound = errors.New("student not found")

	// ErrAlreadyExists is returned by CreateStudent on a duplicate id.
	ErrAlreadyExists = errors.New("student already exists")
)

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts s and returns its id.
	// s.ID must already be set by the caller.
	CreateStudent(ctx context.Context, s types.Student) (string, error)

	// GetStudentByID fetches a single student. Returns ErrNotFound if missing.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// GetStudents returns every student ordered by name, then id.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID replaces every field of an existing student except
	// the id and returns the stored record.
	UpdateStudentByID(ctx context.Context, id string, s types.Student) (types.Student, error)

	// DeleteStudentByID removes a student. Returns ErrNotFound if missing.
	DeleteStudentByID(ctx context.Context, id string) error
}
