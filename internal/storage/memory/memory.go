// Package memory is an in-process storage.Storage used by tests and by
// the "memory" storage driver.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/types"
)

var _ storage.Storage = (*Memory)(nil)

// Memory keeps students in a map guarded by a RWMutex. Stored records
// never share pointers with callers.
type Memory struct {
	mu   sync.RWMutex
	byID map[string]types.Student
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		byID: make(map[string]types.Student),
	}
}

// CreateStudent stores a copy of s. Returns storage.ErrAlreadyExists on a
// duplicate id.
func (m *Memory) CreateStudent(_ context.Context, s types.Student) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return "", errors.New("student id required")
	}
	if _, exists := m.byID[s.ID]; exists {
		return "", storage.ErrAlreadyExists
	}
	m.byID[s.ID] = clone(s)
	return s.ID, nil
}

// GetStudentByID returns a copy of the stored student or
// storage.ErrNotFound.
func (m *Memory) GetStudentByID(_ context.Context, id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return clone(s), nil
}

// GetStudents returns copies of every student ordered by name, then id.
func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Student, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, clone(s))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// UpdateStudentByID replaces the student with id, keeping the id.
func (m *Memory) UpdateStudentByID(_ context.Context, id string, s types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return types.Student{}, storage.ErrNotFound
	}
	s.ID = id
	m.byID[id] = clone(s)
	return clone(s), nil
}

// DeleteStudentByID removes the student with id or returns
// storage.ErrNotFound.
func (m *Memory) DeleteStudentByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// clone copies the optional fields so callers never share pointers with
// the stored record.
func clone(s types.Student) types.Student {
	s.Medication = copyPtr(s.Medication)
	s.SpecialCare = copyPtr(s.SpecialCare)
	s.HeadacheMedication = copyPtr(s.HeadacheMedication)
	s.FeverMedication = copyPtr(s.FeverMedication)
	s.EmergencyContact = copyPtr(s.EmergencyContact)
	return s
}

func copyPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
