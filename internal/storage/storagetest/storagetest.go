// Package storagetest holds the behaviour every storage.Storage backend
// must share. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/types"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Helper()

	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("OptionalFieldsRoundTrip", func(t *testing.T) { testOptionalFields(t, newStore(t)) })
	t.Run("DuplicateID", func(t *testing.T) { testDuplicate(t, newStore(t)) })
	t.Run("ConcurrentDuplicateID", func(t *testing.T) { testConcurrentDuplicate(t, newStore(t)) })
	t.Run("ListOrdered", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
}

func sample(id, name string) types.Student {
	return types.Student{
		ID:            id,
		Name:          name,
		DNI:           "DNI-" + id,
		Paid:          true,
		Amount:        2500.75,
		CannotPay:     false,
		Authorization: true,
	}
}

func testCreateAndGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	in := sample("s-1", "Lucía")

	id, err := s.CreateStudent(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "s-1" {
		t.Fatalf("expected id s-1, got %q", id)
	}

	got, err := s.GetStudentByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v, want %+v", got, in)
	}

	if _, err := s.GetStudentByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testOptionalFields(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	in := sample("s-1", "Lucía")
	in.Medication = types.StringPtr("ibuprofeno 400mg")
	in.SpecialCare = types.StringPtr("")
	in.EmergencyContact = types.StringPtr("Marta 555-0101")

	if _, err := s.CreateStudent(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetStudentByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HeadacheMedication != nil || got.FeverMedication != nil {
		t.Fatalf("absent fields must stay nil, got %+v", got)
	}
	if got.SpecialCare == nil || *got.SpecialCare != "" {
		t.Fatalf("empty field must stay empty, got %v", got.SpecialCare)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func testDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	if _, err := s.CreateStudent(ctx, sample("s-1", "A")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateStudent(ctx, sample("s-1", "B")); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func testConcurrentDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	const writers = 8

	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateStudent(ctx, sample("s-1", "A"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, storage.ErrAlreadyExists):
		default:
			t.Fatalf("duplicate create must fail with ErrAlreadyExists, got %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one create to win, got %d", created)
	}
}

func testList(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	empty, err := s.GetStudents(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}

	for _, st := range []types.Student{sample("3", "Bruno"), sample("2", "Ana"), sample("1", "Bruno")} {
		if _, err := s.CreateStudent(ctx, st); err != nil {
			t.Fatalf("create %s: %v", st.ID, err)
		}
	}

	list, err := s.GetStudents(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, st := range list {
		ids = append(ids, st.ID)
	}
	if want := []string{"2", "1", "3"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func testUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	if _, err := s.CreateStudent(ctx, sample("s-1", "Lucía")); err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := sample("ignored", "Lucía Pérez")
	upd.Paid = false
	upd.CannotPay = true
	upd.FeverMedication = types.StringPtr("paracetamol")

	got, err := s.UpdateStudentByID(ctx, "s-1", upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != "s-1" || got.Name != "Lucía Pérez" || got.Paid || !got.CannotPay {
		t.Fatalf("unexpected updated record %+v", got)
	}
	if types.Deref(got.FeverMedication) != "paracetamol" {
		t.Fatalf("fever medication not stored: %+v", got)
	}

	if _, err := s.UpdateStudentByID(ctx, "missing", upd); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDelete(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	if _, err := s.CreateStudent(ctx, sample("s-1", "Lucía")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteStudentByID(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetStudentByID(ctx, "s-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteStudentByID(ctx, "s-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
