// Package sqlstore implements storage.Storage on top of database/sql.
//
// The SQL is the same for SQLite and PostgreSQL except for placeholders,
// so the driver packages only open the connection, create the schema and
// pick a Placeholder style.
//
// Optional text fields are written as NULL when absent and scanned back
// into *string, where NULL becomes nil. An absent value and an empty one
// therefore survive a round trip.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/types"
)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders "?" placeholders (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Store holds a *sql.DB, a connection pool that is safe for concurrent use.
type Store struct {
	DB *sql.DB
	ph Placeholder
}

var _ storage.Storage = (*Store)(nil)

// New wraps an open pool. ph must match the driver's bind syntax.
func New(db *sql.DB, ph Placeholder) *Store {
	return &Store{DB: db, ph: ph}
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

const columns = "id, name, dni, paid, amount, cannot_pay, authorized, " +
	"medication, special_care, headache_medication, fever_medication, emergency_contact"

// bind rewrites every "?" in query using the store's placeholder style.
func (s *Store) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.ph(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateStudent inserts st. A duplicate id is reported as
// storage.ErrAlreadyExists by the insert itself, so concurrent creates on
// a pooled connection cannot race past each other.
func (s *Store) CreateStudent(ctx context.Context, st types.Student) (string, error) {
	if strings.TrimSpace(st.ID) == "" {
		return "", errors.New("CreateStudent: student id required")
	}

	res, err := s.DB.ExecContext(ctx,
		s.bind("INSERT INTO students ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT (id) DO NOTHING"),
		st.ID, st.Name, st.DNI, st.Paid, st.Amount, st.CannotPay, st.Authorization,
		nullable(st.Medication), nullable(st.SpecialCare), nullable(st.HeadacheMedication),
		nullable(st.FeverMedication), nullable(st.EmergencyContact),
	)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: exec: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("CreateStudent: rows affected: %w", err)
	}
	if n == 0 {
		return "", storage.ErrAlreadyExists
	}

	return st.ID, nil
}

// GetStudentByID fetches a single student. Returns storage.ErrNotFound if
// no row has that id.
func (s *Store) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	row := s.DB.QueryRowContext(ctx,
		s.bind("SELECT "+columns+" FROM students WHERE id = ? LIMIT 1"), id)

	st, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return st, nil
}

// GetStudents returns every student ordered by name, then id.
func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+columns+" FROM students ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		st, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID replaces every column of the student with id and
// returns the stored row. The id itself never changes.
func (s *Store) UpdateStudentByID(ctx context.Context, id string, st types.Student) (types.Student, error) {
	res, err := s.DB.ExecContext(ctx,
		s.bind(`UPDATE students SET
			name = ?, dni = ?, paid = ?, amount = ?, cannot_pay = ?, authorized = ?,
			medication = ?, special_care = ?, headache_medication = ?, fever_medication = ?, emergency_contact = ?
			WHERE id = ?`),
		st.Name, st.DNI, st.Paid, st.Amount, st.CannotPay, st.Authorization,
		nullable(st.Medication), nullable(st.SpecialCare), nullable(st.HeadacheMedication),
		nullable(st.FeverMedication), nullable(st.EmergencyContact),
		id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	if err := requireRow(res); err != nil {
		return types.Student{}, err
	}

	return s.GetStudentByID(ctx, id)
}

// DeleteStudentByID removes the student with id. Returns
// storage.ErrNotFound if there was none.
func (s *Store) DeleteStudentByID(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, s.bind("DELETE FROM students WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (types.Student, error) {
	var st types.Student
	err := sc.Scan(
		&st.ID, &st.Name, &st.DNI, &st.Paid, &st.Amount, &st.CannotPay, &st.Authorization,
		&st.Medication, &st.SpecialCare, &st.HeadacheMedication, &st.FeverMedication, &st.EmergencyContact,
	)
	return st, err
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
