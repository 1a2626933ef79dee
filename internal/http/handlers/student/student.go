// Package student contains the JSON API handlers for student records.
//
// Each exported function is a factory: it receives its dependencies once
// at startup and returns the http.HandlerFunc the router calls on every
// request.
//
//	router.HandleFunc("POST /api/students", student.New(storage))
package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/camp-control/internal/roster"
	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/types"
	"github.com/aanand-mishra/camp-control/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxImportSize bounds the multipart body of an import.
const maxImportSize = 10 << 20

var validate = response.NewValidator()

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body (JSON):
//
//	{ "name": "Lucía", "dni": "40111222", "paid": true, "amount": 1500 }
//
// The id is generated when omitted.
//
// Responses: 201 { "id": "..." }, 400 bad body or validation,
// 409 duplicate id, 500 storage error.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}
		if strings.TrimSpace(student.ID) == "" {
			student.ID = uuid.NewString()
		}
		if !validStudent(w, student) {
			return
		}

		id, err := store.CreateStudent(r.Context(), student)
		if err != nil {
			writeStorageError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", id))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Responses: 200 the student, 404 unknown id, 500 storage error.
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
// Returns [] (not null) when there are no students.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces every field of an existing student. The path id wins over any
// id in the body.
//
// Responses: 200 the stored student, 400 bad body or validation,
// 404 unknown id, 500 storage error.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}
		student.ID = id
		if !validStudent(w, student) {
			return
		}

		updated, err := store.UpdateStudentByID(r.Context(), id, student)
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
//
// Responses: 200 { "status": "deleted" }, 404 unknown id, 500 storage error.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := store.DeleteStudentByID(r.Context(), id); err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Export handles GET /api/students/export
// Streams the roster as an .xlsx workbook.
// ─────────────────────────────────────────────────────────────────────────────
func Export(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("exporting roster")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="alumnos.xlsx"`)
		if err := roster.Export(w, students); err != nil {
			// The status line is already written.
			slog.Error("error exporting roster", slog.String("error", err.Error()))
		}
	}
}

// ImportResult is the body returned by Import.
type ImportResult struct {
	Imported int   `json:"imported"`
	Rejected int   `json:"rejected"`
	Skipped  []int `json:"skipped"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Import handles POST /api/students/import
// Multipart form with the workbook in "file". Rows that cannot be read
// are reported by spreadsheet row number; records that fail validation or
// collide with an existing id are counted as rejected.
//
// Responses: 200 { "imported": n, "rejected": n, "skipped": [rows] },
// 400 bad upload.
// ─────────────────────────────────────────────────────────────────────────────
func Import(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(fmt.Errorf("missing upload field file: %w", err)))
			return
		}
		defer file.Close()

		slog.Info("importing roster", slog.String("filename", header.Filename))

		parsed, err := roster.Import(file)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		res := ImportResult{Skipped: parsed.Skipped}
		if res.Skipped == nil {
			res.Skipped = []int{}
		}
		for _, s := range parsed.Students {
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			if err := validate.Struct(s); err != nil {
				slog.Warn("rejecting imported student", slog.String("id", s.ID), slog.String("error", err.Error()))
				res.Rejected++
				continue
			}
			if _, err := store.CreateStudent(r.Context(), s); err != nil {
				slog.Warn("rejecting imported student", slog.String("id", s.ID), slog.String("error", err.Error()))
				res.Rejected++
				continue
			}
			res.Imported++
		}

		slog.Info("roster imported", slog.Int("imported", res.Imported), slog.Int("rejected", res.Rejected),
			slog.Int("skipped", len(res.Skipped)))
		response.WriteJSON(w, http.StatusOK, res)
	}
}

func decodeStudent(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	err := json.NewDecoder(r.Body).Decode(&student)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	return student, true
}

func validStudent(w http.ResponseWriter, s types.Student) bool {
	err := validate.Struct(s)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
		return false
	}
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	return false
}

func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
	case errors.Is(err, storage.ErrAlreadyExists):
		response.WriteJSON(w, http.StatusConflict, response.GeneralError(err))
	default:
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}
