// Package views renders the two camp pages and the not-found fallback.
//
// Views are plain http.Handlers so they can be bound as route components.
// Links between pages come from the navigation dispatcher serving the
// request (navigation.FromContext), never from hard-coded paths.
package views

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/camp-control/internal/navigation"
	"github.com/aanand-mishra/camp-control/internal/storage"
	"github.com/aanand-mishra/camp-control/internal/types"
)

// Route names, used for programmatic navigation.
const (
	CampControlName = "CampControl"
	HealthFormName  = "HealthForm"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"deref": types.Deref,
}

var (
	campControlTmpl = mustParse("camp_control.html")
	healthFormTmpl  = mustParse("health_form.html")
	notFoundTmpl    = mustParse("not_found.html")
)

func mustParse(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// Page holds what the shared layout needs.
type Page struct {
	Title string
	Home  string
}

// CampControl handles GET of the roster page.
func CampControl(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		students, err := store.GetStudents(r.Context())
		if err != nil {
			slog.Error("error listing students", slog.String("error", err.Error()))
			http.Error(w, "could not load students", http.StatusInternalServerError)
			return
		}

		render(w, http.StatusOK, campControlTmpl, struct {
			Page
			Students   []types.Student
			HealthForm string
		}{
			Page:       layoutFor(r, "Control del campamento"),
			Students:   students,
			HealthForm: href(r, HealthFormName),
		})
	}
}

// healthFields maps form input names to the optional field they fill.
var healthFields = []struct {
	name string
	set  func(h *types.HealthSheet, v *string)
}{
	{"medication", func(h *types.HealthSheet, v *string) { h.Medication = v }},
	{"specialCare", func(h *types.HealthSheet, v *string) { h.SpecialCare = v }},
	{"headacheMedication", func(h *types.HealthSheet, v *string) { h.HeadacheMedication = v }},
	{"feverMedication", func(h *types.HealthSheet, v *string) { h.FeverMedication = v }},
	{"emergencyContact", func(h *types.HealthSheet, v *string) { h.EmergencyContact = v }},
}

// HealthForm handles the medical sheet of one student.
//
//	GET  ?id=...  renders the sheet
//	POST          saves it and redirects to the roster
//
// A field submitted empty is stored as "", a field not submitted keeps its
// stored value.
func HealthForm(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			showHealthForm(store, w, r)
		case http.MethodPost:
			saveHealthForm(store, w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func showHealthForm(store storage.Storage, w http.ResponseWriter, r *http.Request) {
	student, ok := loadStudent(store, w, r, r.URL.Query().Get("id"))
	if !ok {
		return
	}

	render(w, http.StatusOK, healthFormTmpl, struct {
		Page
		Student types.Student
		Action  string
	}{
		Page:    layoutFor(r, "Ficha médica"),
		Student: student,
		Action:  href(r, HealthFormName),
	})
}

func saveHealthForm(store storage.Storage, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := r.PostForm.Get("id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	student, ok := loadStudent(store, w, r, id)
	if !ok {
		return
	}

	sheet := student.Health()
	sheet.Authorization = r.PostForm.Get("authorization") != ""
	for _, f := range healthFields {
		if _, submitted := r.PostForm[f.name]; submitted {
			f.set(&sheet, types.StringPtr(strings.TrimSpace(r.PostForm.Get(f.name))))
		}
	}

	if _, err := store.UpdateStudentByID(r.Context(), student.ID, student.WithHealth(sheet)); err != nil {
		slog.Error("error saving health form",
			slog.String("id", student.ID),
			slog.String("error", err.Error()))
		http.Error(w, "could not save the form", http.StatusInternalServerError)
		return
	}

	slog.Info("health form saved", slog.String("id", student.ID))
	http.Redirect(w, r, href(r, CampControlName), http.StatusSeeOther)
}

func loadStudent(store storage.Storage, w http.ResponseWriter, r *http.Request, id string) (types.Student, bool) {
	if id == "" {
		http.Error(w, "missing student id", http.StatusBadRequest)
		return types.Student{}, false
	}

	student, err := store.GetStudentByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		NotFound().ServeHTTP(w, r)
		return types.Student{}, false
	}
	if err != nil {
		slog.Error("error getting student", slog.String("id", id), slog.String("error", err.Error()))
		http.Error(w, "could not load student", http.StatusInternalServerError)
		return types.Student{}, false
	}
	return student, true
}

// NotFound renders the fallback page with status 404.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusNotFound, notFoundTmpl, struct {
			Page
			Path string
		}{
			Page: layoutFor(r, "Página no encontrada"),
			Path: r.URL.Path,
		})
	}
}

func layoutFor(r *http.Request, title string) Page {
	return Page{Title: title, Home: href(r, CampControlName)}
}

// href resolves a route name through the dispatcher serving r. Outside a
// dispatcher it falls back to the site root.
func href(r *http.Request, name string) string {
	d, ok := navigation.FromContext(r.Context())
	if !ok {
		return "/"
	}
	h, err := d.Href(name)
	if err != nil {
		slog.Warn("unresolved link", slog.String("route", name), slog.String("error", err.Error()))
		return "/"
	}
	return h
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind a 200 status.
func render(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("error rendering page", slog.String("template", t.Name()), slog.String("error", err.Error()))
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
