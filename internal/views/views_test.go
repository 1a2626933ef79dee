package views_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aanand-mishra/camp-control/internal/navigation"
	"github.com/aanand-mishra/camp-control/internal/storage/memory"
	"github.com/aanand-mishra/camp-control/internal/types"
	"github.com/aanand-mishra/camp-control/internal/views"
)

func setup(t *testing.T, base string) (*memory.Memory, *navigation.Dispatcher) {
	t.Helper()

	store := memory.New()
	h, err := navigation.NewHistory(navigation.WebHistory, base)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	d, err := navigation.New([]navigation.Route{
		{Path: "/", Name: views.CampControlName, Component: views.CampControl(store)},
		{Path: "/ficha-medica", Name: views.HealthFormName, Component: views.HealthForm(store)},
	}, h, navigation.WithNotFound(views.NotFound()))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return store, d
}

func seed(t *testing.T, store *memory.Memory, s types.Student) {
	t.Helper()
	if _, err := store.CreateStudent(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func serve(d http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	return rec
}

func TestCampControl_ListsStudents(t *testing.T) {
	store, d := setup(t, "/")
	seed(t, store, types.Student{ID: "s-1", Name: "Lucía", DNI: "40111222", Paid: true, Amount: 1500})

	rec := serve(d, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Lucía", "40111222", "1500.00", `href="/ficha-medica?id=s-1"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestCampControl_EmptyRoster(t *testing.T) {
	_, d := setup(t, "/")

	rec := serve(d, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No hay alumnos") {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCampControl_RejectsPost(t *testing.T) {
	_, d := setup(t, "/")

	rec := serve(d, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthForm_Show(t *testing.T) {
	store, d := setup(t, "/campamento")
	seed(t, store, types.Student{ID: "s-1", Name: "Lucía", DNI: "1", Medication: types.StringPtr("ibuprofeno")})

	rec := serve(d, httptest.NewRequest(http.MethodGet, "/campamento/ficha-medica?id=s-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`value="ibuprofeno"`, `action="/campamento/ficha-medica"`, `href="/campamento/"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestHealthForm_UnknownStudent(t *testing.T) {
	_, d := setup(t, "/")

	rec := serve(d, httptest.NewRequest(http.MethodGet, "/ficha-medica?id=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = serve(d, httptest.NewRequest(http.MethodGet, "/ficha-medica", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status = %d", rec.Code)
	}
}

func TestHealthForm_Save(t *testing.T) {
	store, d := setup(t, "/")
	seed(t, store, types.Student{
		ID: "s-1", Name: "Lucía", DNI: "1", Paid: true, Amount: 900,
		SpecialCare: types.StringPtr("celíaca"),
	})

	form := url.Values{
		"id":               {"s-1"},
		"medication":       {"  paracetamol  "},
		"feverMedication":  {""},
		"emergencyContact": {"Marta 555-0101"},
		"authorization":    {"on"},
	}
	req := httptest.NewRequest(http.MethodPost, "/ficha-medica", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(d, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("redirect to %q, want /", loc)
	}

	got, err := store.GetStudentByID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Authorization || !got.Paid || got.Amount != 900 {
		t.Fatalf("unexpected record %+v", got)
	}
	if types.Deref(got.Medication) != "paracetamol" {
		t.Fatalf("medication = %v", got.Medication)
	}
	if got.FeverMedication == nil || *got.FeverMedication != "" {
		t.Fatalf("submitted empty field must be stored as empty, got %v", got.FeverMedication)
	}
	if got.HeadacheMedication != nil {
		t.Fatalf("field not submitted must stay absent")
	}
	if types.Deref(got.SpecialCare) != "celíaca" {
		t.Fatalf("field not submitted must keep its value, got %v", got.SpecialCare)
	}
}

func TestNotFoundPage(t *testing.T) {
	_, d := setup(t, "/")

	rec := serve(d, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/does-not-exist") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
