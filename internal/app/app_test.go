package app_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aanand-mishra/camp-control/internal/app"
	"github.com/aanand-mishra/camp-control/internal/navigation"
	"github.com/aanand-mishra/camp-control/internal/storage/memory"
	"github.com/aanand-mishra/camp-control/internal/views"
)

func newServer(t *testing.T, base string, logs io.Writer) *httptest.Server {
	t.Helper()

	store := memory.New()
	nav, err := app.NewDispatcher(store, "web", base)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	log := slog.New(slog.NewTextHandler(logs, nil))

	ts := httptest.NewServer(app.NewHandler(store, nav, log))
	t.Cleanup(ts.Close)
	return ts
}

func doReq(t *testing.T, client *http.Client, method, url, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res, b
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestRoutes_Table(t *testing.T) {
	routes := app.Routes(memory.New())
	if len(routes) != 2 {
		t.Fatalf("got %d routes", len(routes))
	}
	if routes[0].Path != "/" || routes[0].Name != views.CampControlName {
		t.Fatalf("first route = %+v", routes[0])
	}
	if routes[1].Path != "/ficha-medica" || routes[1].Name != views.HealthFormName {
		t.Fatalf("second route = %+v", routes[1])
	}
}

func TestNewDispatcher_UnknownHistory(t *testing.T) {
	if _, err := app.NewDispatcher(memory.New(), "hash", "/"); err == nil {
		t.Fatal("expected error for unsupported history mode")
	}
}

func TestNewDispatcher_Memory(t *testing.T) {
	d, err := app.NewDispatcher(memory.New(), "memory", "/ignored")
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	r, err := d.Navigate(views.HealthFormName)
	if err != nil || r.Path != "/ficha-medica" {
		t.Fatalf("navigate = %+v, %v", r, err)
	}
	if _, err := d.Navigate("/missing"); !errors.Is(err, navigation.ErrNoMatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestHTTP_EndToEnd_RosterAndHealthForm(t *testing.T) {
	var logs bytes.Buffer
	ts := newServer(t, "/", &logs)
	client := noRedirect()

	// 1) create a student through the API
	res, body := doReq(t, client, http.MethodPost, ts.URL+"/api/students", "application/json",
		strings.NewReader(`{"name":"Lucía Pérez","dni":"40111222","paid":true,"amount":1500,"cannotPay":false,"authorization":false}`))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", res.StatusCode, body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		t.Fatalf("create body=%s err=%v", body, err)
	}

	// 2) the roster page lists it with a link to its sheet
	res, body = doReq(t, client, http.MethodGet, ts.URL+"/", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(string(body), "Lucía Pérez") || !strings.Contains(string(body), "/ficha-medica?id="+created.ID) {
		t.Fatalf("roster page missing student:\n%s", body)
	}

	// 3) the health form opens for that student
	res, _ = doReq(t, client, http.MethodGet, ts.URL+"/ficha-medica?id="+created.ID, "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on form, got %d", res.StatusCode)
	}

	// 4) submitting it redirects back to the roster
	form := url.Values{
		"id":               {created.ID},
		"medication":       {"insulina"},
		"emergencyContact": {"Ana 555-0101"},
		"authorization":    {"on"},
	}
	res, body = doReq(t, client, http.MethodPost, ts.URL+"/ficha-medica",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if res.StatusCode != http.StatusSeeOther || res.Header.Get("Location") != "/" {
		t.Fatalf("expected 303 to /, got %d %q body=%s", res.StatusCode, res.Header.Get("Location"), body)
	}

	// 5) the API sees the saved sheet
	res, body = doReq(t, client, http.MethodGet, ts.URL+"/api/students/"+created.ID, "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	for _, want := range []string{`"medication":"insulina"`, `"authorization":true`, `"paid":true`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("student missing %s: %s", want, body)
		}
	}
	if strings.Contains(string(body), "feverMedication") {
		t.Fatalf("unsubmitted field must stay absent: %s", body)
	}

	// 6) every request was logged with its status and request id
	if !strings.Contains(logs.String(), "status=201") || !strings.Contains(logs.String(), "request_id=") {
		t.Fatalf("request log missing fields:\n%s", logs.String())
	}
}

func TestHTTP_UnknownPageIs404(t *testing.T) {
	ts := newServer(t, "/", io.Discard)

	res, body := doReq(t, http.DefaultClient, http.MethodGet, ts.URL+"/no-existe", "", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if !strings.Contains(res.Header.Get("Content-Type"), "text/html") || !strings.Contains(string(body), "/no-existe") {
		t.Fatalf("expected the not-found page, got %q %s", res.Header.Get("Content-Type"), body)
	}
}

func TestHTTP_BaseRestrictsPages(t *testing.T) {
	ts := newServer(t, "/campamento", io.Discard)

	if res, body := doReq(t, http.DefaultClient, http.MethodGet, ts.URL+"/campamento/", "", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 under base, got %d body=%s", res.StatusCode, body)
	}
	if res, _ := doReq(t, http.DefaultClient, http.MethodGet, ts.URL+"/ficha-medica?id=x", "", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 outside base, got %d", res.StatusCode)
	}
	if res, _ := doReq(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/students", "", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("API must stay reachable outside the page base, got %d", res.StatusCode)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t, "/", io.Discard)

	res, body := doReq(t, http.DefaultClient, http.MethodGet, ts.URL+"/health", "", nil)
	if res.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("got %d %q", res.StatusCode, body)
	}
}
