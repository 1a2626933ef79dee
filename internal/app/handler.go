package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/camp-control/internal/http/handlers/student"
	"github.com/aanand-mishra/camp-control/internal/navigation"
	"github.com/aanand-mishra/camp-control/internal/storage"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewHandler mounts the JSON API under /api and hands every other request
// to the page dispatcher.
//
//	POST   /api/students           create a student
//	GET    /api/students           list students
//	GET    /api/students/export    roster as .xlsx
//	POST   /api/students/import    load a roster .xlsx
//	GET    /api/students/{id}      get one student
//	PUT    /api/students/{id}      replace a student
//	DELETE /api/students/{id}      delete a student
//	GET    /health                 liveness
//	*      /...                    pages
func NewHandler(store storage.Storage, nav *navigation.Dispatcher, log *slog.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(store))
	router.HandleFunc("GET /api/students", student.GetList(store))
	router.HandleFunc("GET /api/students/export", student.Export(store))
	router.HandleFunc("POST /api/students/import", student.Import(store))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(store))
	router.HandleFunc("PUT /api/students/{id}", student.Update(store))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(store))

	router.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Handle("/", nav)

	var h http.Handler = router
	h = chimw.Recoverer(h)
	h = requestLogger(log)(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)
	return h
}

// requestLogger logs one line per request once the response is written.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
