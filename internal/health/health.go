package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wgdash/internal/logs"
)

// Check — одна проверка готовности; nil — всё в порядке.
type Check func(ctx context.Context) error

// RegisterRoutes — liveness + readiness по списку проверок.
func RegisterRoutes(r *mux.Router, checks map[string]Check) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logs.Logger.Warnf("readyz: %s: %v", name, err)
				http.Error(w, name+" not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
