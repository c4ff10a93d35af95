package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes вешает управляющий API на роутер; mw — общая авторизация.
func RegisterRoutes(r *mux.Router, h *Handler, mw ...mux.MiddlewareFunc) {
	r.HandleFunc("/sample", h.Sample).Methods(http.MethodGet)

	wg := r.PathPrefix("/wireguard").Subrouter()
	wg.Use(mw...)

	wg.HandleFunc("/server", h.GetServer).Methods(http.MethodGet)
	wg.HandleFunc("/server", h.PutServer).Methods(http.MethodPut)
	wg.HandleFunc("/server", h.DeleteServer).Methods(http.MethodDelete)
	wg.HandleFunc("/server/config", h.GetServerConfig).Methods(http.MethodGet)

	wg.HandleFunc("/clients", h.GetClients).Methods(http.MethodGet)
	wg.HandleFunc("/clients", h.PutClients).Methods(http.MethodPut)
	wg.HandleFunc("/clients", h.PostClient).Methods(http.MethodPost)
	wg.HandleFunc("/clients.tar.gz", h.GetClientBundle).Methods(http.MethodGet)
	wg.HandleFunc("/clients/{uuid}", h.GetClient).Methods(http.MethodGet)
	wg.HandleFunc("/clients/{uuid}", h.PutClient).Methods(http.MethodPut)
	wg.HandleFunc("/clients/{uuid}", h.DeleteClient).Methods(http.MethodDelete)
	wg.HandleFunc("/clients/{uuid}/config", h.GetClientConfig).Methods(http.MethodGet)

	wg.HandleFunc("/peers", h.GetPeers).Methods(http.MethodGet)
	wg.HandleFunc("/restart", h.Restart).Methods(http.MethodPost)
	wg.HandleFunc("/reload", h.Reload).Methods(http.MethodPost)
	wg.HandleFunc("/start", h.Start).Methods(http.MethodPost)
	wg.HandleFunc("/stop", h.Stop).Methods(http.MethodPost)
}
