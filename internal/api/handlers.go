package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"wgdash/internal/apperr"
	"wgdash/internal/logs"
	"wgdash/internal/middleware"
	"wgdash/internal/models"
	"wgdash/internal/repo"
)

// Store — операции над Dataset (repo.Store).
type Store interface {
	Server() *models.ServerRecord
	UpsertServer(ctx context.Context, p *models.ServerPatch) (*models.ServerRecord, error)
	DeleteServer(ctx context.Context) error
	Clients() []models.ClientRecord
	Client(id uuid.UUID) (models.ClientRecord, error)
	ReplaceClients(ctx context.Context, clients []models.ClientRecord) error
	CreateClient(ctx context.Context, p models.ClientPatch) (models.ClientRecord, error)
	UpdateClient(ctx context.Context, id uuid.UUID, c models.ClientRecord) (models.ClientRecord, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

// Engine — операции над живым интерфейсом (controller.Reconciler).
type Engine interface {
	Peers() ([]models.RuntimePeerView, error)
	ServerConfig() (string, error)
	ClientConfig(id uuid.UUID) (string, error)
	ClientBundle() ([]byte, string, error)
	Restart() error
	Reload() error
	Start() error
	Stop() error
}

type Handler struct {
	store  Store
	engine Engine
}

func NewHandler(store Store, engine Engine) *Handler {
	return &Handler{store: store, engine: engine}
}

// ---- server ----

func (h *Handler) GetServer(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, h.store.Server())
}

// PutServer: тело — ServerPatch или null (null удаляет сервер).
func (h *Handler) PutServer(w http.ResponseWriter, r *http.Request) {
	var p *models.ServerPatch
	if !decode(w, r, &p) {
		return
	}
	srv, err := h.store.UpsertServer(r.Context(), p)
	if err != nil {
		writeErr(w, r, "Could not create server", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, srv)
}

func (h *Handler) DeleteServer(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteServer(r.Context()); err != nil {
		writeErr(w, r, "Could not delete server", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GetServerConfig(w http.ResponseWriter, r *http.Request) {
	text, err := h.engine.ServerConfig()
	if err != nil {
		writeErr(w, r, "Could not render config", err)
		return
	}
	models.WriteText(w, http.StatusOK, text)
}

// ---- clients ----

func (h *Handler) GetClients(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, h.store.Clients())
}

func (h *Handler) PutClients(w http.ResponseWriter, r *http.Request) {
	var clients []models.ClientRecord
	if !decode(w, r, &clients) {
		return
	}
	if err := h.store.ReplaceClients(r.Context(), clients); err != nil {
		writeErr(w, r, "Could not replace clients", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) PostClient(w http.ResponseWriter, r *http.Request) {
	var p models.ClientPatch
	if !decode(w, r, &p) {
		return
	}
	c, err := h.store.CreateClient(r.Context(), p)
	if err != nil {
		writeErr(w, r, "Could not create client", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	c, err := h.store.Client(id)
	if err != nil {
		writeErr(w, r, "Could not get client", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) PutClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var c models.ClientRecord
	if !decode(w, r, &c) {
		return
	}
	if _, err := h.store.UpdateClient(r.Context(), id, c); err != nil {
		writeErr(w, r, "Could not update client", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		writeErr(w, r, "Could not delete client", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GetClientConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	text, err := h.engine.ClientConfig(id)
	if err != nil {
		writeErr(w, r, "Could not render client config", err)
		return
	}
	models.WriteText(w, http.StatusOK, text)
}

// GetClientBundle отдаёт tar.gz со всеми клиентскими конфигами.
// ?checksum=<sha256> или If-None-Match с тем же значением → 304.
func (h *Handler) GetClientBundle(w http.ResponseWriter, r *http.Request) {
	archive, sum, err := h.engine.ClientBundle()
	if err != nil {
		writeErr(w, r, "Could not build client bundle", err)
		return
	}
	etag := `"` + sum + `"`
	if prev := r.URL.Query().Get("checksum"); prev == sum || r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="clients.tar.gz"`)
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// ---- interface ----

func (h *Handler) GetPeers(w http.ResponseWriter, r *http.Request) {
	peers, err := h.engine.Peers()
	if err != nil {
		writeErr(w, r, "Could not get peers", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, peers)
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Could not restart WireGuard", h.engine.Restart)
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Could not reload WireGuard", h.engine.Reload)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Could not start WireGuard", h.engine.Start)
}

func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Could not stop WireGuard", h.engine.Stop)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, prefix string, fn func() error) {
	if err := fn(); err != nil {
		writeErr(w, r, prefix, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Sample(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, repo.SampleDocument())
}

// ---- helpers ----

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		models.WriteError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["uuid"]
	id, err := uuid.Parse(raw)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid uuid: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

func writeErr(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logs.Logger.Errorf("reqid=%s %s: %v", middleware.GetRequestID(r), prefix, err)
	}
	models.WriteError(w, status, prefix+": "+err.Error())
}
