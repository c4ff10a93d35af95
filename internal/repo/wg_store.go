package repo

import (
	"context"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"wgdash/internal/apperr"
	"wgdash/internal/logs"
	"wgdash/internal/metrics"
	"wgdash/internal/models"
)

// AddressAllocator — то, что хранилищу нужно от wireguard.Allocator.
type AddressAllocator interface {
	Next(server *models.ServerRecord) (string, error)
	TunnelAddress() (netip.Addr, error)
}

// Store — единственный владелец Dataset. Все операции идут под одним мьютексом;
// каждая мутация синхронно сохраняет весь Dataset до возврата.
//
// Если сохранение упало, изменение в памяти НЕ откатывается: Store помечается
// dirty, ошибка уходит вызывающему, /readyz отвечает 503, а следующая удачная
// запись (она всегда пишет Dataset целиком) снимает флаг.
type Store struct {
	mu      sync.Mutex
	data    models.Dataset
	persist Persister
	alloc   AddressAllocator
	dirty   atomic.Bool // читается без mu: /readyz не ждёт restart/reload
}

// Open загружает Dataset и сразу пересохраняет его (нормализованный формат на диске).
func Open(ctx context.Context, p Persister, alloc AddressAllocator) (*Store, error) {
	ds, err := p.Load(ctx)
	if err != nil {
		return nil, apperr.Configuration("load", err, "could not load data")
	}
	if ds.Clients == nil {
		ds.Clients = []models.ClientRecord{}
	}
	s := &Store{data: ds, persist: p, alloc: alloc}
	if err := s.commit(ctx, "load"); err != nil {
		return nil, err
	}
	logs.Op("load").Infof("dataset loaded: server=%t clients=%d", ds.Server != nil, len(ds.Clients))
	return s, nil
}

func (s *Store) commit(ctx context.Context, op string) error {
	// начатую операцию не отменяем, даже если клиент отвалился
	err := s.persist.Save(context.WithoutCancel(ctx), &s.data)
	metrics.StoreSaves.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		s.dirty.Store(true)
		metrics.StoreDirty.Set(1)
		logs.Op(op).WithError(err).Error("dataset not persisted, memory and disk diverged")
		return apperr.Persistence(op, err)
	}
	if s.dirty.Swap(false) {
		logs.Op(op).Info("dataset persisted, divergence cleared")
	}
	metrics.StoreDirty.Set(0)
	return nil
}

// Dirty — true, если последнее сохранение не удалось. Замок не берёт.
func (s *Store) Dirty() bool {
	return s.dirty.Load()
}

// View выполняет fn под общим мьютексом с копией Dataset. Через него идут
// операции, которым нужно состояние и интерфейс одновременно (restart, reload, peers).
func (s *Store) View(fn func(ds models.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data.Clone())
}

func (s *Store) Snapshot() models.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// ---- server ----

func (s *Store) Server() *models.ServerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Server.Clone()
}

// UpsertServer заменяет сервер собранным из патча; nil-патч удаляет сервер.
func (s *Store) UpsertServer(ctx context.Context, p *models.ServerPatch) (*models.ServerRecord, error) {
	const op = "upsert-server"
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		s.data.Server = nil
		logs.Op(op).Info("server cleared")
		return nil, s.commit(ctx, op)
	}

	var d ServerDefaults
	if s.data.Server != nil {
		d.Endpoint = &s.data.Server.Endpoint
	}
	d.Address = func() ([]string, error) {
		ip, err := s.alloc.TunnelAddress()
		if err != nil {
			return nil, err
		}
		return []string{ip.String()}, nil
	}
	srv, err := NewServerRecord(*p, d)
	if err != nil {
		return nil, err
	}
	s.data.Server = &srv
	logs.Op(op).Infof("server set: endpoint=%s address=%v port=%d", srv.Endpoint, srv.Address, srv.ListenPort)
	if err := s.commit(ctx, op); err != nil {
		return nil, err
	}
	return srv.Clone(), nil
}

func (s *Store) DeleteServer(ctx context.Context) error {
	const op = "delete-server"
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Server = nil
	logs.Op(op).Info("server deleted")
	return s.commit(ctx, op)
}

// ---- clients ----

func (s *Store) Clients() []models.ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneClients(s.data.Clients)
}

func (s *Store) Client(id uuid.UUID) (models.ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.ClientRecord{}, clientNotFound("get-client", id)
	}
	return s.data.Clients[i].Clone(), nil
}

// ReplaceClients заменяет весь список клиентов.
func (s *Store) ReplaceClients(ctx context.Context, clients []models.ClientRecord) error {
	const op = "replace-clients"
	seen := make(map[uuid.UUID]struct{}, len(clients))
	for _, c := range clients {
		if _, dup := seen[c.UUID]; dup {
			return apperr.Conflict(op, "client with uuid %s occurs more than once", c.UUID)
		}
		seen[c.UUID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if clients == nil {
		clients = []models.ClientRecord{}
	}
	s.data.Clients = models.CloneClients(clients)
	logs.Op(op).Infof("clients replaced: %d", len(clients))
	return s.commit(ctx, op)
}

// CreateClient собирает клиента из патча и добавляет в конец списка.
func (s *Store) CreateClient(ctx context.Context, p models.ClientPatch) (models.ClientRecord, error) {
	const op = "create-client"
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UUID != nil && s.indexOf(*p.UUID) >= 0 {
		return models.ClientRecord{}, apperr.Conflict(op, "client with uuid %s already exists", *p.UUID)
	}
	server := s.data.Server
	c, err := NewClientRecord(p, ClientDefaults{
		Address: func() (string, error) { return s.alloc.Next(server) },
	})
	if err != nil {
		return models.ClientRecord{}, err
	}
	// uuid.New() не совпадёт, но проверка дешёвая
	if s.indexOf(c.UUID) >= 0 {
		return models.ClientRecord{}, apperr.Conflict(op, "client with uuid %s already exists", c.UUID)
	}

	s.data.Clients = append(s.data.Clients, c)
	logs.Op(op).WithField("uuid", c.UUID).Infof("client %q created: address=%s enabled=%t", c.Name, c.Address, c.Enabled)
	if err := s.commit(ctx, op); err != nil {
		return models.ClientRecord{}, err
	}
	return c.Clone(), nil
}

// UpdateClient заменяет клиента с данным UUID на месте.
func (s *Store) UpdateClient(ctx context.Context, id uuid.UUID, c models.ClientRecord) (models.ClientRecord, error) {
	const op = "update-client"
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ClientRecord{}, clientNotFound(op, id)
	}
	if c.UUID == uuid.Nil {
		c.UUID = id
	}
	if c.UUID != id && s.indexOf(c.UUID) >= 0 {
		return models.ClientRecord{}, apperr.Conflict(op, "client with uuid %s already exists", c.UUID)
	}

	s.data.Clients[i] = c.Clone()
	logs.Op(op).WithField("uuid", id).Infof("client %q updated", c.Name)
	if err := s.commit(ctx, op); err != nil {
		return models.ClientRecord{}, err
	}
	return c.Clone(), nil
}

func (s *Store) DeleteClient(ctx context.Context, id uuid.UUID) error {
	const op = "delete-client"
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return clientNotFound(op, id)
	}
	s.data.Clients = append(s.data.Clients[:i], s.data.Clients[i+1:]...)
	logs.Op(op).WithField("uuid", id).Info("client deleted")
	return s.commit(ctx, op)
}

func (s *Store) indexOf(id uuid.UUID) int {
	for i := range s.data.Clients {
		if s.data.Clients[i].UUID == id {
			return i
		}
	}
	return -1
}

func clientNotFound(op string, id uuid.UUID) error {
	return apperr.NotFound(op, "client with uuid %s not found", id)
}
