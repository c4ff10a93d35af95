package controller

import (
	"os"
	"strings"

	"github.com/google/uuid"

	"wgdash/internal/apperr"
	"wgdash/internal/logs"
	"wgdash/internal/metrics"
	"wgdash/internal/models"
	"wgdash/internal/render/wgconf"
	"wgdash/internal/tarball"
	"wgdash/internal/vpn/wireguard"
	"wgdash/internal/wgquick"
)

// Dataset — хранилище, под замком которого выполняется вся операция.
type Dataset interface {
	View(fn func(ds models.Dataset) error) error
}

// Egress отдаёт имя внешнего интерфейса для хуков NAT.
type Egress interface {
	EgressName(configured string) (string, error)
}

type Options struct {
	Interface        string // wg0
	NetworkInterface string // "" — интерфейс маршрута по умолчанию
	ConfigPath       string // /etc/wireguard/wg0.conf
}

// Reconciler связывает хранилище, рендер конфига, живое устройство и wg-quick.
// Каждая операция целиком идёт под замком хранилища, так что Dataset и интерфейс
// не меняются, пока конфиг рендерится, пишется и применяется.
type Reconciler struct {
	Data    Dataset
	Devices wireguard.DeviceReader
	Tunnel  wgquick.Controller
	Egress  Egress
	Opts    Options
}

func NewReconciler(data Dataset, devices wireguard.DeviceReader, tunnel wgquick.Controller, egress Egress, opts Options) *Reconciler {
	return &Reconciler{Data: data, Devices: devices, Tunnel: tunnel, Egress: egress, Opts: opts}
}

// Peers — клиенты, которые сейчас есть на интерфейсе, со счётчиками.
func (r *Reconciler) Peers() ([]models.RuntimePeerView, error) {
	var out []models.RuntimePeerView
	err := r.Data.View(func(ds models.Dataset) error {
		if r.Devices == nil {
			return apperr.RuntimeQuery("get-peers", nil, "wireguard device client is not available")
		}
		snap, err := wireguard.ReadSnapshot(r.Devices, r.Opts.Interface)
		if err != nil {
			return err
		}
		out, err = wireguard.ReconcilePeers(snap, ds.Clients)
		if err != nil {
			return err
		}
		metrics.LivePeers.Set(float64(len(out)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ServerConfig — текст, который запишут следующие reload/restart.
func (r *Reconciler) ServerConfig() (string, error) {
	var text string
	err := r.Data.View(func(ds models.Dataset) error {
		var err error
		text, err = r.render("render-config", ds)
		return err
	})
	return text, err
}

// ClientConfig — конфиг для устройства клиента с ключом и endpoint текущего сервера.
func (r *Reconciler) ClientConfig(id uuid.UUID) (string, error) {
	const op = "client-config"
	var text string
	err := r.Data.View(func(ds models.Dataset) error {
		if ds.Server == nil {
			return apperr.Validation(op, "server not configured")
		}
		for _, c := range ds.Clients {
			if c.UUID == id {
				text = wgconf.ClientConfig(c, ds.Server.PublicKey, ds.Server.Endpoint)
				return nil
			}
		}
		return apperr.NotFound(op, "client with uuid %s not found", id)
	})
	return text, err
}

// ClientBundle — tar.gz с конфигами всех клиентов (<name>-<uuid>.conf) и его sha256.
func (r *Reconciler) ClientBundle() ([]byte, string, error) {
	const op = "client-bundle"
	var (
		archive []byte
		sum     string
	)
	err := r.Data.View(func(ds models.Dataset) error {
		if ds.Server == nil {
			return apperr.Validation(op, "server not configured")
		}
		files := make([]tarball.File, 0, len(ds.Clients))
		for _, c := range ds.Clients {
			files = append(files, tarball.File{
				Name: bundleName(c),
				Data: []byte(wgconf.ClientConfig(c, ds.Server.PublicKey, ds.Server.Endpoint)),
			})
		}
		var err error
		archive, sum, err = tarball.Build(files)
		if err != nil {
			return apperr.Persistence(op, err)
		}
		return nil
	})
	return archive, sum, err
}

// Restart пишет свежий конфиг, затем wg-quick down + up.
func (r *Reconciler) Restart() error {
	return r.Data.View(func(ds models.Dataset) error {
		if err := r.writeConfig("restart", ds); err != nil {
			return err
		}
		logs.Op("restart").Infof("restarting %s", r.Opts.Interface)
		return r.Tunnel.Restart()
	})
}

// Reload пишет свежий конфиг, затем systemctl reload wg-quick@<iface>.
func (r *Reconciler) Reload() error {
	return r.Data.View(func(ds models.Dataset) error {
		if err := r.writeConfig("reload", ds); err != nil {
			return err
		}
		logs.Op("reload").Infof("reloading %s", r.Opts.Interface)
		return r.Tunnel.Reload()
	})
}

func (r *Reconciler) Start() error {
	return r.Data.View(func(models.Dataset) error {
		logs.Op("start").Infof("starting %s", r.Opts.Interface)
		return r.Tunnel.Start()
	})
}

func (r *Reconciler) Stop() error {
	return r.Data.View(func(models.Dataset) error {
		logs.Op("stop").Infof("stopping %s", r.Opts.Interface)
		return r.Tunnel.Stop()
	})
}

// ---- helpers ----

// имя файла в архиве: безопасное имя клиента + uuid (имена не уникальны)
func bundleName(c models.ClientRecord) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, c.Name)
	return name + "-" + c.UUID.String() + ".conf"
}

func (r *Reconciler) render(op string, ds models.Dataset) (string, error) {
	if ds.Server == nil {
		return "", apperr.Validation(op, "server not configured")
	}
	egress, err := r.Egress.EgressName(r.Opts.NetworkInterface)
	if err != nil {
		return "", err
	}
	return wgconf.ServerConfig(ds.Server, ds.Clients, wgconf.Options{
		TunnelInterface: r.Opts.Interface,
		EgressInterface: egress,
	}), nil
}

func (r *Reconciler) writeConfig(op string, ds models.Dataset) error {
	text, err := r.render(op, ds)
	if err != nil {
		return err
	}
	// перезапись целиком, без rename
	if err := os.WriteFile(r.Opts.ConfigPath, []byte(text), 0o600); err != nil {
		return apperr.Persistence(op, err)
	}
	logs.Op(op).Debugf("config written to %s (%d bytes)", r.Opts.ConfigPath, len(text))
	return nil
}
