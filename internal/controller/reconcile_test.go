package controller

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"wgdash/internal/apperr"
	"wgdash/internal/models"
	"wgdash/internal/render/wgconf"
)

type fakeData struct {
	ds    models.Dataset
	views int
}

func (f *fakeData) View(fn func(models.Dataset) error) error {
	f.views++
	return fn(f.ds.Clone())
}

type fakeEgress struct {
	name string
	err  error
}

func (f fakeEgress) EgressName(configured string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if configured != "" {
		return configured, nil
	}
	return f.name, nil
}

// fakeTunnel считает вызовы; onReload видит конфиг в момент reload.
type fakeTunnel struct {
	starts, stops, reloads, restarts int
	err                              error
	onReload                         func()
}

func (f *fakeTunnel) Start() error { f.starts++; return f.err }
func (f *fakeTunnel) Stop() error  { f.stops++; return f.err }
func (f *fakeTunnel) Restart() error {
	f.restarts++
	return f.err
}
func (f *fakeTunnel) Reload() error {
	f.reloads++
	if f.onReload != nil {
		f.onReload()
	}
	return f.err
}

type fakeDevices struct {
	dev *wgtypes.Device
	err error
}

func (f fakeDevices) Device(string) (*wgtypes.Device, error) { return f.dev, f.err }

func key(t *testing.T) wgtypes.Key {
	t.Helper()
	k, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)
	return k
}

func dataset(t *testing.T) models.Dataset {
	t.Helper()
	srv := key(t)
	return models.Dataset{
		Server: &models.ServerRecord{
			Endpoint:   "vpn.example.com:51820",
			Address:    []string{"10.8.0.1/24"},
			DNS:        []string{},
			ListenPort: 51820,
			PrivateKey: srv.String(),
			PublicKey:  srv.PublicKey().String(),
			PostUp:     models.Ptr(wgconf.DefaultPostUp),
			PostDown:   models.Ptr(wgconf.DefaultPostDown),
		},
		Clients: []models.ClientRecord{
			{Name: "laptop", UUID: uuid.New(), Enabled: true, PublicKey: key(t).PublicKey().String(),
				Address: "10.8.0.2/32", ServerAllowedIPs: []string{"10.8.0.2/32"}, ClientAllowedIPs: []string{"0.0.0.0/0"}},
			{Name: "phone", UUID: uuid.New(), Enabled: false, PublicKey: key(t).PublicKey().String(),
				Address: "10.8.0.3/32", ServerAllowedIPs: []string{"10.8.0.3/32"}, ClientAllowedIPs: []string{"0.0.0.0/0"}},
		},
	}
}

func newReconciler(t *testing.T, ds models.Dataset, tun *fakeTunnel) (*Reconciler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wg0.conf")
	return NewReconciler(&fakeData{ds: ds}, fakeDevices{}, tun, fakeEgress{name: "eth0"}, Options{
		Interface:  "wg0",
		ConfigPath: path,
	}), path
}

func TestReload_WritesConfigBeforeReload(t *testing.T) {
	ds := dataset(t)
	tun := &fakeTunnel{}
	r, path := newReconciler(t, ds, tun)

	var atReload string
	tun.onReload = func() {
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		atReload = string(b)
	}

	require.NoError(t, r.Reload())
	assert.Equal(t, 1, tun.reloads)
	want := wgconf.ServerConfig(ds.Server, ds.Clients, wgconf.Options{TunnelInterface: "wg0", EgressInterface: "eth0"})
	assert.Equal(t, want, atReload)
	assert.Contains(t, atReload, "-o eth0 -j MASQUERADE")
}

func TestRestart_WritesConfig(t *testing.T) {
	tun := &fakeTunnel{}
	r, path := newReconciler(t, dataset(t), tun)

	require.NoError(t, r.Restart())
	assert.Equal(t, 1, tun.restarts)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[Interface]")
}

func TestReload_NoServer(t *testing.T) {
	tun := &fakeTunnel{}
	r, path := newReconciler(t, models.Dataset{Clients: []models.ClientRecord{}}, tun)

	err := r.Reload()
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, tun.reloads)
	assert.NoFileExists(t, path)
}

func TestReload_EgressMissing(t *testing.T) {
	tun := &fakeTunnel{}
	r, _ := newReconciler(t, dataset(t), tun)
	r.Egress = fakeEgress{err: apperr.InterfaceNotFound("eth9", []string{"eth0", "lo"})}

	err := r.Reload()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
	assert.Zero(t, tun.reloads)
}

func TestReload_ToolFailure(t *testing.T) {
	tun := &fakeTunnel{err: apperr.ExternalTool("reload", errors.New("exit status 1"), "could not reload WireGuard")}
	r, _ := newReconciler(t, dataset(t), tun)

	err := r.Reload()
	assert.ErrorIs(t, err, apperr.ErrExternalTool)
}

func TestStartStop_UnderLock(t *testing.T) {
	tun := &fakeTunnel{}
	data := &fakeData{ds: dataset(t)}
	r := NewReconciler(data, nil, tun, fakeEgress{name: "eth0"}, Options{Interface: "wg0"})

	require.NoError(t, r.Start())
	require.NoError(t, r.Stop())
	assert.Equal(t, 1, tun.starts)
	assert.Equal(t, 1, tun.stops)
	assert.Equal(t, 2, data.views)
}

func TestPeers(t *testing.T) {
	ds := dataset(t)
	live, err := wgtypes.ParseKey(ds.Clients[1].PublicKey)
	require.NoError(t, err)

	r, _ := newReconciler(t, ds, &fakeTunnel{})
	r.Devices = fakeDevices{dev: &wgtypes.Device{Name: "wg0", Peers: []wgtypes.Peer{{PublicKey: live, TransmitBytes: 7}}}}

	peers, err := r.Peers()
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "phone", peers[0].Name)
	assert.Equal(t, uint64(7), peers[0].TransmittedBytes)
}

func TestPeers_DeviceUnavailable(t *testing.T) {
	r, _ := newReconciler(t, dataset(t), &fakeTunnel{})
	r.Devices = nil
	_, err := r.Peers()
	assert.ErrorIs(t, err, apperr.ErrRuntimeQuery)

	r.Devices = fakeDevices{err: errors.New("no such device")}
	_, err = r.Peers()
	assert.ErrorIs(t, err, apperr.ErrRuntimeQuery)
}

func TestClientConfig(t *testing.T) {
	ds := dataset(t)
	r, _ := newReconciler(t, ds, &fakeTunnel{})

	text, err := r.ClientConfig(ds.Clients[0].UUID)
	require.NoError(t, err)
	assert.Contains(t, text, ds.Server.PublicKey)
	assert.Contains(t, text, "Endpoint = vpn.example.com:51820")
	assert.NotContains(t, text, ds.Server.PrivateKey)

	_, err = r.ClientConfig(uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestServerConfig_Deterministic(t *testing.T) {
	r, _ := newReconciler(t, dataset(t), &fakeTunnel{})
	a, err := r.ServerConfig()
	require.NoError(t, err)
	b, err := r.ServerConfig()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClientBundle(t *testing.T) {
	ds := dataset(t)
	ds.Clients[0].Name = "my laptop/1"
	r, _ := newReconciler(t, ds, &fakeTunnel{})

	archive, sum, err := r.ClientBundle()
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	got := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(tr)
		require.NoError(t, err)
		got[hdr.Name] = string(b)
	}
	require.Len(t, got, 2)
	laptop := got["my_laptop_1-"+ds.Clients[0].UUID.String()+".conf"]
	assert.Equal(t, wgconf.ClientConfig(ds.Clients[0], ds.Server.PublicKey, ds.Server.Endpoint), laptop)

	_, again, err := r.ClientBundle()
	require.NoError(t, err)
	assert.Equal(t, sum, again)
}
