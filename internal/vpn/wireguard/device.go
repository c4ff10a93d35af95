package wireguard

import (
	"wgdash/internal/apperr"
	"wgdash/internal/models"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// DeviceReader — кусок wgctrl.Client, который нужен для чтения состояния.
type DeviceReader interface {
	Device(name string) (*wgtypes.Device, error)
}

// OpenDeviceReader открывает netlink/userspace-клиент wgctrl.
func OpenDeviceReader() (*wgctrl.Client, error) {
	return wgctrl.New()
}

// ReadSnapshot читает живых пиров интерфейса.
func ReadSnapshot(r DeviceReader, iface string) (Snapshot, error) {
	dev, err := r.Device(iface)
	if err != nil {
		return nil, apperr.RuntimeQuery("get-peers", err, "could not read interface %q", iface)
	}
	return SnapshotFromDevice(dev), nil
}

func SnapshotFromDevice(dev *wgtypes.Device) Snapshot {
	snap := make(Snapshot, len(dev.Peers))
	for _, p := range dev.Peers {
		allowed := make([]string, 0, len(p.AllowedIPs))
		for _, n := range p.AllowedIPs {
			allowed = append(allowed, n.String())
		}
		var ep string
		if p.Endpoint != nil {
			ep = p.Endpoint.String()
		}
		snap[p.PublicKey] = models.PeerCounters{
			AllowedIPs:      allowed,
			ProtocolVersion: p.ProtocolVersion,
			Endpoint:        ep,
			TransmitBytes:   p.TransmitBytes,
			ReceiveBytes:    p.ReceiveBytes,
			LastHandshake:   p.LastHandshakeTime,
		}
	}
	return snap
}
