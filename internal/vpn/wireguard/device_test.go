package wireguard

import (
	"errors"
	"net"
	"testing"
	"time"

	"wgdash/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

type fakeDevices struct {
	dev *wgtypes.Device
	err error
}

func (f fakeDevices) Device(string) (*wgtypes.Device, error) { return f.dev, f.err }

func TestReadSnapshot(t *testing.T) {
	priv, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PublicKey()
	_, ipnet, _ := net.ParseCIDR("10.8.0.2/32")
	hs := time.Unix(1710000000, 0)

	dev := &wgtypes.Device{
		Name: "wg0",
		Peers: []wgtypes.Peer{{
			PublicKey:         pub,
			Endpoint:          &net.UDPAddr{IP: net.ParseIP("198.51.100.7"), Port: 40000},
			AllowedIPs:        []net.IPNet{*ipnet},
			TransmitBytes:     100,
			ReceiveBytes:      200,
			LastHandshakeTime: hs,
			ProtocolVersion:   1,
		}},
	}

	snap, err := ReadSnapshot(fakeDevices{dev: dev}, "wg0")
	require.NoError(t, err)
	require.Contains(t, snap, pub)
	c := snap[pub]
	assert.Equal(t, []string{"10.8.0.2/32"}, c.AllowedIPs)
	assert.Equal(t, "198.51.100.7:40000", c.Endpoint)
	assert.Equal(t, int64(100), c.TransmitBytes)
	assert.Equal(t, int64(200), c.ReceiveBytes)
	assert.Equal(t, 1, c.ProtocolVersion)
	assert.True(t, hs.Equal(c.LastHandshake))
}

func TestReadSnapshot_DeviceError(t *testing.T) {
	_, err := ReadSnapshot(fakeDevices{err: errors.New("no such device")}, "wg0")
	assert.Equal(t, apperr.KindRuntimeQuery, apperr.KindOf(err))
}
