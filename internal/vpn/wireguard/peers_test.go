package wireguard

import (
	"testing"
	"time"

	"wgdash/internal/apperr"
	"wgdash/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

func newClient(t *testing.T, name string) (models.ClientRecord, wgtypes.Key) {
	t.Helper()
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	key, err := wgtypes.ParseKey(kp.PublicKey)
	require.NoError(t, err)
	return models.ClientRecord{
		Name:       name,
		UUID:       uuid.New(),
		Enabled:    true,
		PublicKey:  kp.PublicKey,
		PrivateKey: kp.PrivateKey,
		Address:    "10.8.0.2/32",
		DNS:        []string{"1.1.1.1"},
	}, key
}

func TestReconcilePeers_OmitsOfflineClients(t *testing.T) {
	alice, aliceKey := newClient(t, "alice")
	bob, _ := newClient(t, "bob")
	carol, carolKey := newClient(t, "carol")

	hs := time.Unix(1700000000, 0)
	snap := Snapshot{
		carolKey: {AllowedIPs: []string{"10.8.0.4/32"}, TransmitBytes: 10, ReceiveBytes: 20, ProtocolVersion: 1, Endpoint: "203.0.113.5:51820", LastHandshake: hs},
		aliceKey: {AllowedIPs: []string{"10.8.0.2/32"}},
	}

	peers, err := ReconcilePeers(snap, []models.ClientRecord{alice, bob, carol})
	require.NoError(t, err)
	require.Len(t, peers, 2)

	// порядок — как у клиентов, а не как в снимке
	assert.Equal(t, "alice", peers[0].Name)
	assert.Equal(t, "carol", peers[1].Name)

	assert.Nil(t, peers[0].Endpoint)
	assert.Nil(t, peers[0].LastHandshake)
	assert.Nil(t, peers[0].ProtocolVersion)

	c := peers[1]
	assert.Equal(t, carol.UUID, c.UUID)
	assert.Equal(t, uint64(10), c.TransmittedBytes)
	assert.Equal(t, uint64(20), c.ReceivedBytes)
	require.NotNil(t, c.Endpoint)
	assert.Equal(t, "203.0.113.5:51820", *c.Endpoint)
	require.NotNil(t, c.LastHandshake)
	assert.True(t, hs.Equal(*c.LastHandshake))
	assert.Equal(t, []string{"10.8.0.4/32"}, c.ServerAllowedIPs)

	for _, p := range peers {
		assert.NotEqual(t, bob.UUID, p.UUID)
	}
}

func TestReconcilePeers_EmptySnapshot(t *testing.T) {
	alice, _ := newClient(t, "alice")
	peers, err := ReconcilePeers(Snapshot{}, []models.ClientRecord{alice})
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestReconcilePeers_MalformedKeyFailsFast(t *testing.T) {
	alice, aliceKey := newClient(t, "alice")
	broken := models.ClientRecord{Name: "broken", UUID: uuid.New(), PublicKey: "not-base64"}

	_, err := ReconcilePeers(Snapshot{aliceKey: {}}, []models.ClientRecord{alice, broken})
	require.Error(t, err)
	assert.Equal(t, apperr.KindRuntimeQuery, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "'broken'")
	assert.Contains(t, err.Error(), "not-base64")
}
