package wireguard

import (
	"wgdash/internal/apperr"
	"wgdash/internal/models"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// Snapshot — живое состояние интерфейса: публичный ключ → счётчики.
type Snapshot map[wgtypes.Key]models.PeerCounters

// ReconcilePeers склеивает сохранённых клиентов со снимком устройства.
// Порядок — как в clients; клиенты, которых нет в снимке, пропускаются.
// Битый публичный ключ у любого клиента обрывает всё с ошибкой.
func ReconcilePeers(snap Snapshot, clients []models.ClientRecord) ([]models.RuntimePeerView, error) {
	peers := make([]models.RuntimePeerView, 0, len(snap))
	for _, c := range clients {
		key, err := ParsePublicKey(c.PublicKey)
		if err != nil {
			return nil, apperr.RuntimeQuery("get-peers", err,
				"invalid public key ('%s') for client '%s'", c.PublicKey, c.Name)
		}
		live, ok := snap[key]
		if !ok {
			continue
		}
		peers = append(peers, runtimeView(c, live))
	}
	return peers, nil
}

func runtimeView(c models.ClientRecord, live models.PeerCounters) models.RuntimePeerView {
	v := models.RuntimePeerView{
		Name:             c.Name,
		UUID:             c.UUID,
		ServerAllowedIPs: live.AllowedIPs,
		Address:          c.Address,
		DNS:              c.DNS,
		TransmittedBytes: nonNegative(live.TransmitBytes),
		ReceivedBytes:    nonNegative(live.ReceiveBytes),
	}
	if v.ServerAllowedIPs == nil {
		v.ServerAllowedIPs = []string{}
	}
	if live.ProtocolVersion > 0 {
		pv := live.ProtocolVersion
		v.ProtocolVersion = &pv
	}
	if live.Endpoint != "" {
		ep := live.Endpoint
		v.Endpoint = &ep
	}
	if !live.LastHandshake.IsZero() {
		hs := live.LastHandshake
		v.LastHandshake = &hs
	}
	return v
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
