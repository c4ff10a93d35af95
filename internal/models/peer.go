package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PeerCounters — живые счётчики пира, как их отдаёт устройство.
type PeerCounters struct {
	AllowedIPs      []string
	ProtocolVersion int
	Endpoint        string // "" — пир ещё не присылал пакетов
	TransmitBytes   int64
	ReceiveBytes    int64
	LastHandshake   time.Time
}

// RuntimePeerView — ClientRecord + счётчики; не сохраняется.
type RuntimePeerView struct {
	Name             string
	UUID             uuid.UUID
	ServerAllowedIPs []string
	Address          string
	ProtocolVersion  *int
	Endpoint         *string
	DNS              []string
	TransmittedBytes uint64
	ReceivedBytes    uint64
	LastHandshake    *time.Time
}

type runtimePeerJSON struct {
	Name             string    `json:"name"`
	UUID             uuid.UUID `json:"uuid"`
	ServerAllowedIPs []string  `json:"server_allowed_ips"`
	Address          string    `json:"address"`
	ProtocolVersion  *int      `json:"protocol_version"`
	Endpoint         *string   `json:"endpoint"`
	DNS              []string  `json:"dns"`
	TransmittedBytes uint64    `json:"transmitted_bytes"`
	ReceivedBytes    uint64    `json:"received_bytes"`
	LastHandshake    *int64    `json:"last_handshake"` // unix millis
}

func (p RuntimePeerView) MarshalJSON() ([]byte, error) {
	out := runtimePeerJSON{
		Name:             p.Name,
		UUID:             p.UUID,
		ServerAllowedIPs: p.ServerAllowedIPs,
		Address:          p.Address,
		ProtocolVersion:  p.ProtocolVersion,
		Endpoint:         p.Endpoint,
		DNS:              p.DNS,
		TransmittedBytes: p.TransmittedBytes,
		ReceivedBytes:    p.ReceivedBytes,
	}
	if p.LastHandshake != nil {
		ms := p.LastHandshake.UnixMilli()
		out.LastHandshake = &ms
	}
	return json.Marshal(out)
}
