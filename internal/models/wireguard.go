package models

import (
	"slices"

	"github.com/google/uuid"
)

// ServerRecord — серверная часть туннеля (секция [Interface]).
// PublicKey всегда выводится из PrivateKey.
type ServerRecord struct {
	Endpoint   string   `json:"endpoint"`
	Address    []string `json:"address"`
	DNS        []string `json:"dns"`
	ListenPort uint16   `json:"listen_port"`
	PrivateKey string   `json:"private_key"`
	PublicKey  string   `json:"public_key"`
	PreUp      *string  `json:"pre_up"`
	PostUp     *string  `json:"post_up"`
	PreDown    *string  `json:"pre_down"`
	PostDown   *string  `json:"post_down"`
	Table      *string  `json:"table"`
	MTU        *uint16  `json:"mtu"`
}

// ClientRecord — один пир. UUID уникален в пределах Dataset.
type ClientRecord struct {
	Name    string    `json:"name"`
	UUID    uuid.UUID `json:"uuid"`
	Enabled bool      `json:"enabled"`

	// server & client configs
	PresharedKey *string `json:"preshared_key"`

	// server config
	PublicKey           string   `json:"public_key"`
	ServerAllowedIPs    []string `json:"server_allowed_ips"`
	PersistentKeepalive *uint16  `json:"persistent_keep_alive"`

	// client config
	PrivateKey       string   `json:"private_key"`
	Address          string   `json:"address"`
	ClientAllowedIPs []string `json:"client_allowed_ips"`
	DNS              []string `json:"dns"`
}

// Dataset — всё, что лежит в data.json.
type Dataset struct {
	Server  *ServerRecord  `json:"server"`
	Clients []ClientRecord `json:"clients"`
}

// ServerPatch — входные данные PUT /wireguard/server, все поля опциональны.
type ServerPatch struct {
	Endpoint   *string   `json:"endpoint"`
	Address    *[]string `json:"address"`
	DNS        *[]string `json:"dns"`
	ListenPort *uint16   `json:"listen_port"`
	PrivateKey *string   `json:"private_key"`
	PreUp      *string   `json:"pre_up"`
	PostUp     *string   `json:"post_up"`
	PreDown    *string   `json:"pre_down"`
	PostDown   *string   `json:"post_down"`
	Table      *string   `json:"table"`
	MTU        *uint16   `json:"mtu"`
}

// ClientPatch — входные данные POST /wireguard/clients.
type ClientPatch struct {
	Name                 *string    `json:"name"`
	UUID                 *uuid.UUID `json:"uuid"`
	Enabled              *bool      `json:"enabled"`
	GeneratePresharedKey *bool      `json:"generate_preshared_key"`
	PresharedKey         *string    `json:"preshared_key"`
	ServerAllowedIPs     *[]string  `json:"server_allowed_ips"`
	PersistentKeepalive  *uint16    `json:"persistent_keep_alive"`
	PrivateKey           *string    `json:"private_key"`
	Address              *string    `json:"address"`
	ClientAllowedIPs     *[]string  `json:"client_allowed_ips"`
	DNS                  *[]string  `json:"dns"`
}

// PatchDocument — формат /sample: сервер + клиенты в виде патчей.
type PatchDocument struct {
	Server  *ServerPatch  `json:"server"`
	Clients []ClientPatch `json:"clients"`
}

// ---- deep copy: наружу из хранилища уходят только копии ----

func (s *ServerRecord) Clone() *ServerRecord {
	if s == nil {
		return nil
	}
	c := *s
	c.Address = slices.Clone(s.Address)
	c.DNS = slices.Clone(s.DNS)
	c.PreUp = clonePtr(s.PreUp)
	c.PostUp = clonePtr(s.PostUp)
	c.PreDown = clonePtr(s.PreDown)
	c.PostDown = clonePtr(s.PostDown)
	c.Table = clonePtr(s.Table)
	c.MTU = clonePtr(s.MTU)
	return &c
}

func (c ClientRecord) Clone() ClientRecord {
	out := c
	out.PresharedKey = clonePtr(c.PresharedKey)
	out.PersistentKeepalive = clonePtr(c.PersistentKeepalive)
	out.ServerAllowedIPs = slices.Clone(c.ServerAllowedIPs)
	out.ClientAllowedIPs = slices.Clone(c.ClientAllowedIPs)
	out.DNS = slices.Clone(c.DNS)
	return out
}

func CloneClients(in []ClientRecord) []ClientRecord {
	if in == nil {
		return nil
	}
	out := make([]ClientRecord, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func (d Dataset) Clone() Dataset {
	return Dataset{Server: d.Server.Clone(), Clients: CloneClients(d.Clients)}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr — хелпер для опциональных полей.
func Ptr[T any](v T) *T { return &v }
