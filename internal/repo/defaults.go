package repo

import (
	"github.com/google/uuid"

	"wgdash/internal/apperr"
	"wgdash/internal/models"
	"wgdash/internal/render/wgconf"
	"wgdash/internal/vpn/wireguard"
)

const DefaultListenPort uint16 = 51820

// ServerDefaults — значения для полей, которых нет в патче.
type ServerDefaults struct {
	Endpoint *string                  // endpoint текущего сервера, если он был
	Address  func() ([]string, error) // считается только если address не передан
}

// NewServerRecord собирает ServerRecord из патча: ключи генерируются, если
// private_key не передан; порт 51820; хуки NAT по умолчанию.
func NewServerRecord(p models.ServerPatch, d ServerDefaults) (models.ServerRecord, error) {
	const op = "upsert-server"

	endpoint := p.Endpoint
	if endpoint == nil {
		endpoint = d.Endpoint
	}
	if endpoint == nil {
		return models.ServerRecord{}, apperr.FieldMissing(op, "endpoint")
	}

	kp, err := keyPair(op, p.PrivateKey)
	if err != nil {
		return models.ServerRecord{}, err
	}

	var address []string
	if p.Address != nil {
		address = *p.Address
	} else if d.Address != nil {
		if address, err = d.Address(); err != nil {
			return models.ServerRecord{}, err
		}
	}
	if len(address) == 0 {
		return models.ServerRecord{}, apperr.FieldMissing(op, "address")
	}

	s := models.ServerRecord{
		Endpoint:   *endpoint,
		Address:    address,
		DNS:        orEmpty(p.DNS),
		ListenPort: DefaultListenPort,
		PrivateKey: kp.PrivateKey,
		PublicKey:  kp.PublicKey,
		PreUp:      p.PreUp,
		PostUp:     p.PostUp,
		PreDown:    p.PreDown,
		PostDown:   p.PostDown,
		Table:      p.Table,
		MTU:        p.MTU,
	}
	if p.ListenPort != nil {
		s.ListenPort = *p.ListenPort
	}
	if s.PostUp == nil {
		s.PostUp = models.Ptr(wgconf.DefaultPostUp)
	}
	if s.PostDown == nil {
		s.PostDown = models.Ptr(wgconf.DefaultPostDown)
	}
	return s, nil
}

// ClientDefaults — значения для полей, которых нет в патче.
type ClientDefaults struct {
	Name    *string
	Address func() (string, error) // аллокатор; вызывается только при необходимости
}

// NewClientRecord собирает ClientRecord из патча. enabled по умолчанию false,
// preshared key генерируется, если не передан и generate_preshared_key != false.
func NewClientRecord(p models.ClientPatch, d ClientDefaults) (models.ClientRecord, error) {
	const op = "create-client"

	name := p.Name
	if name == nil {
		name = d.Name
	}
	if name == nil {
		return models.ClientRecord{}, apperr.FieldMissing(op, "name")
	}

	kp, err := keyPair(op, p.PrivateKey)
	if err != nil {
		return models.ClientRecord{}, err
	}

	var allocated string
	if p.Address == nil || p.ServerAllowedIPs == nil {
		if d.Address == nil {
			return models.ClientRecord{}, apperr.FieldMissing(op, "address")
		}
		if allocated, err = d.Address(); err != nil {
			return models.ClientRecord{}, err
		}
	}

	c := models.ClientRecord{
		Name:                *name,
		UUID:                uuid.New(),
		Enabled:             p.Enabled != nil && *p.Enabled,
		PublicKey:           kp.PublicKey,
		PrivateKey:          kp.PrivateKey,
		PersistentKeepalive: p.PersistentKeepalive,
		Address:             allocated,
		ServerAllowedIPs:    []string{allocated},
		ClientAllowedIPs:    []string{"0.0.0.0/0"},
		DNS:                 orEmpty(p.DNS),
	}
	if p.UUID != nil {
		c.UUID = *p.UUID
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.ServerAllowedIPs != nil {
		c.ServerAllowedIPs = *p.ServerAllowedIPs
	}
	if p.ClientAllowedIPs != nil {
		c.ClientAllowedIPs = *p.ClientAllowedIPs
	}

	switch {
	case p.PresharedKey != nil:
		if _, err := wireguard.ParsePublicKey(*p.PresharedKey); err != nil {
			return models.ClientRecord{}, apperr.Validation(op, "invalid base64 preshared key: '%s'", *p.PresharedKey)
		}
		c.PresharedKey = p.PresharedKey
	case p.GeneratePresharedKey == nil || *p.GeneratePresharedKey:
		psk, err := wireguard.GeneratePresharedKey()
		if err != nil {
			return models.ClientRecord{}, err
		}
		c.PresharedKey = &psk
	}
	return c, nil
}

func keyPair(op string, private *string) (wireguard.KeyPair, error) {
	if private == nil {
		return wireguard.GenerateKeyPair()
	}
	return wireguard.KeyPairFromPrivate(op, *private)
}

func orEmpty(p *[]string) []string {
	if p == nil {
		return []string{}
	}
	return *p
}

// SampleDocument — пример для GET /sample.
func SampleDocument() models.PatchDocument {
	return models.PatchDocument{
		Server: &models.ServerPatch{
			Endpoint:   models.Ptr("endpoint.com:51820"),
			Address:    &[]string{"10.8.0.1/24"},
			DNS:        &[]string{"1.1.1.1"},
			ListenPort: models.Ptr(DefaultListenPort),
			PrivateKey: models.Ptr("oL5cNL2cZQVNLYEfg4LIEEfS6KaFN1YSmOlq5rRJjlI="),
			PostUp:     models.Ptr(wgconf.DefaultPostUp),
			PostDown:   models.Ptr(wgconf.DefaultPostDown),
		},
		Clients: []models.ClientPatch{{
			Name:                 models.Ptr("Sample Client"),
			UUID:                 models.Ptr(uuid.New()),
			Enabled:              models.Ptr(true),
			GeneratePresharedKey: models.Ptr(true),
			PresharedKey:         models.Ptr("KS4xysNuixRcArtY/iNph8dQyhXv/W1rxc0QOiDlhzs="),
			ServerAllowedIPs:     &[]string{"10.8.0.2/32"},
			PrivateKey:           models.Ptr("qD+418LUGssYC/V6ZHJQz2YQO8PCWv9gmX4QWtKEMHg="),
			Address:              models.Ptr("10.8.0.2/32"),
			ClientAllowedIPs:     &[]string{"0.0.0.0/0"},
			DNS:                  &[]string{},
		}},
	}
}
