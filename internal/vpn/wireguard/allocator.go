package wireguard

import (
	"net/netip"
	"strings"

	"wgdash/internal/apperr"
	"wgdash/internal/models"
)

// HostInterfaces — то, что аллокатору нужно знать о сетевых интерфейсах хоста.
type HostInterfaces interface {
	IPv4Addrs(name string) ([]netip.Prefix, error)
}

// Allocator выдаёт адрес для нового клиента.
//
// Адрес всегда считается от базового адреса сервера (первый элемент
// ServerRecord.Address) плюс один. Уже выданные клиентам адреса НЕ
// просматриваются, поэтому второй клиент без явного address получит тот же
// адрес, что и первый.
// TODO: сканировать Dataset.Clients и брать первый свободный адрес подсети.
type Allocator struct {
	Host            HostInterfaces
	TunnelInterface string
}

func NewAllocator(host HostInterfaces, tunnelInterface string) *Allocator {
	return &Allocator{Host: host, TunnelInterface: tunnelInterface}
}

// Next возвращает следующий адрес в виде "a.b.c.d/32".
func (a *Allocator) Next(server *models.ServerRecord) (string, error) {
	base, err := a.base(server)
	if err != nil {
		return "", err
	}
	o := base.As4()
	if o[3] < 255 {
		o[3]++
	} else {
		if o[2] == 255 {
			return "", apperr.Validation("allocate-address", "address space after %s exhausted", base)
		}
		o[2]++
		o[3] = 0
	}
	return netip.AddrFrom4(o).String() + "/32", nil
}

func (a *Allocator) base(server *models.ServerRecord) (netip.Addr, error) {
	if server == nil {
		return a.TunnelAddress()
	}
	if len(server.Address) == 0 {
		return netip.Addr{}, apperr.Validation("allocate-address", "invalid server address: server has no address")
	}
	raw := server.Address[0]
	s := raw
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || !ip.Is4() {
		return netip.Addr{}, apperr.Validation("allocate-address", "invalid server address: %s", raw)
	}
	return ip, nil
}

// TunnelAddress — первый IPv4 туннельного интерфейса; используется, пока сервер не задан.
func (a *Allocator) TunnelAddress() (netip.Addr, error) {
	if a.Host == nil {
		return netip.Addr{}, apperr.Configuration("allocate-address", nil, "no server configured and no host interface resolver")
	}
	addrs, err := a.Host.IPv4Addrs(a.TunnelInterface)
	if err != nil {
		return netip.Addr{}, err
	}
	if len(addrs) == 0 {
		return netip.Addr{}, apperr.Configuration("allocate-address", nil, "interface %q has no IPv4 address", a.TunnelInterface)
	}
	return addrs[0].Addr(), nil
}
