// Package wgconf рендерит текст конфигурации wg-quick из Dataset.
// Все функции чистые: одинаковый вход → байт-в-байт одинаковый выход.
package wgconf

import (
	"fmt"
	"strings"

	"wgdash/internal/models"
)

// Плейсхолдеры в PreUp/PostUp/PreDown/PostDown.
const (
	PlaceholderTunnel = "{WIREGUARD_INTERFACE}"
	PlaceholderEgress = "{NETWORK_INTERFACE}"
)

// Дефолтные хуки NAT-маскарадинга для нового сервера.
const (
	DefaultPostUp   = "iptables -A FORWARD -i " + PlaceholderTunnel + " -j ACCEPT; iptables -t nat -A POSTROUTING -o " + PlaceholderEgress + " -j MASQUERADE"
	DefaultPostDown = "iptables -D FORWARD -i " + PlaceholderTunnel + " -j ACCEPT; iptables -t nat -D POSTROUTING -o " + PlaceholderEgress + " -j MASQUERADE"
)

const header = "# Generated by wgdash\n# Do not edit manually!\n\n"

// Options — имена интерфейсов для подстановки в хуки.
type Options struct {
	TunnelInterface string
	EgressInterface string
}

// ServerConfig — полный конфиг сервера ([Interface] + [Peer] на каждого клиента).
// Без сервера возвращает пустую строку.
func ServerConfig(server *models.ServerRecord, clients []models.ClientRecord, opts Options) string {
	if server == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(InterfaceSection(server, opts))
	for _, c := range clients {
		b.WriteString("\n\n")
		b.WriteString(PeerSection(c))
	}
	b.WriteString("\n")
	return b.String()
}

// InterfaceSection — секция [Interface] сервера (без завершающего перевода строки).
func InterfaceSection(s *models.ServerRecord, opts Options) string {
	var b strings.Builder
	b.WriteString("[Interface]")
	fmt.Fprintf(&b, "\nAddress = %s", oneLine(strings.Join(s.Address, ",")))
	fmt.Fprintf(&b, "\nListenPort = %d", s.ListenPort)
	fmt.Fprintf(&b, "\nPrivateKey = %s", oneLine(s.PrivateKey))
	if len(s.DNS) > 0 {
		fmt.Fprintf(&b, "\nDNS = %s", oneLine(strings.Join(s.DNS, ",")))
	}

	// вторая часть отделяется пустой строкой
	var extra strings.Builder
	if s.Table != nil {
		fmt.Fprintf(&extra, "\nTable = %s", oneLine(*s.Table))
	}
	if s.MTU != nil {
		fmt.Fprintf(&extra, "\nMTU = %d", *s.MTU)
	}
	hook := func(key string, v *string) {
		if v != nil {
			fmt.Fprintf(&extra, "\n%s = %s", key, oneLine(substitute(*v, opts)))
		}
	}
	hook("PreUp", s.PreUp)
	hook("PostUp", s.PostUp)
	hook("PreDown", s.PreDown)
	hook("PostDown", s.PostDown)

	if extra.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(extra.String())
	}
	return b.String()
}

// PeerSection — блок клиента в конфиге сервера. У выключенного клиента
// закомментирована каждая строка.
func PeerSection(c models.ClientRecord) string {
	lines := []string{"[Peer]", "PublicKey = " + c.PublicKey}
	if c.PresharedKey != nil {
		lines = append(lines, "PresharedKey = "+*c.PresharedKey)
	}
	lines = append(lines, "AllowedIPs = "+strings.Join(c.ServerAllowedIPs, ","))
	if c.PersistentKeepalive != nil {
		lines = append(lines, fmt.Sprintf("PersistentKeepalive = %d", *c.PersistentKeepalive))
	}

	prefix := ""
	if !c.Enabled {
		prefix = "# "
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Name: %s", oneLine(c.Name))
	fmt.Fprintf(&b, "\n# UUID: %s", c.UUID)
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(prefix)
		b.WriteString(oneLine(l))
	}
	return b.String()
}

// ClientConfig — конфиг для устройства клиента. Приватный ключ сервера сюда
// не попадает: известны только его публичный ключ и endpoint.
func ClientConfig(c models.ClientRecord, serverPublicKey, serverEndpoint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Name: %s\n", oneLine(c.Name))
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", oneLine(c.PrivateKey))
	fmt.Fprintf(&b, "Address = %s\n", oneLine(c.Address))
	if len(c.DNS) > 0 {
		fmt.Fprintf(&b, "DNS = %s\n", oneLine(strings.Join(c.DNS, ",")))
	}
	b.WriteString("\n[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", oneLine(serverPublicKey))
	if c.PresharedKey != nil {
		fmt.Fprintf(&b, "PresharedKey = %s\n", oneLine(*c.PresharedKey))
	}
	fmt.Fprintf(&b, "AllowedIPs = %s\n", oneLine(strings.Join(c.ClientAllowedIPs, ",")))
	fmt.Fprintf(&b, "Endpoint = %s\n", oneLine(serverEndpoint))
	if c.PersistentKeepalive != nil {
		fmt.Fprintf(&b, "PersistentKeepalive = %d\n", *c.PersistentKeepalive)
	}
	return b.String()
}

func substitute(s string, opts Options) string {
	return strings.NewReplacer(
		PlaceholderTunnel, opts.TunnelInterface,
		PlaceholderEgress, opts.EgressInterface,
	).Replace(s)
}

// перевод строки в любом значении дописал бы в конфиг свои директивы
func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
