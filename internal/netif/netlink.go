//go:build linux

package netif

import (
	"errors"
	"net/netip"

	"github.com/vishvananda/netlink"
)

type netlinkSource struct{}

func (netlinkSource) Links() ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		it := Interface{Name: attrs.Name, Index: attrs.Index}
		addrs, err := netlink.AddrList(l, netlink.FAMILY_V4)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if a.IPNet == nil {
				continue
			}
			ip, ok := netip.AddrFromSlice(a.IPNet.IP)
			if !ok {
				continue
			}
			ones, _ := a.IPNet.Mask.Size()
			it.IPv4 = append(it.IPv4, netip.PrefixFrom(ip.Unmap(), ones))
		}
		out = append(out, it)
	}
	return out, nil
}

func (netlinkSource) DefaultRouteIndex() (int, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return 0, err
	}
	for _, r := range routes {
		if r.Dst == nil || (r.Dst.IP.IsUnspecified() && isZeroMask(r.Dst.Mask)) {
			if r.LinkIndex > 0 {
				return r.LinkIndex, nil
			}
		}
	}
	return 0, errors.New("no default route")
}

func isZeroMask(m []byte) bool {
	for _, b := range m {
		if b != 0 {
			return false
		}
	}
	return true
}
