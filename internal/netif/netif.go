// Package netif отвечает на вопросы о сетевых интерфейсах хоста: какие есть,
// какие у них IPv4-адреса и через какой уходит маршрут по умолчанию.
package netif

import (
	"net/netip"
	"sort"

	"wgdash/internal/apperr"
)

type Interface struct {
	Name  string
	Index int
	IPv4  []netip.Prefix
}

// source — откуда берутся интерфейсы (netlink в проде, фейк в тестах).
type source interface {
	Links() ([]Interface, error)
	DefaultRouteIndex() (int, error)
}

type Resolver struct {
	src source
}

func NewResolver() *Resolver { return &Resolver{src: netlinkSource{}} }

func (r *Resolver) links() ([]Interface, error) {
	links, err := r.src.Links()
	if err != nil {
		return nil, apperr.Configuration("list-interfaces", err, "could not list network interfaces")
	}
	return links, nil
}

// Names — имена всех интерфейсов по алфавиту.
func (r *Resolver) Names() ([]string, error) {
	links, err := r.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(links))
	for _, l := range links {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names, nil
}

// ByName ищет интерфейс; если его нет — ConfigurationError со списком доступных.
func (r *Resolver) ByName(name string) (Interface, error) {
	links, err := r.links()
	if err != nil {
		return Interface{}, err
	}
	names := make([]string, 0, len(links))
	for _, l := range links {
		if l.Name == name {
			return l, nil
		}
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return Interface{}, apperr.InterfaceNotFound(name, names)
}

func (r *Resolver) IPv4Addrs(name string) ([]netip.Prefix, error) {
	l, err := r.ByName(name)
	if err != nil {
		return nil, err
	}
	return l.IPv4, nil
}

// Default — интерфейс маршрута по умолчанию (IPv4).
func (r *Resolver) Default() (Interface, error) {
	idx, err := r.src.DefaultRouteIndex()
	if err != nil {
		return Interface{}, apperr.Configuration("default-interface", err, "could not get the default network interface")
	}
	links, err := r.links()
	if err != nil {
		return Interface{}, err
	}
	for _, l := range links {
		if l.Index == idx {
			return l, nil
		}
	}
	return Interface{}, apperr.Configuration("default-interface", nil, "default route points to unknown link index %d", idx)
}

// EgressName: явно заданное имя (должно существовать) либо интерфейс маршрута по умолчанию.
func (r *Resolver) EgressName(configured string) (string, error) {
	if configured != "" {
		if _, err := r.ByName(configured); err != nil {
			return "", err
		}
		return configured, nil
	}
	l, err := r.Default()
	if err != nil {
		return "", err
	}
	return l.Name, nil
}
