//go:build !linux

package netif

import "errors"

var errUnsupported = errors.New("netif: interface enumeration is only implemented on linux")

type netlinkSource struct{}

func (netlinkSource) Links() ([]Interface, error)     { return nil, errUnsupported }
func (netlinkSource) DefaultRouteIndex() (int, error) { return 0, errUnsupported }
