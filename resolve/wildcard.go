/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package resolve

import (
	"net"

	"github.com/glacio/corerpc/ierr"
)

// Family restricts wildcard expansion to IPv4, IPv6, or both.
type Family uint8

const (
	FamilyAny Family = iota
	FamilyIPv4
	FamilyIPv6
)

// ExpandWildcard returns every local, non-loopback address of the allowed
// family, for an object adapter endpoint whose host was left empty
// (bind-to-all-interfaces).
func ExpandWildcard(family Family) ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, ierr.Wrap(ierr.DNSException, err, "enumerate local interfaces")
	}
	var out []net.IP
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		isV4 := ipnet.IP.To4() != nil
		switch family {
		case FamilyIPv4:
			if !isV4 {
				continue
			}
		case FamilyIPv6:
			if isV4 {
				continue
			}
		}
		out = append(out, ipnet.IP)
	}
	return out, nil
}
