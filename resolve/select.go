/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package resolve

import (
	"net"

	"github.com/glacio/corerpc/cmn/atomic"
	"github.com/glacio/corerpc/cmn/cos"
	"github.com/glacio/corerpc/cmn/xoshiro256"
	"github.com/glacio/corerpc/model"
)

// shuffleEpoch guarantees the Random policy never reuses a shuffle seed for
// the same proxy within this process: each call mixes in the next value
// from a process-wide monotonic counter alongside the proxy's identity.
var shuffleEpoch atomic.Uint64

// Order returns a copy of addrs arranged per policy; addrs itself is not
// modified. For Ordered, preferIPv6 moves every IPv6 address ahead of IPv4
// ones, each group keeping resolver order. For Random, the copy is shuffled
// with a seed derived from proxyKey and a per-process, never-repeating epoch
// counter.
func Order(addrs []net.IP, policy model.EndpointSelection, proxyKey string, preferIPv6 bool) []net.IP {
	out := make([]net.IP, len(addrs))
	copy(out, addrs)

	switch policy {
	case model.Ordered:
		if preferIPv6 {
			stablePartitionIPv6First(out)
		}
	case model.Random:
		epoch := shuffleEpoch.Add(1)
		seed := cos.HashSeed(proxyKey, epoch)
		shuffle(out, xoshiro256.New(seed))
	}
	return out
}

func stablePartitionIPv6First(addrs []net.IP) {
	v6 := addrs[:0:0]
	v4 := addrs[:0:0]
	for _, a := range addrs {
		if a.To4() == nil {
			v6 = append(v6, a)
		} else {
			v4 = append(v4, a)
		}
	}
	copy(addrs, append(v6, v4...))
}

// shuffle is Fisher-Yates driven by xoshiro256's uint64 stream.
func shuffle(addrs []net.IP, state xoshiro256.State) {
	for i := len(addrs) - 1; i > 0; i-- {
		j := int(state.Next() % uint64(i+1))
		addrs[i], addrs[j] = addrs[j], addrs[i]
	}
}
