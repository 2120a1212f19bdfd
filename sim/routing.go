package sim

import (
	"fmt"
	"sort"
)

// NoPort is returned by RoutingTable.At for absent keys.
const NoPort = -1

// RoutingTable maps a domain key (metabolite, enzyme or reaction id,
// compartment address) to an output port index.
type RoutingTable[K comparable] struct {
	entries map[K]int
}

// NewRoutingTable creates an empty routing table.
func NewRoutingTable[K comparable]() RoutingTable[K] {
	return RoutingTable[K]{entries: make(map[K]int)}
}

// RoutingTableOf creates a routing table holding entries.
func RoutingTableOf[K comparable](entries map[K]int) RoutingTable[K] {
	rt := NewRoutingTable[K]()
	for k, p := range entries {
		rt.Set(k, p)
	}
	return rt
}

// Set binds key to port.
func (rt *RoutingTable[K]) Set(key K, port int) {
	if port < 0 {
		panic(fmt.Sprintf("RoutingTable.Set: negative port %d for %v", port, key))
	}
	if rt.entries == nil {
		rt.entries = make(map[K]int)
	}
	rt.entries[key] = port
}

// At returns the port bound to key, or NoPort.
func (rt RoutingTable[K]) At(key K) int {
	if p, ok := rt.entries[key]; ok {
		return p
	}
	return NoPort
}

// Lookup returns the port bound to key and whether it exists.
func (rt RoutingTable[K]) Lookup(key K) (int, bool) {
	p, ok := rt.entries[key]
	return p, ok
}

// MustAt returns the port bound to key. An absent key is a configuration
// error and panics.
func (rt RoutingTable[K]) MustAt(key K) int {
	p, ok := rt.entries[key]
	if !ok {
		panic(fmt.Sprintf("routing table missing entry for %v", key))
	}
	return p
}

// Len returns the number of bound keys.
func (rt RoutingTable[K]) Len() int {
	return len(rt.entries)
}

// Ports returns the distinct bound ports in ascending order.
func (rt RoutingTable[K]) Ports() []int {
	seen := make(map[int]bool, len(rt.entries))
	ports := make([]int, 0, len(rt.entries))
	for _, p := range rt.entries {
		if !seen[p] {
			seen[p] = true
			ports = append(ports, p)
		}
	}
	sort.Ints(ports)
	return ports
}
