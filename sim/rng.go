package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
)

// === SimulationKey ===

// SimulationKey is the network seed. Two runs of the same network with the
// same key produce identical traces.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemModel returns the subsystem name for the atomic model with the given id.
// Every atomic model draws from its own generator.
func SubsystemModel(id string) string {
	return fmt.Sprintf("model_%s", id)
}

// === PartitionedRNG ===

// PartitionedRNG hands every atomic model its own generator, so draws made by
// one space or enzyme never shift the stream of another and adding a model
// leaves the others' sequences intact.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Not safe for concurrent use; Build calls it from one goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// ForModel returns the generator of the atomic model registered as id.
func (p *PartitionedRNG) ForModel(id string) *rand.Rand {
	return p.ForSubsystem(SubsystemModel(id))
}

// Streams returns the names of the generators handed out so far, sorted.
func (p *PartitionedRNG) Streams() []string {
	names := make([]string, 0, len(p.subsystems))
	for name := range p.subsystems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
