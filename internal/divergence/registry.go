package divergence

import (
	"fmt"
	"sort"
	"sync"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

// #region types
// Key identifies one disagreement: a target at a tier, and which side passed.
type Key struct {
	Kind    rules.Kind
	Target  string
	Tier    difficulty.Tier
	APasses bool
}

// Example is a recorded loadout with its encoding.
type Example struct {
	Loadout inventory.Loadout
	Bits    inventory.BitRep
}

// Entry is a key with its inclusion-minimal examples.
type Entry struct {
	Key      Key
	Examples []Example
}

type bucket struct {
	mu       sync.Mutex
	examples []Example
}

// #endregion types

// #region registry
// Registry keeps, per key, a list of loadouts in which no encoding is a
// sub-mask of another. Record is safe for concurrent use; calls for the same
// key are serialized.
type Registry struct {
	space *inventory.Space

	mu      sync.Mutex
	buckets map[Key]*bucket
}

// NewRegistry creates an empty registry encoding loadouts with sp.
func NewRegistry(sp *inventory.Space) *Registry {
	return &Registry{
		space:   sp,
		buckets: make(map[Key]*bucket),
	}
}

func (r *Registry) bucket(key Key) *bucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{}
		r.buckets[key] = b
	}
	return b
}

// #endregion registry

// #region record
// Record adds l under key unless a stored loadout already needs no more
// items than l. Stored loadouts needing at least everything l needs are
// dropped. The new loadout goes to the end of the list.
func (r *Registry) Record(key Key, l inventory.Loadout) error {
	bits, err := r.space.Encode(l)
	if err != nil {
		return fmt.Errorf("record %s %q: %w", key.Kind, key.Target, err)
	}
	b := r.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.examples) == 0 {
		b.examples = []Example{{Loadout: l, Bits: bits}}
		return nil
	}

	kept := make([]Example, 0, len(b.examples)+1)
	for _, known := range b.examples {
		if bits.Covers(known.Bits) {
			// known already reproduces the divergence with no more items
			return nil
		}
		if known.Bits.Covers(bits) {
			continue
		}
		kept = append(kept, known)
	}
	b.examples = append(kept, Example{Loadout: l, Bits: bits})
	return nil
}

// #endregion record

// #region read
// Len returns the number of keys with at least one example.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.buckets {
		b.mu.Lock()
		if len(b.examples) > 0 {
			n++
		}
		b.mu.Unlock()
	}
	return n
}

// Examples returns a copy of the list stored under key, in insertion order.
func (r *Registry) Examples(key Key) []Example {
	r.mu.Lock()
	b, ok := r.buckets[key]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Example, len(b.examples))
	copy(out, b.examples)
	return out
}

// Entries snapshots the registry in report order: entrances before
// locations, then target name, tier, and A-passes before B-passes. Examples
// are ordered by encoding, so the snapshot does not depend on the order
// Record was called in.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	keys := make([]Key, 0, len(r.buckets))
	for k := range r.buckets {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		ex := r.Examples(k)
		if len(ex) == 0 {
			continue
		}
		sort.Slice(ex, func(i, j int) bool { return ex[i].Bits < ex[j].Bits })
		entries = append(entries, Entry{Key: k, Examples: ex})
	}
	return entries
}

// Less orders keys for reports.
func Less(a, b Key) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	return a.APasses && !b.APasses
}

// #endregion read
